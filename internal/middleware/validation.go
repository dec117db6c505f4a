package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationConfig struct {
	CustomValidators    map[string]validator.Func
	CustomErrorMessages map[string]string
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CustomValidators: map[string]validator.Func{
			"decimal": func(fl validator.FieldLevel) bool {
				return model.IsDecimal(strings.TrimSpace(fl.Field().String()))
			},
		},
		CustomErrorMessages: map[string]string{
			"required": "Missing required fields",
			"decimal":  "Vital values must be numeric",
			"email":    "Invalid email format",
			"min":      "Value is too short",
			"max":      "Value is too long",
		},
	}
}

// Validation registers the custom validators on gin's engine and renders
// bind errors pushed by handlers with c.Error(err).SetType(gin.ErrorTypeBind).
func Validation(config ValidationConfig) gin.HandlerFunc {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		for tag, fn := range config.CustomValidators {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(err)
			}
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	}

	return func(c *gin.Context) {
		c.Next()

		bindErrs := c.Errors.ByType(gin.ErrorTypeBind)
		if len(bindErrs) == 0 || c.Writer.Written() {
			return
		}

		var fields []ValidationError
		var verrs validator.ValidationErrors
		if errors.As(bindErrs.Last().Err, &verrs) {
			for _, e := range verrs {
				msg := config.CustomErrorMessages[e.Tag()]
				if msg == "" {
					msg = e.Error()
				}
				fields = append(fields, ValidationError{Field: e.Field(), Message: msg})
			}
		}

		message := "Invalid request"
		if len(fields) > 0 {
			message = fields[0].Message
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": message,
			"errors":  fields,
		})
	}
}
