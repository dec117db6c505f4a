package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/auth"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	svc     *auth.Service
	mw      *middleware.AuthMiddleware
	cookie  CookieConfig
	limiter gin.HandlerFunc
}

// NewHandler wires the auth pages; limiter guards POST /login and may be nil.
func NewHandler(svc *auth.Service, mw *middleware.AuthMiddleware, cookie CookieConfig, limiter gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, mw: mw, cookie: cookie, limiter: limiter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	login := []gin.HandlerFunc{h.Login}
	if h.limiter != nil {
		login = append([]gin.HandlerFunc{h.limiter}, login...)
	}

	r.GET("/login", h.LoginPage)
	r.POST("/login", login...)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.GET("/logout", h.Logout)
}

func (h *Handler) LoginPage(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"page": "Login"})
}

func (h *Handler) RegisterPage(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"page":  "Register",
		"roles": []model.Role{model.RolePatient, model.RoleDoctor},
	})
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.Bind(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"message": "Registration successful. Please log in.",
		"user":    user.Contact(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.Bind(c, &req) {
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)

	next := "/dashboard"
	if user.IsDoctor() {
		next = "/doctor"
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"user":     user.Contact(),
		"token":    token,
		"redirect": next,
	})
}

// Logout is idempotent; an anonymous logout still clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), h.mw.Token(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)

	if handler.WantsHTML(c) {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "You have been logged out."})
}
