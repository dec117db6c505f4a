package chat

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/realtime"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/chat"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

type Handler struct {
	svc      *chat.Service
	relay    *realtime.Relay
	upgrader websocket.Upgrader
}

// NewHandler accepts websocket upgrades from allowedOrigins; "*" allows any.
func NewHandler(svc *chat.Service, relay *realtime.Relay, allowedOrigins []string) *Handler {
	return &Handler{
		svc:   svc,
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// RegisterRoutes mounts the authenticated chat pages on r.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/chat", h.Contacts)
	r.GET("/api/get_messages/:other_id", h.History)
}

// RegisterSocket mounts /ws, which admits anonymous connections.
func (h *Handler) RegisterSocket(r *gin.RouterGroup) {
	r.GET("/ws", h.Socket)
}

func (h *Handler) Contacts(c *gin.Context) {
	user := middleware.MustUser(c)
	contacts, err := h.svc.Contacts(c.Request.Context(), user)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"user":     user.Contact(),
		"contacts": contacts,
	})
}

func (h *Handler) History(c *gin.Context) {
	otherID, ok := handler.ParamID(c, "other_id")
	if !ok {
		return
	}
	msgs, err := h.svc.History(c.Request.Context(), middleware.MustUser(c), otherID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, msgs)
}

func (h *Handler) Socket(c *gin.Context) {
	var userID int64
	if user, ok := middleware.CurrentUser(c); ok {
		userID = user.ID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.relay.Serve(c.Request.Context(), conn, userID)
}
