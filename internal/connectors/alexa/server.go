package alexa

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errx "github.com/placefinder/server/internal/core/error"
	logx "github.com/placefinder/server/pkg/logger"
)

// WebhookHandler handles the Alexa skill HTTP requests
type WebhookHandler struct {
	bridge *Bridge
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(bridge *Bridge) *WebhookHandler {
	return &WebhookHandler{bridge: bridge}
}

// Receive handles POST /webhook
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var env *Envelope
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		env = &Envelope{}
		if err := json.Unmarshal(trimmed, env); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	message, endSession, err := h.bridge.Handle(c.Request.Context(), env)
	switch {
	case errors.Is(err, ErrNotImplemented):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logx.Error().Err(err).Msg("alexa request failed")
		c.JSON(errx.StatusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, NewResponse(message, endSession))
}

// NewRouter builds the gin engine of the Alexa bridge.
func NewRouter(bridge *Bridge, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)
	router.Use(gin.Recovery())

	h := NewWebhookHandler(bridge)
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/webhook", h.Receive)
	return router
}
