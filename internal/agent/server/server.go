// Package server exposes the action registry over the Rasa action-server
// webhook protocol.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/placefinder/server/internal/agent/actions"
	"github.com/placefinder/server/internal/agent/model"
	logx "github.com/placefinder/server/pkg/logger"
)

// ActionHandler handles the action-server HTTP requests
type ActionHandler struct {
	registry *actions.Registry
}

// NewActionHandler creates a new action handler
func NewActionHandler(registry *actions.Registry) *ActionHandler {
	return &ActionHandler{registry: registry}
}

// Webhook handles POST /webhook
func (h *ActionHandler) Webhook(c *gin.Context) {
	var call model.ActionCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if call.NextAction == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: missing next_action"})
		return
	}
	if call.Tracker.SenderID == "" {
		call.Tracker.SenderID = call.SenderID
	}

	result, err := h.registry.Run(c.Request.Context(), &call)
	if err != nil {
		var unknown *actions.UnknownActionError
		if errors.As(err, &unknown) {
			c.JSON(http.StatusNotFound, gin.H{"error": unknown.Error(), "action_name": unknown.Name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Actions handles GET /actions
func (h *ActionHandler) Actions(c *gin.Context) {
	names := h.registry.Names()
	out := make([]gin.H, 0, len(names))
	for _, n := range names {
		out = append(out, gin.H{"name": n})
	}
	c.JSON(http.StatusOK, out)
}

// NewRouter builds the gin engine of the action server.
func NewRouter(registry *actions.Registry) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), gin.Recovery())

	h := NewActionHandler(registry)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/actions", h.Actions)
	router.POST("/webhook", h.Webhook)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// RequestLogger logs every request through zerolog.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logx.Debug()
		switch {
		case status >= http.StatusInternalServerError:
			ev = logx.Error()
		case status >= http.StatusBadRequest:
			ev = logx.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("took", time.Since(started)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
