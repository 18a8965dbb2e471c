package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Engine  protocol.Status `json:"engine"`
	Sensors map[string]any  `json:"sensors"`
}

// BoostRequest is the body of POST /api/boost
type BoostRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1,max=255"`
}

// BoostResponse is returned by the boost endpoints
type BoostResponse struct {
	Status  string `json:"status"`
	Action  string `json:"action"`
	Minutes int    `json:"minutes,omitempty"`
}

func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).Round(time.Second).String(),
			"service": ServiceName,
			"build":   version.Get(),
		})
	})

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/boost", s.handleBoostStart)
	api.DELETE("/boost", s.handleBoostCancel)

	r.GET("/ws", s.handleWebSocket)
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := StatusResponse{
		Engine:  s.engine.Status(),
		Sensors: make(map[string]any),
	}
	if s.store != nil {
		for _, u := range s.store.Snapshot() {
			resp.Sensors[u.Sensor] = u.Value
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBoostStart(c *gin.Context) {
	var req BoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutes must be between 1 and 255"})
		return
	}

	err := s.engine.BoostStart(c.Request.Context(), uint8(req.Minutes))
	if err != nil {
		s.writeControlError(c, protocol.ActionBoostStart, err)
		return
	}

	logging.Info("Boost requested", zap.Int("minutes", req.Minutes))
	c.JSON(http.StatusAccepted, BoostResponse{
		Status:  "sent",
		Action:  protocol.ActionBoostStart.String(),
		Minutes: req.Minutes,
	})
}

func (s *Server) handleBoostCancel(c *gin.Context) {
	if err := s.engine.BoostCancel(c.Request.Context()); err != nil {
		s.writeControlError(c, protocol.ActionBoostCancel, err)
		return
	}

	logging.Info("Boost cancel requested")
	c.JSON(http.StatusAccepted, BoostResponse{
		Status: "sent",
		Action: protocol.ActionBoostCancel.String(),
	})
}

// writeControlError maps engine errors to HTTP statuses
func (s *Server) writeControlError(c *gin.Context, action protocol.ControlAction, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, protocol.ErrNoSystemAddress):
		status = http.StatusConflict
	case errors.Is(err, protocol.ErrTransmitUnavailable):
		status = http.StatusServiceUnavailable
	}

	logging.Warn("Control request failed",
		zap.String("action", action.String()),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.JSON(status, gin.H{"error": err.Error(), "action": action.String()})
}
