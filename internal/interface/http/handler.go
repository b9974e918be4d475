package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/companion"
	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
)

// EventHandler exposes device events over HTTP for phone-side bridges.
type EventHandler struct {
	svc    companion.Service
	cfg    companion.Config
	logger *slog.Logger
}

// NewEventHandler constructs the HTTP handler for companion events.
func NewEventHandler(svc companion.Service, cfg companion.Config, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		svc:    svc,
		cfg:    cfg,
		logger: logger.With("component", "http.handler"),
	}
}

type webviewClosedRequest struct {
	Response string `json:"response"`
}

type appMessageRequest struct {
	Payload map[string]any `json:"payload"`
}

// Ready handles the device ready event.
func (h *EventHandler) Ready(c *gin.Context) {
	if err := h.svc.Ready(c.Request.Context()); err != nil {
		abortWithError(c, eventError(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// ShowConfiguration returns the configuration page and asks the device side to open it.
func (h *EventHandler) ShowConfiguration(c *gin.Context) {
	target, err := h.svc.ShowConfiguration(c.Request.Context())
	if err != nil {
		abortWithError(c, eventError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": target})
}

// Configure redirects a browser straight to the configuration page. Nothing
// is sent to the device.
func (h *EventHandler) Configure(c *gin.Context) {
	target, err := companion.ConfigurationURL(h.cfg.ConfigPageURL, h.cfg.AppVersion)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "invalid_config_page", errMessage(err), err))
		return
	}
	c.Redirect(http.StatusFound, target)
}

// WebviewClosed relays the configuration page result.
func (h *EventHandler) WebviewClosed(c *gin.Context) {
	var req webviewClosedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.svc.WebviewClosed(c.Request.Context(), req.Response); err != nil {
		abortWithError(c, eventError(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// AppMessage handles a message sent by the watchface.
func (h *EventHandler) AppMessage(c *gin.Context) {
	var req appMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	payload := appmessage.Payload(req.Payload)
	if payload == nil {
		payload = appmessage.Payload{}
	}
	if err := h.svc.AppMessage(c.Request.Context(), payload); err != nil {
		abortWithError(c, eventError(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// Status reports the last computed sun times and the invert preference.
func (h *EventHandler) Status(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		abortWithError(c, eventError(err))
		return
	}
	c.JSON(http.StatusOK, snap)
}

func eventError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidConfiguration):
		return NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidConfiguration, errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeStopped):
		return NewHTTPError(http.StatusServiceUnavailable, apperrors.CodeStopped, errMessage(err), err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewHTTPError(http.StatusGatewayTimeout, "event_timeout", "event was not handled in time", err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "event_failed", errMessage(err), err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
