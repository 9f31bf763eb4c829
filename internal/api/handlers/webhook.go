package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/shopify-admin/internal/metrics"
	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

const (
	topicHeader     = "X-Shopify-Topic"
	shopHeader      = "X-Shopify-Shop-Domain"
	webhookIDHeader = "X-Shopify-Webhook-Id"
)

// WebhookHandler verifies inbound webhook deliveries.
type WebhookHandler struct {
	client  ShopClient
	maxBody int64
	log     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. Bodies larger than maxBody
// bytes are rejected before verification.
func NewWebhookHandler(client ShopClient, maxBody int64, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{client: client, maxBody: maxBody, log: log}
}

// Receive reads the raw body of a delivery and checks its HMAC header.
func (h *WebhookHandler) Receive(c echo.Context) error {
	req := c.Request()

	topic := req.Header.Get(topicHeader)
	if topic == "" {
		topic = c.Param("topic")
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, h.maxBody+1))
	if err != nil {
		metrics.WebhooksReceivedTotal.WithLabelValues(topic, "read_error").Inc()
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "reading body"})
	}
	if int64(len(body)) > h.maxBody {
		metrics.WebhooksReceivedTotal.WithLabelValues(topic, "too_large").Inc()
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large"})
	}

	if err := h.client.VerifyBody(shopify.RequestHeaders{Request: req}, body); err != nil {
		status, result := webhookStatus(err)
		metrics.WebhooksReceivedTotal.WithLabelValues(topic, result).Inc()
		h.log.Warn("webhook rejected",
			"topic", topic,
			"shop", req.Header.Get(shopHeader),
			"reason", result,
		)
		return c.JSON(status, ErrorResponse{Error: err.Error()})
	}

	metrics.WebhooksReceivedTotal.WithLabelValues(topic, "accepted").Inc()
	h.log.Info("webhook received",
		"topic", topic,
		"shop", req.Header.Get(shopHeader),
		"webhook_id", req.Header.Get(webhookIDHeader),
		"bytes", len(body),
	)
	return c.JSON(http.StatusOK, StatusResponse{Status: "accepted"})
}

func webhookStatus(err error) (status int, result string) {
	switch {
	case errors.Is(err, shopify.ErrSignatureMismatch):
		return http.StatusUnauthorized, "invalid"
	case errors.Is(err, shopify.ErrSecretNotConfigured):
		return http.StatusInternalServerError, "no_secret"
	default:
		return http.StatusBadRequest, "missing"
	}
}
