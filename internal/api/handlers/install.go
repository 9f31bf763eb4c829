package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

// InstallHandler drives the OAuth install flow: it redirects merchants to the
// authorize page and completes the code exchange on the way back.
type InstallHandler struct {
	client      ShopClient
	scopes      []string
	redirectURL string
	log         *slog.Logger
}

// NewInstallHandler creates a new InstallHandler.
func NewInstallHandler(
	client ShopClient,
	scopes []string,
	redirectURL string,
	log *slog.Logger,
) *InstallHandler {
	return &InstallHandler{
		client:      client,
		scopes:      scopes,
		redirectURL: redirectURL,
		log:         log,
	}
}

// Install redirects to the shop's OAuth authorize page.
func (h *InstallHandler) Install(c echo.Context) error {
	target, err := h.client.AuthURL(h.scopes, h.redirectURL)
	if err != nil {
		h.log.Error("building authorize URL", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "install is not configured"})
	}
	return c.Redirect(http.StatusFound, target)
}

// Callback verifies the redirect Shopify sends after the merchant approves
// the app and exchanges its code for an access token.
func (h *InstallHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := h.client.GetToken(ctx, shopify.RequestQuery{Request: c.Request()}); err != nil {
		status, msg := callbackStatus(err)
		h.log.Warn("install callback failed",
			"status", status,
			"error", err,
		)
		return c.JSON(status, ErrorResponse{Error: msg})
	}

	h.log.Info("app installed", "shop", h.client.Shop())
	return c.JSON(http.StatusOK, StatusResponse{Status: "installed"})
}

func callbackStatus(err error) (int, string) {
	var apiErr *shopify.APIError
	switch {
	case errors.Is(err, shopify.ErrCodeNotFound):
		return http.StatusBadRequest, "missing authorization code"
	case errors.Is(err, shopify.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid signature"
	case errors.Is(err, shopify.ErrSecretNotConfigured):
		return http.StatusInternalServerError, "api secret not configured"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, fmt.Sprintf("token exchange rejected (HTTP %d)", apiErr.StatusCode)
	default:
		return http.StatusBadGateway, "token exchange failed"
	}
}
