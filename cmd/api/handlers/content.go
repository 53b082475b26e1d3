package handlers

import (
	"encoding/base64"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/gate"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/payment"
	"github.com/poseidon/assetmarket/common/service"
)

const (
	headerPayment         = "X-PAYMENT"
	headerPaymentResponse = "X-PAYMENT-RESPONSE"
)

// ContentHandler serves asset content through the delivery gate
type ContentHandler struct {
	components   *bootstrap.Components
	gate         *gate.Gate
	assetService *service.AssetService
}

// NewContentHandler creates a new content handler
func NewContentHandler(c *container.Container) *ContentHandler {
	return &ContentHandler{
		components:   c.Components,
		gate:         c.Gate,
		assetService: c.AssetService,
	}
}

// GetContent streams the asset once payment has been verified
// GET /api/assets/:id/content
func (h *ContentHandler) GetContent(c echo.Context) error {
	ctx := c.Request().Context()

	out, err := h.gate.Deliver(ctx, gate.Request{
		AssetID:  c.Param("id"),
		Proof:    c.Request().Header.Get(headerPayment),
		Resource: c.Request().URL.Path,
	})
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	if out.State == gate.StateChallenged {
		return c.JSON(http.StatusPaymentRequired, out.PaymentRequired)
	}

	if out.Settlement != nil {
		encoded, err := payment.EncodeSettlement(out.Settlement)
		if err == nil {
			c.Response().Header().Set(headerPaymentResponse, encoded)
		}
	}

	asset := out.Asset
	if asset.Type.IsLink() {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data": linkView(asset),
		})
	}

	if name := asset.OriginalName; name != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			mime.FormatMediaType("inline", map[string]string{"filename": name}))
	}
	return c.Blob(http.StatusOK, contentType(asset), out.Content)
}

// GetBase64 returns inline content without payment. Only trusted callers
// should reach it; it is refused when payment is always required.
// GET /api/assets/:id/base64
func (h *ContentHandler) GetBase64(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.gate.AllowsInlineBypass() {
		return respondError(c, h.components.Logger,
			apperrors.New(apperrors.ErrForbidden, "inline retrieval is disabled while payment is always required"))
	}

	asset, err := h.assetService.GetAsset(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	if asset.Type.IsLink() {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data": linkView(asset),
		})
	}

	content, err := h.assetService.LoadContent(ctx, asset)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"type":     asset.Type,
			"mimeType": contentType(asset),
			"base64":   base64.StdEncoding.EncodeToString(content),
		},
	})
}

func linkView(asset *models.Asset) map[string]interface{} {
	url := ""
	if asset.URL != nil {
		url = *asset.URL
	}
	return map[string]interface{}{
		"type": models.KindLink,
		"url":  url,
	}
}

func contentType(asset *models.Asset) string {
	if asset.MimeType == "" {
		return echo.MIMEOctetStream
	}
	return asset.MimeType
}

