package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/service"
)

// AssetHandler handles catalog and upload requests
type AssetHandler struct {
	components   *bootstrap.Components
	assetService *service.AssetService
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(c *container.Container) *AssetHandler {
	return &AssetHandler{
		components:   c.Components,
		assetService: c.AssetService,
	}
}

// ListAssets lists assets newest first
// GET /api/assets?q=sun&tag=AI&page=0&pageSize=20
func (h *AssetHandler) ListAssets(c echo.Context) error {
	ctx := c.Request().Context()

	page := queryInt(c, "page", 0)
	pageSize := queryInt(c, "pageSize", 0)

	filter, page, pageSize := h.assetService.Page(c.QueryParam("q"), c.QueryParam("tag"), page, pageSize)

	assets, err := h.assetService.ListAssets(ctx, filter)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	views := make([]interface{}, 0, len(assets))
	for _, a := range assets {
		views = append(views, a.MetadataView())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":     views,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetAsset returns asset metadata. The content reference is never included.
// GET /api/assets/:id
func (h *AssetHandler) GetAsset(c echo.Context) error {
	asset, err := h.assetService.GetAsset(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": asset.MetadataView(),
	})
}

// ListTags returns every tag in use, sorted
// GET /api/tags
func (h *AssetHandler) ListTags(c echo.Context) error {
	tags, err := h.assetService.ListTags(c.Request().Context())
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": tags,
	})
}

// Upload creates an asset from a multipart form
// POST /api/assets/upload
func (h *AssetHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	in := service.CreateAssetInput{
		Title:         c.FormValue("title"),
		Description:   c.FormValue("description"),
		AssetType:     c.FormValue("assetType"),
		Price:         c.FormValue("price"),
		Tags:          service.ParseTags(c.FormValue("tags")),
		URL:           c.FormValue("url"),
		CreatorID:     c.FormValue("creatorId"),
		CreatorWallet: c.FormValue("creatorWallet"),
	}

	file, err := c.FormFile("file")
	switch {
	case err == nil:
		data, err := readUpload(file, h.components.Config.Storage.UploadMaxBytes)
		if err != nil {
			return respondError(c, h.components.Logger, err)
		}
		in.Content = data
		in.HasContent = true
		in.OriginalName = file.Filename
		in.MimeType = file.Header.Get(echo.HeaderContentType)
	case errors.Is(err, http.ErrMissingFile):
		// LINK uploads carry no file
	default:
		return badRequest(c, "invalid multipart form")
	}

	asset, err := h.assetService.CreateAsset(ctx, in)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"data": asset.MetadataView(),
	})
}

// UploadBase64 creates an asset from a JSON body with inline content
// POST /api/assets/upload-base64
func (h *AssetHandler) UploadBase64(c echo.Context) error {
	var req service.UploadPayload
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	in, err := req.Input()
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	asset, err := h.assetService.CreateAsset(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"data": asset.MetadataView(),
	})
}

func readUpload(file *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, apperrors.Newf(apperrors.ErrValidation, "file exceeds %d bytes", maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	var r io.Reader = src
	if maxBytes > 0 {
		r = io.LimitReader(src, maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, apperrors.Newf(apperrors.ErrValidation, "file exceeds %d bytes", maxBytes)
	}
	return data, nil
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
