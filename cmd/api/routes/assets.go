package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/cmd/api/handlers"
	"github.com/poseidon/assetmarket/common/middleware"
)

// RegisterAssetRoutes registers catalog, upload and content routes
func RegisterAssetRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAssetHandler(c)
	content := handlers.NewContentHandler(c)
	txs := handlers.NewTransactionHandler(c)

	uploadLimit := middleware.UploadRateLimitMiddleware(c.Limiter, c.Components.Config.RateLimit.UploadsPerMinute)

	assets := e.Group("/api/assets")
	{
		assets.GET("", h.ListAssets)                               // GET /api/assets?q=&tag=&page=&pageSize=
		assets.POST("/upload", h.Upload, uploadLimit)              // POST /api/assets/upload (multipart)
		assets.POST("/upload-base64", h.UploadBase64, uploadLimit) // POST /api/assets/upload-base64
		assets.GET("/:id", h.GetAsset)                             // GET /api/assets/{id}
		assets.GET("/:id/content", content.GetContent)             // GET /api/assets/{id}/content (x402 gated)
		assets.GET("/:id/base64", content.GetBase64)               // GET /api/assets/{id}/base64
		assets.GET("/:id/transactions", txs.ListByAsset)           // GET /api/assets/{id}/transactions
	}

	e.GET("/api/tags", h.ListTags) // GET /api/tags
}
