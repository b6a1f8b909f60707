package material

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the training-material API.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	materials := r.Group("/materials")
	{
		materials.GET("", h.List)              // GET /api/v1/materials?type=...&category=...&search=...
		materials.GET("/stats", h.Stats)       // GET /api/v1/materials/stats
		materials.GET("/:id", h.Get)           // GET /api/v1/materials/:id
		materials.GET("/:id/download", h.Download)
		materials.POST("", h.Create)           // link-only materials
		materials.POST("/upload", h.Upload)    // multipart batch upload
		materials.PUT("/:id", h.Update)
		materials.DELETE("/:id", h.Delete)
	}
}

// RegisterFileRoutes mounts the signed file-serving endpoint at the router
// root, outside the API prefix, so stored references resolve directly.
func RegisterFileRoutes(r *gin.Engine, h *Handler) {
	r.GET("/files/*path", h.ServeFile)
}
