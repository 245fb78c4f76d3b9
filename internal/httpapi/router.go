// Package httpapi wires the gin router: upload endpoints, extraction job
// lookup, health probe, and the chat socket upgrade.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/docuchat/gateway/internal/common"
	"github.com/docuchat/gateway/internal/files"
	"github.com/docuchat/gateway/internal/httpapi/handlers"
	"github.com/docuchat/gateway/internal/httpapi/middleware"
)

func NewRouter(filesSvc *files.Service, socket http.Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(filesSvc, log)

	r.GET("/healthz", h.Healthz)

	// The socket does its own upgrade; gin only routes it.
	r.GET("/chat-socket", gin.WrapH(socket))

	api := r.Group("/api/v1")
	api.POST("/uploadfile/", h.UploadFiles)
	api.POST("/uploadfile/async", h.UploadFilesAsync)
	api.GET("/files/jobs/:job_id", h.GetExtractionJob)

	return r
}
