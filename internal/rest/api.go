package rest

import (
	"github.com/dfryer1193/savergallery/gallery/application"
	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	dispatcher *application.Dispatcher
	index      domain.MediaIndex
	store      domain.MediaStore
}

func NewApi(router *gin.Engine, dispatcher *application.Dispatcher, index domain.MediaIndex, store domain.MediaStore) {
	h := &handlers{dispatcher: dispatcher, index: index, store: store}

	router.GET("/health", h.Health)

	channels := router.Group("channels")
	{
		channels.POST("/saver_gallery/:method", h.InvokeMethod)
	}

	gallery := router.Group("gallery")
	{
		gallery.GET("/media", h.ListMedia)
		gallery.GET("/media/:id", h.GetMedia)
	}
}
