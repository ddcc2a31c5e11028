package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/dfryer1193/savergallery/gallery/application"
	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// InvokeMethod runs a saver_gallery channel call. The body is the argument map; the
// response is the outcome map, whether the save succeeded or not.
func (h *handlers) InvokeMethod(c *gin.Context) {
	method := c.Param("method")
	if !application.Supports(method) {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "not implemented"})
		return
	}

	values := map[string]any{}
	if err := c.ShouldBindJSON(&values); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, domain.Failed(domain.KindInvalidArgument, "malformed arguments: "+err.Error()).ToMap())
		return
	}

	task, err := h.dispatcher.Submit(method, values)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrNotImplemented):
			c.JSON(http.StatusNotImplemented, gin.H{"error": "not implemented"})
		case errors.Is(err, application.ErrDispatcherClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	outcome, err := task.Wait(c.Request.Context())
	if err != nil {
		// the save keeps running; only this caller stops waiting
		log.Warn().Err(err).Str("task", task.ID).Msg("Caller went away before the save finished")
		c.AbortWithStatus(http.StatusRequestTimeout)
		return
	}

	c.JSON(http.StatusOK, outcome.ToMap())
}
