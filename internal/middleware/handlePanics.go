package middleware

import (
	"fmt"
	"net/http"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandlePanics turns a panic in a handler into a failed outcome so channel callers
// always get a result map back.
func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		msg := fmt.Sprint(recovered)
		if err, ok := recovered.(error); ok {
			msg = err.Error()
		}
		log.Error().Str("path", c.Request.URL.Path).Str("panic", msg).Msg("Recovered from handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.Failed(domain.KindWriteFailed, msg).ToMap())
	}
}
