package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/gallery/persistence"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type mediaResponse struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	RelativePath string    `json:"relativePath"`
	MimeType     string    `json:"mimeType"`
	Collection   string    `json:"collection"`
	Size         int64     `json:"size"`
	DateAdded    time.Time `json:"dateAdded"`
	DateModified time.Time `json:"dateModified"`
}

func toMediaResponse(e *domain.MediaEntry) mediaResponse {
	return mediaResponse{
		ID:           e.ID,
		DisplayName:  e.DisplayName,
		RelativePath: e.RelativePath,
		MimeType:     e.MimeType,
		Collection:   e.Collection.String(),
		Size:         e.Size,
		DateAdded:    e.DateAdded,
		DateModified: e.DateModified,
	}
}

func (h *handlers) ListMedia(c *gin.Context) {
	limit, err := cast.ToIntE(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := cast.ToIntE(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	entries, err := h.index.List(c.Request.Context(), c.Query("relativePath"), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list media")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
		return
	}

	media := make([]mediaResponse, 0, len(entries))
	for _, e := range entries {
		media = append(media, toMediaResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"media": media, "limit": limit, "offset": offset})
}

func (h *handlers) GetMedia(c *gin.Context) {
	entry, err := h.index.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, persistence.ErrEntryNotFound) || (err == nil && entry.Pending) {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", c.Param("id")).Msg("Failed to get media")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get media"})
		return
	}
	c.JSON(http.StatusOK, toMediaResponse(entry))
}

func (h *handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": h.store.Name()})
}
