package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/publisher"
)

// ArtifactOpener verifies a signed artifact URL and returns the object.
type ArtifactOpener interface {
	Open(key, expires, signature string) ([]byte, error)
}

// ArtifactHandler serves objects written by the local store.
type ArtifactHandler struct {
	store ArtifactOpener
}

func NewArtifactHandler(store ArtifactOpener) *ArtifactHandler {
	return &ArtifactHandler{store: store}
}

func (h *ArtifactHandler) Register(r gin.IRoutes) {
	r.GET("/artifacts/*key", h.download)
}

func (h *ArtifactHandler) download(c *gin.Context) {
	body, err := h.store.Open(c.Param("key"), c.Query("expires"), c.Query("signature"))
	switch {
	case err == nil:
		c.Header("Cache-Control", "private, no-store")
		c.Data(http.StatusOK, publisher.ContentType, body)
	case errors.Is(err, publisher.ErrURLExpired), errors.Is(err, publisher.ErrInvalidSignature):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Access denied."})
	case errors.Is(err, publisher.ErrArtifactNotFound), errors.Is(err, publisher.ErrInvalidKey):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not found."})
	default:
		logging.New(c.Request.Context()).LogError("download_artifact", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error."})
	}
}
