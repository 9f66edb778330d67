package handlers

import (
	"io"
	"net/http"

	"photosocial/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc      *services.Services
	tokens   *services.TokenIssuer
	presence *services.PresenceRegistry
	logger   *zap.Logger

	// requireWSToken makes /ws verify a token that belongs to userId.
	requireWSToken bool
}

func New(svc *services.Services, tokens *services.TokenIssuer, presence *services.PresenceRegistry, logger *zap.Logger, requireWSToken bool) *Handler {
	return &Handler{
		svc:            svc,
		tokens:         tokens,
		presence:       presence,
		logger:         logger,
		requireWSToken: requireWSToken,
	}
}

// readImage returns the uploaded file of the multipart field, or nil when
// the field is absent.
func readImage(c *gin.Context, field string) (*services.ImageUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, services.ValidationError("Invalid upload")
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &services.ImageUpload{Filename: header.Filename, Data: data}, nil
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
