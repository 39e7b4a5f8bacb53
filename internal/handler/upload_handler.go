package handler

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const maxUploadSize = 5 * 1024 * 1024

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// UploadHandler stores custom-fit images on local disk.
type UploadHandler struct {
	dir string
	now func() time.Time
}

// NewUploadHandler creates an UploadHandler writing below uploadDir/custom-fit.
func NewUploadHandler(uploadDir string) *UploadHandler {
	return &UploadHandler{dir: filepath.Join(uploadDir, "custom-fit"), now: time.Now}
}

// CustomFit handles POST /api/upload/custom-fit with a multipart "image" field.
func (h *UploadHandler) CustomFit(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded", CodeValidation)
	}
	if fh.Size > maxUploadSize {
		return errorJSON(c, fiber.StatusBadRequest, "File too large, maximum size is 5MB", CodeValidation)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return errorJSON(c, fiber.StatusBadRequest, "Only image files allowed", CodeValidation)
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return respondError(c, fmt.Errorf("create upload dir: %w", err), "upload")
	}

	name := fmt.Sprintf("%d-%d%s", h.now().UnixMilli(), rand.Int64N(1_000_000_000), ext)
	if err := c.SaveFile(fh, filepath.Join(h.dir, name)); err != nil {
		return respondError(c, fmt.Errorf("save upload: %w", err), "upload")
	}

	log.Info().Str("file", name).Int64("size", fh.Size).Msg("custom-fit image uploaded")
	return c.JSON(fiber.Map{
		"success":  true,
		"imageUrl": "/uploads/custom-fit/" + name,
	})
}
