package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"

	_ "golang.org/x/image/webp"
)

const (
	// maxImageDim bounds stored images; anything larger gets downscaled.
	maxImageDim = 1200

	// maxUploadBytes caps accepted upload sizes (10 MiB).
	maxUploadBytes = 10 << 20

	jpegQuality = 85
)

// ProcessResult describes a stored image.
type ProcessResult struct {
	ID       string
	Hash     string
	BlurHash string
}

// Processor validates, normalizes, and stores uploaded images.
// All images are re-encoded as JPEG regardless of upload format.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates an image processor backed by the given storage.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger.With("component", "image_processor"),
	}
}

// Process decodes an uploaded image, downscales it if oversized, re-encodes
// it as JPEG, and saves it under the given ID. Accepts JPEG, PNG, GIF, and
// WebP uploads. Returns the content hash and blurhash placeholder.
func (p *Processor) Process(id string, data []byte) (*ProcessResult, error) {
	if id == "" {
		return nil, fmt.Errorf("ID cannot be empty")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", maxUploadBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	p.logger.Debug("processing image",
		"id", id,
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	img = scaleDown(img, maxImageDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	if err := p.storage.Save(id, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	hash, err := p.storage.Hash(id)
	if err != nil {
		return nil, fmt.Errorf("failed to hash image: %w", err)
	}

	blur, err := ComputeBlurHash(img)
	if err != nil {
		// A missing placeholder is cosmetic, the stored image is intact.
		p.logger.Warn("failed to compute blurhash", "id", id, "error", err)
		blur = ""
	}

	return &ProcessResult{
		ID:       id,
		Hash:     hash,
		BlurHash: blur,
	}, nil
}

// Delete removes a stored image.
func (p *Processor) Delete(id string) error {
	return p.storage.Delete(id)
}
