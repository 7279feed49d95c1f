package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/metadata/googlebooks"
)

// GoogleBooksClientHandle wraps the Google Books client with shutdown capability.
type GoogleBooksClientHandle struct {
	*googlebooks.Client
}

// Shutdown implements do.Shutdownable.
func (h *GoogleBooksClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideGoogleBooksClient provides the Google Books metadata client.
func ProvideGoogleBooksClient(i do.Injector) (*GoogleBooksClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var opts []googlebooks.Option
	if cfg.Metadata.GoogleBooksAPIKey != "" {
		opts = append(opts, googlebooks.WithAPIKey(cfg.Metadata.GoogleBooksAPIKey))
	}

	client := googlebooks.NewClient(log.Logger, opts...)

	return &GoogleBooksClientHandle{Client: client}, nil
}
