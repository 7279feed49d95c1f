package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/media/images"
)

// ImageStorages groups all image storage services.
type ImageStorages struct {
	Covers  *images.Storage
	Avatars *images.Storage
}

// ProvideImageStorages provides all image storage services.
func ProvideImageStorages(i do.Injector) (*ImageStorages, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	covers, err := images.NewStorage(cfg.UploadsPath())
	if err != nil {
		return nil, fmt.Errorf("cover storage: %w", err)
	}

	avatars, err := images.NewStorageWithSubdir(cfg.UploadsPath(), "avatars")
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}

	log.Info("Image storages initialized", "path", cfg.UploadsPath())

	return &ImageStorages{
		Covers:  covers,
		Avatars: avatars,
	}, nil
}

// ImageProcessors groups the upload processors per image kind.
type ImageProcessors struct {
	Covers  *images.Processor
	Avatars *images.Processor
}

// ProvideImageProcessors provides the upload processors for covers and avatars.
func ProvideImageProcessors(i do.Injector) (*ImageProcessors, error) {
	storages := do.MustInvoke[*ImageStorages](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &ImageProcessors{
		Covers:  images.NewProcessor(storages.Covers, log.Logger),
		Avatars: images.NewProcessor(storages.Avatars, log.Logger),
	}, nil
}
