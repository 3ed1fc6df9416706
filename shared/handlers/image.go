package handlers

import (
	"fmt"

	"github.com/clipharbor/hub/shared/models"
)

// ImageURLValidator validates the image-url content variant: the URL must
// be non-empty and must reference a blob that actually exists on disk. An
// image URL with a missing file is dropped with a log.
//
// WHY Exists is injected rather than this validator owning a blob store
// reference: keeps the handlers package free of a dependency on
// hub/blobstore, matching the rest of this package's small, narrowly
// scoped handler files.
type ImageURLValidator struct {
	Exists func(relativeURL string) bool
}

func NewImageURLValidator(exists func(relativeURL string) bool) *ImageURLValidator {
	return &ImageURLValidator{Exists: exists}
}

func (h *ImageURLValidator) CanHandle(rec models.ClipboardRecord) bool {
	return rec.IsImage()
}

func (h *ImageURLValidator) Validate(rec models.ClipboardRecord) error {
	if rec.ImageURL == "" {
		return fmt.Errorf("image url is empty")
	}
	if h.Exists != nil && !h.Exists(rec.ImageURL) {
		return fmt.Errorf("image not found: %s", rec.ImageURL)
	}
	return nil
}

func (h *ImageURLValidator) Name() string { return "image-url" }
