package handlers

import (
	"fmt"

	"github.com/clipharbor/hub/shared/models"
)

// MaxTextLength is the maximum allowed text content length in bytes.
// WHY: Prevents abuse and memory issues from extremely large clipboard
// contents. 1MB is generous for text while protecting against accidental
// binary pastes.
const MaxTextLength = 1 * 1024 * 1024 // 1 MB

// TextValidator validates the text content variant: emptiness and
// size-limit checks over the ClipboardRecord's text field.
type TextValidator struct{}

func NewTextValidator() *TextValidator { return &TextValidator{} }

func (h *TextValidator) CanHandle(rec models.ClipboardRecord) bool {
	return !rec.IsImage()
}

// Validate rejects empty clipboard entries and oversized text.
func (h *TextValidator) Validate(rec models.ClipboardRecord) error {
	if rec.Text == "" {
		return fmt.Errorf("text content is empty")
	}
	if len(rec.Text) > MaxTextLength {
		return fmt.Errorf("text content exceeds maximum length of %d bytes", MaxTextLength)
	}
	return nil
}

func (h *TextValidator) Name() string { return "text" }
