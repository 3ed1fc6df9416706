package handlers

import (
	"strings"
	"testing"

	"github.com/clipharbor/hub/shared/models"
)

func TestTextValidatorCanHandle(t *testing.T) {
	h := NewTextValidator()
	if !h.CanHandle(models.ClipboardRecord{Text: "hi"}) {
		t.Fatalf("text record should be handled by TextValidator")
	}
	if h.CanHandle(models.ClipboardRecord{ImageURL: "a/x.png"}) {
		t.Fatalf("image record should not be handled by TextValidator")
	}
}

func TestTextValidatorRejectsEmpty(t *testing.T) {
	h := NewTextValidator()
	if err := h.Validate(models.ClipboardRecord{Text: ""}); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestTextValidatorAcceptsAtLimit(t *testing.T) {
	h := NewTextValidator()
	text := strings.Repeat("a", MaxTextLength)
	if err := h.Validate(models.ClipboardRecord{Text: text}); err != nil {
		t.Fatalf("text at the max length should be accepted: %v", err)
	}
}

func TestTextValidatorRejectsOverLimit(t *testing.T) {
	h := NewTextValidator()
	text := strings.Repeat("a", MaxTextLength+1)
	if err := h.Validate(models.ClipboardRecord{Text: text}); err == nil {
		t.Fatalf("expected error for text over the max length")
	}
}

func TestTextValidatorName(t *testing.T) {
	if NewTextValidator().Name() != "text" {
		t.Fatalf("unexpected validator name")
	}
}
