// Package handlers defines a pluggable content validation system: a
// Strategy-pattern interface that validates one of the protocol's two
// concrete content variants (text or image URL) before State.AddEntry
// indexes and broadcasts the message.
//
// WHY keep the interface instead of a type switch: a switch on content
// variant grows unmanageably as variants are added, and isolating each
// variant's validation in its own type keeps each one independently
// testable.
package handlers

import "github.com/clipharbor/hub/shared/models"

// ContentValidator validates one clipboard content variant of an inbound
// ClipboardRecord before it is accepted for broadcast/indexing.
type ContentValidator interface {
	// CanHandle reports whether this validator owns rec's active content
	// variant.
	CanHandle(rec models.ClipboardRecord) bool

	// Validate performs variant-specific validation (non-empty, size
	// limits, referenced-resource existence). A non-nil error means the
	// record must be dropped; the session logs the drop and continues.
	Validate(rec models.ClipboardRecord) error

	// Name identifies the validator for logging.
	Name() string
}
