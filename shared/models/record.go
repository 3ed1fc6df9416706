// Package models defines the wire and index-facing data structures shared
// between every component of the hub: the session manager, the index engine,
// and the HTTP surface.
package models

import (
	"encoding/json"
	"fmt"
)

// ClipboardRecord is the content of a single clipboard event as it appears
// on the wire and in the index. Exactly one of Text/ImageURL is set; Id is
// absent on first publish and present on every indexed or retrieved copy
// (it is the server-assigned content digest).
//
// WHY a flattened tagged union instead of an enum type: the wire format
// lower-cases and flattens the content variant into the record itself
// (`{"source":"a","text":"hi"}` or `{"source":"a","imageurl":"a/x.png"}`)
// rather than nesting it under a tag field. Go has no native tagged
// union, so the two variant fields are carried side by side and
// MarshalJSON/UnmarshalJSON enforce "exactly one is set".
type ClipboardRecord struct {
	ID       string `json:"id,omitempty"`
	Source   string `json:"source"`
	Text     string `json:"-"`
	ImageURL string `json:"-"`
}

// IsImage reports whether this record carries an image URL rather than text.
func (r ClipboardRecord) IsImage() bool {
	return r.ImageURL != ""
}

// recordWire is the actual on-the-wire shape; content variants are
// flattened lowercase fields alongside id/source.
type recordWire struct {
	ID       string `json:"id,omitempty"`
	Source   string `json:"source"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageurl,omitempty"`
}

// MarshalJSON flattens the active content variant into the wire shape.
func (r ClipboardRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordWire{
		ID:       r.ID,
		Source:   r.Source,
		Text:     r.Text,
		ImageURL: r.ImageURL,
	})
}

// UnmarshalJSON rejects records that carry neither content variant and
// records that carry both; §3 invariant 2 requires exactly one.
func (r *ClipboardRecord) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Source == "" {
		return fmt.Errorf("clipboard record: missing source")
	}
	if w.Text == "" && w.ImageURL == "" {
		return fmt.Errorf("clipboard record: missing content (text or imageurl)")
	}
	if w.Text != "" && w.ImageURL != "" {
		return fmt.Errorf("clipboard record: both text and imageurl set")
	}
	r.ID = w.ID
	r.Source = w.Source
	r.Text = w.Text
	r.ImageURL = w.ImageURL
	return nil
}

// ClipboardMessage is a ClipboardRecord plus the server-visible timestamp
// (Unix seconds). The timestamp is assigned by the hub only when the client
// omits it; clients that already know their own clock are trusted.
type ClipboardMessage struct {
	Entry     ClipboardRecord `json:"-"`
	Timestamp int64           `json:"timestamp"`
}

type messageWire struct {
	recordWire
	Timestamp int64 `json:"timestamp"`
}

// MarshalJSON flattens Entry's fields alongside Timestamp, mirroring the
// original protocol's `#[serde(flatten)] entry: ServerClipboardRecord`.
func (m ClipboardMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageWire{
		recordWire: recordWire{
			ID:       m.Entry.ID,
			Source:   m.Entry.Source,
			Text:     m.Entry.Text,
			ImageURL: m.Entry.ImageURL,
		},
		Timestamp: m.Timestamp,
	})
}

func (m *ClipboardMessage) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Source == "" {
		return fmt.Errorf("clipboard message: missing source")
	}
	if w.Text == "" && w.ImageURL == "" {
		return fmt.Errorf("clipboard message: missing content (text or imageurl)")
	}
	if w.Text != "" && w.ImageURL != "" {
		return fmt.Errorf("clipboard message: both text and imageurl set")
	}
	m.Entry = ClipboardRecord{ID: w.ID, Source: w.Source, Text: w.Text, ImageURL: w.ImageURL}
	m.Timestamp = w.Timestamp
	return nil
}

// QueryParams is the parsed form of the /api/query request, decoupled from
// the raw URL query string so the index engine never touches net/http.
type QueryParams struct {
	Q        string
	From     []string
	Begin    *int64
	End      *int64
	Size     int
	Skip     int
	SortByScore bool
}

// QueryResult is the envelope returned by /api/query: total match count
// (before pagination), the skip that was applied, and the page of data.
type QueryResult struct {
	Total int                `json:"total"`
	Skip  int                `json:"skip"`
	Data  []ClipboardMessage `json:"data"`
}
