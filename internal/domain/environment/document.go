package environment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Document is the externally visible JSON snapshot.
// Field order is alphabetical to match the keys as they appear on disk.
type Document struct {
	EmergencyCallActive   string  `json:"emergency_call_active"`
	HeartRate             float64 `json:"heart_rate"`
	MachineShutdownActive string  `json:"machine_shutdown_active"`
	Temperature           float64 `json:"temperature"`
}

// documentKeys are the exact keys a complete document carries.
//
//nolint:gochecknoglobals // Read-only lookup table.
var documentKeys = []string{
	"emergency_call_active",
	"heart_rate",
	"machine_shutdown_active",
	"temperature",
}

// ErrIncompleteDocument is returned when a document is truncated or lacks a field.
var ErrIncompleteDocument = errors.New("incomplete document")

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ParseDocument decodes raw bytes and checks that every field is present.
func ParseDocument(raw []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteDocument, err)
	}

	for _, key := range documentKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrIncompleteDocument, key)
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	return &doc, nil
}
