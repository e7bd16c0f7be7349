package source

import (
	"encoding/json"

	"github.com/theirongolddev/finlens/internal/model"
)

// RawEntry is a single line in a JSONL transaction export.
type RawEntry struct {
	ID       string      `json:"id,omitempty"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category,omitempty"`
	Note     string      `json:"note,omitempty"`
	Date     string      `json:"date,omitempty"` // RFC 3339 or YYYY-MM-DD
}

// Record is one parsed transaction and where it came from.
type Record struct {
	ExternalID string // entry id, or <file>:<line> when the entry has none
	Line       int
	Input      model.TransactionInput
}

// DiscoveredFile is an import file found during scanning.
type DiscoveredFile struct {
	Path string
	Name string // base name, used in derived ids
}
