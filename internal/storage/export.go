package storage

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/generator"
)

type ExportData struct {
	Meta   RunMetadata       `json:"metadata"`
	Events []generator.Event `json:"events"`
}

// ExportJSON writes a run as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, events []generator.Event) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(ExportData{Meta: meta, Events: events}), "exporting run")
}
