package render

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

// JSONRenderer writes the structure JSON of a cleaned document. Whether it
// is the plain or the interactive shape is decided when the document is
// processed.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Render(doc *core.CleanedDocument) ([]byte, error) {
	if doc.Structure == nil {
		return nil, errors.New("document has no structure")
	}
	data, err := json.MarshalIndent(doc.Structure, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
