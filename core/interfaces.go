// Package core defines the pipeline interfaces for htmlcleaner.
// Each stage of the pipeline is a clean, testable interface; the
// structural engine itself lives in core/transform.
package core

import (
	"context"

	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
)

// SourceDocument holds the raw HTML of a loaded document and where it came from.
type SourceDocument struct {
	// Name is the file name the document is stored under, e.g. "contract.html".
	Name       string
	Location   string
	StatusCode int
	HTML       string
}

// DocumentMetadata describes a cleaned document for renderers and writers.
type DocumentMetadata struct {
	Source      string `json:"source"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Language    string `json:"language"`
	ProcessedAt string `json:"processed_at"` // ISO8601
}

// CleanedDocument is the outcome of one pipeline run.
type CleanedDocument struct {
	Meta DocumentMetadata
	// HTML is the transformed <html> element as returned by the engine.
	HTML string
	// Markdown is the body of HTML converted to Markdown.
	Markdown  string
	Structure *transform.Structure
	// FileMetadata is the engine metadata embedded into saved HTML.
	FileMetadata transform.Metadata
	Result       transform.Result
}

// Loader reads raw HTML from a file path or URL.
type Loader interface {
	Load(ctx context.Context, ref string) (*SourceDocument, error)
}

// Extractor pulls the exportable body out of a cleaned document.
type Extractor interface {
	Extract(html string) (string, error)
}

// Normalizer converts cleaned HTML into Markdown.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Renderer converts a cleaned document into a final output format.
type Renderer interface {
	Render(doc *CleanedDocument) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".html", ".pdf").
	Extension() string
}
