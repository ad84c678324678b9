// Package extract converts raw uploaded bytes into normalized plain text,
// one extractor per supported document format.
package extract

import (
	"fmt"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// Extractor converts a raw byte stream of one format into plain text.
type Extractor interface {
	Kind() document.Kind
	Extract(data []byte) (string, error)
}

// Registry maps document kinds to the extractor available for them.
// Capabilities are fixed at construction; a lookup miss is reported as
// a DependencyUnavailable failure rather than discovered lazily.
type Registry struct {
	extractors map[document.Kind]Extractor
}

// NewRegistry builds a registry from the supplied extractors. The last
// extractor registered for a kind wins.
func NewRegistry(extractors ...Extractor) *Registry {
	m := make(map[document.Kind]Extractor, len(extractors))
	for _, e := range extractors {
		m[e.Kind()] = e
	}
	return &Registry{extractors: m}
}

// Default returns a registry with every built-in extractor registered.
func Default() *Registry {
	return NewRegistry(
		TextExtractor{},
		PDFExtractor{},
		DocxExtractor{},
		ExcelExtractor{},
	)
}

// Supports reports whether an extractor is registered for kind.
func (r *Registry) Supports(kind document.Kind) bool {
	_, ok := r.extractors[kind]
	return ok
}

// Extract dispatches to the extractor registered for kind.
func (r *Registry) Extract(kind document.Kind, data []byte) (string, error) {
	e, ok := r.extractors[kind]
	if !ok {
		return "", newError(FailureDependencyUnavailable, kind,
			fmt.Sprintf("no extractor registered for %s documents; this build lacks %s support", kind, kind))
	}
	return e.Extract(data)
}
