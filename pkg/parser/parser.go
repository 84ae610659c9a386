package parser

import (
	"fmt"
	"sync"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// ParseFunc is a pluggable, site-specific parser for one FileKind. It
// receives the raw page bytes and returns the fully tagged Event it
// produces (FileParsed, with the matching ParsedAlbum/ParsedChart/
// ParsedSearchResults variant already populated).
type ParseFunc func(fileName types.FileName, data []byte) (types.Event, error)

// Registry holds one ParseFunc per FileKind and dispatches incoming
// pages to the right one. Safe for concurrent Register/Dispatch calls,
// since FileSaved handlers may run with subscriber concurrency > 1.
type Registry struct {
	mu      sync.RWMutex
	parsers map[types.FileKind]ParseFunc
}

// NewRegistry creates an empty Registry. Every FileKind starts
// unsupported until a caller Registers a parser for it.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[types.FileKind]ParseFunc)}
}

// Register binds fn as the parser for kind, replacing any previous
// registration.
func (r *Registry) Register(kind types.FileKind, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[kind] = fn
}

// Dispatch maps (fileName.Kind, data) to a tagged Event: FileParsed on
// success, FileParseFailed if the kind has no registered parser or the
// parser itself errors. It never panics and never blocks; Dispatch is
// the pure function spec.md §2 describes for Parser Dispatch.
func (r *Registry) Dispatch(fileName types.FileName, data []byte) types.Event {
	r.mu.RLock()
	fn, ok := r.parsers[fileName.Kind]
	r.mu.RUnlock()

	if !ok {
		metrics.FilesParsedTotal.WithLabelValues(string(fileName.Kind), "unsupported").Inc()
		return failed(fileName, fmt.Sprintf("unsupported file kind: %s", fileName.Kind))
	}

	event, err := fn(fileName, data)
	if err != nil {
		metrics.FilesParsedTotal.WithLabelValues(string(fileName.Kind), "failed").Inc()
		return failed(fileName, err.Error())
	}

	metrics.FilesParsedTotal.WithLabelValues(string(fileName.Kind), "success").Inc()
	return event
}

func failed(fileName types.FileName, reason string) types.Event {
	return types.Event{
		Kind: types.EventFileParseFailed,
		FileParseFailed: &types.FileParseFailed{
			FileName: fileName,
			Reason:   reason,
		},
	}
}

// ErrUnsupportedKind classifies a Dispatch failure caused by a missing
// parser registration, for callers that want to distinguish it from a
// registered parser's own error. Per spec.md §9's open question, this is
// deliberately non-retryable.
func ErrUnsupportedKind(kind types.FileKind) error {
	return luterr.Validation(fmt.Sprintf("unsupported file kind: %s", kind), nil)
}
