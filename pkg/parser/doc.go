// Package parser implements Parser Dispatch: a pure function mapping
// (page kind, bytes) to a tagged parsed output, plus the subscriber
// adapter that wires it into EventCore's FileSaved -> FileParsed /
// FileParseFailed data flow (spec.md §2).
//
// The actual HTML parsing of site-specific pages is explicitly out of
// scope (spec.md §1): "pluggable parsers yielding a tagged variant of
// parsed outputs" are supplied by the caller as ParseFunc values keyed
// by types.FileKind. This package owns only the dispatch and event
// emission around them.
//
// Per spec.md §9's open question, a FileKind with no registered parser
// produces a FileParseFailed event treated as a non-retryable validation
// failure (ClassValidation), not silently dropped and not retried.
package parser
