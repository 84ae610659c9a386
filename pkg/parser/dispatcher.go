package parser

import (
	"context"
	"fmt"

	"github.com/shedrachokonofua/lute-sub001/pkg/eventlog"
	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// ContentSource fetches the raw bytes a FileSaved event refers to. The
// object store for raw page content is an external collaborator
// (spec.md §1); this interface is this package's only dependency on it.
type ContentSource interface {
	GetContent(ctx context.Context, fileName types.FileName) ([]byte, error)
}

// Dispatcher adapts a Registry into an eventlog.Handler: the "parser
// subscriber" of spec.md §2's data flow, consuming TopicFile's
// FileSaved entries and appending one FileParsed or FileParseFailed
// entry to TopicParser per input entry.
type Dispatcher struct {
	registry *Registry
	content  ContentSource
	log      *eventlog.Log
}

// NewDispatcher creates a Dispatcher appending results to l, using
// registry to parse and content to fetch each FileSaved entry's bytes.
func NewDispatcher(registry *Registry, content ContentSource, l *eventlog.Log) *Dispatcher {
	return &Dispatcher{registry: registry, content: content, log: l}
}

// Handle implements eventlog.Handler. It processes every entry in the
// batch independently: one entry's parse failure doesn't stop the
// others, since Dispatch itself never errors (it always yields a valid
// tagged Event, FileParseFailed included).
func (d *Dispatcher) Handle(ctx context.Context, entries []types.EventEntry) error {
	for _, entry := range entries {
		if entry.Payload.Event.Kind != types.EventFileSaved {
			continue
		}
		saved := entry.Payload.Event.FileSaved
		if saved == nil {
			continue
		}

		event, err := d.parseOne(ctx, saved.FileName)
		if err != nil {
			return err
		}

		if _, err := d.log.Append(types.TopicParser, types.EventPayload{
			Event:         event,
			CorrelationID: entry.Payload.CorrelationID,
			Metadata:      entry.Payload.Metadata,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) parseOne(ctx context.Context, fileName types.FileName) (types.Event, error) {
	data, err := d.content.GetContent(ctx, fileName)
	if err != nil {
		if luterr.ClassOf(err) == luterr.ClassNotFound {
			return failed(fileName, fmt.Sprintf("content not found: %v", err)), nil
		}
		log.WithFileName(fileName.String()).Error().Err(err).Msg("failed to fetch file content for parsing")
		return types.Event{}, err
	}
	return d.registry.Dispatch(fileName, data), nil
}

// AsSubscriptionHandler adapts Handle to the eventlog.Handler function
// type for Registry.Register against a pkg/eventlog.Registry.
func (d *Dispatcher) AsSubscriptionHandler() eventlog.Handler {
	return d.Handle
}
