// Package types defines the shared data model for the core systems
// fabric: the event envelope exchanged by EventCore, the queue/claim
// shapes used by CrawlerCore, the Job shape scheduled by Sched, and the
// parser output variants produced by Parser Dispatch and consumed by
// EmbedCore/Index.
//
// # Event Shape
//
//	┌─────────────────────────────────────────────┐
//	│                 EventEntry                   │
//	│  ID (unix-ms-seq)   Topic   SavedAt          │
//	│  ┌─────────────────────────────────────────┐ │
//	│  │              EventPayload                │ │
//	│  │  CorrelationID   Metadata                 │ │
//	│  │  ┌─────────────────────────────────────┐ │ │
//	│  │  │              Event                   │ │ │
//	│  │  │  Kind  +  exactly one variant field  │ │ │
//	│  │  └─────────────────────────────────────┘ │ │
//	│  └─────────────────────────────────────────┘ │
//	└─────────────────────────────────────────────┘
//
// Event is a tagged union: Kind selects which of the pointer fields is
// populated. This mirrors how the teacher's container orchestration
// domain models had one struct per resource kind, except here the
// variants are closed over five members instead of left open-ended,
// since EventCore never needs to route on an unknown event kind.
//
// # Queue Shape
//
// QueueItem carries an ItemKey (enqueue time + dedup key) used both to
// order FIFO-within-priority and to identify an item for idempotent
// removal. ClaimedItem wraps a QueueItem with a lease: ClaimTTL and
// ClaimedAt together define the deadline after which CrawlerCore treats
// the claim as abandoned and makes the item visible again.
//
// # Parser Output
//
// ParsedAlbum, ParsedChart and ParsedSearchResults are the three shapes
// Parser Dispatch can produce from a saved file body. They reference
// other pages by FileName rather than by a resolved object, since the
// parser has no access to anything but the bytes in front of it.
package types
