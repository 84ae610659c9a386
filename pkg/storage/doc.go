// Package storage owns the single bbolt file shared by every durable
// component in the process.
//
//	┌───────────────────────────── lute.db ─────────────────────────────┐
//	│  eventlog:entries:{topic}   eventlog:cursors:{topic}               │
//	│  scheduler:jobs                                                    │
//	│  index:docs:{collection}    index:embeddings:{collection}          │
//	│  kv:{namespace}                                                    │
//	└─────────────────────────────────────────────────────────────────┘
//
// bbolt allows exactly one writer transaction at a time for the whole
// file, so the fabric opens it once in pkg/app and passes the *DB handle
// to each component's constructor rather than letting each component
// open its own file the way the teacher's per-entity BoltStore did.
// Each component calls EnsureBuckets for the bucket names it owns, so
// adding a component never requires touching another component's Open
// call.
package storage
