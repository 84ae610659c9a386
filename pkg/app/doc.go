// Package app is the composition root: it owns the shared bbolt handle
// and Redis client, constructs every fabric component (EventCore, Sched,
// CrawlerCore, Index, EmbedCore, Parser Dispatch), wires the FileSaved →
// Parser Dispatch → FileParsed/FileParseFailed subscriber pipeline plus a
// projector that turns FileParsed album variants into AlbumReadModel
// rows, registers the built-in scheduled jobs, and exposes Start/Stop for
// cmd/lute. Named and structurally modeled on the teacher's
// pkg/manager.Manager: the one place allowed to reach into more than one
// component's constructor.
package app
