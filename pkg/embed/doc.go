// Package embed implements EmbedCore: pluggable embedding providers with
// per-provider concurrency and batch sizing, a content-addressed cache
// over pkg/kv, and idempotent upserts into pkg/index (spec.md §4.5).
//
// A Provider is a tagged capability (name, dimensions, batch size,
// concurrency, interval, job name, Generate) rather than a trait object;
// this package supplies the orchestration (selection, caching, rate
// gating, dispatch) once, generic over any Provider implementation.
//
// The album read models a provider's job considers live in the
// relational read-model tables, an external collaborator outside this
// fabric's scope (spec.md §1). Pipeline.Run and Pipeline.JobHandler both
// take that list as an input or via a ReadModelSource rather than
// querying for it themselves.
package embed
