/*
Package index implements Index: typed document storage plus cosine
similarity search over learned embeddings, bbolt-backed (spec.md §4.4).

Every collection gets two buckets on first write:

	index:docs:{collection}       — Document{Key, Payload, Fields} by key
	index:embeddings:{collection} — types.EmbeddingDocument by
	                                 file_name\x00provider

Fields is a denormalized projection of whatever fields a caller wants
searchable: Filter matches tag membership, numeric ranges, and a
substring match against a "text" field, all ANDed together.

Vector search is brute-force cosine similarity over a collection's
embedding bucket, filtered through the same Filter against each
candidate's primary document. This is the one standard-library-only
corner of the fabric's domain stack: no ecosystem ANN (approximate
nearest neighbor) library appeared anywhere in the retrieval pack, and at
this service's scale — a single-site music catalog, not a web-scale
corpus — a linear scan is the right trade, not a gap to fill later.

Deleting a primary document cascades to every embedding document sharing
its key in the same collection, satisfying the cascade invariant in
spec.md §4.4.
*/
package index
