/*
Package crawler implements CrawlerCore: the four-level priority queue
(spec.md §4.3) and the crawler's status state machine and request-window
rate limiter, both Redis-backed.

# Queue

	Push(item)      — dedup-and-upgrade rule: at most one unclaimed item
	      │            per deduplication key; a higher-priority push moves
	      │            the existing item, preserving enqueue_time
	      ▼
	ClaimItem()     — ascending priority, FIFO within bucket; expired
	      │            claims are swept back to the front of their
	      │            bucket before any unclaimed item is considered
	      ▼
	DeleteItem(key) — idempotent removal from both the claimed and
	                   unclaimed stores

Redis layout: `crawler:queue:{priority}` lists hold pending items,
`crawler:dedup` is a hash from deduplication key to the current pending
item, `crawler:claims` is a hash from claim key to `{item, claimed_at}`.
Mutating sequences are serialized by an in-process mutex rather than a
Redis transaction, since this service runs as a single writer (spec.md
§5) — the mutex plays the role a CAS loop would in a multi-writer
deployment.

# State

Owns the crawler's CrawlerStatus and the request-window counter:

	Running  --(operator pause)-->      Paused
	Running  --(rate exceeded)-->       Throttled
	Throttled--(window reset)-->        Running
	Running  --(operator drain)-->      Draining
	Paused/Draining --(operator start)-> Running

RecordFetch increments the window counter on every successful fetch and
transitions to Throttled when it exceeds the configured threshold.
ResetWindow, intended to be driven by the scheduled
ResetCrawlerRequestWindow job, clears the counter and clears Throttled.
Operator-driven transitions go through SetStatus, which rejects any
transition touching Throttled directly — that status is only ever
entered by RecordFetch and cleared by ResetWindow.
*/
package crawler
