/*
Package scheduler implements Sched: a recurring-job scheduler with
lease-based claim semantics, bbolt-backed.

# Job Lifecycle

	PutJob(name, payload, nextExecution, interval) — idempotent upsert
	      │   JobID = sha256(name + payload)[:16], so re-scheduling the
	      │   same logical job updates one row instead of duplicating it.
	      ▼
	ClaimDue(now, lease, limit) — claims jobs due and unclaimed (or whose
	      │   previous claim's lease has expired)
	      ▼
	handler(ctx, payload) runs under a context bounded by the lease
	      │
	      ├─ success → CompleteJob: recurring jobs roll NextExecution
	      │            forward by Interval and clear the claim; one-shot
	      │            jobs (Interval == nil) are deleted
	      └─ failure → ReleaseClaimWithBackoff: clears the claim and
	                   schedules NextExecution = now + backoff(attempt),
	                   a per-job failure count growing the delay on each
	                   consecutive failure (capped exponential, the same
	                   luterr.Backoff policy the event log's subscriber
	                   delivery loop uses)

# Scheduler

Scheduler wraps a Store with the teacher's ticker-driven run()/tick()
loop (5s cadence) and a name → JobHandler registry. A claimed job whose
name has no registered handler has its claim released immediately
rather than being executed — this lets a process register handlers
incrementally without losing jobs scheduled before registration.

A claim that's never completed (process crash, handler hang past the
lease) becomes claimable again once its lease elapses; Sched never
requires an explicit heartbeat to keep a claim alive, trading a bounded
window of possible double-execution for a simpler protocol.
*/
package scheduler
