/*
Package metrics defines and registers the fabric's Prometheus metrics and
exposes them over HTTP for scraping.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│  EventCore     → events_appended, cursor_lag, delivery     │
	│  Sched         → jobs_claimed, job_execution, jobs_pending │
	│  CrawlerCore   → queue_depth, items_enqueued/claimed,      │
	│                  claims_expired, crawler_status            │
	│  Index         → documents_indexed, search_duration        │
	│  EmbedCore     → embeddings_generated, cache_hit,           │
	│                  provider_healthy, provider_request         │
	│  Parser        → files_parsed                              │
	│  API           → api_requests_total, api_request_duration  │
	└─────────────────────────────────────────────────────────┘

Collector polls the stateful components (EventCore's cursors, CrawlerCore's
queue, Sched's pending count) on a 15s interval and mirrors them into
gauges, since those values live in bbolt/Redis rather than being pushed
on every state change.

Timer is a small duration-measuring helper used at call sites throughout
the fabric:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SearchDuration.WithLabelValues(collection))

# Health

health.go tracks per-component health (RegisterComponent/UpdateComponent)
independent of Prometheus, and exposes /health, /ready and /live HTTP
handlers. Readiness requires eventlog, scheduler, crawler, index and api
to all report healthy.
*/
package metrics
