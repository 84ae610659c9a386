/*
Package log provides structured logging for the fabric using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support
filtering by severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("scheduler")               │          │
	│  │  - WithTopic("file")                        │          │
	│  │  - WithSubscriberID("parser-dispatch")       │          │
	│  │  - WithJobID("a1b2c3...")                    │          │
	│  │  - WithFileName("album:1234")                │          │
	│  │  - WithProvider("openai")                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  JSON: {"level":"info","component":"sched", │          │
	│  │  "time":"2026-01-02T10:30:00Z",              │          │
	│  │  "message":"job claimed"}                    │          │
	│  │  Console: 2026-01-02T10:30:00Z INF job claimed │        │
	│  │    component=sched job_id=a1b2c3              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	log.Info("fabric starting")

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Str("job_id", jobID).Msg("job claimed")

	fileLog := log.WithFileName(fileName.String())
	fileLog.Error().Err(err).Msg("parse failed")

# Integration Points

This package is used by every component: pkg/eventlog, pkg/scheduler,
pkg/crawler, pkg/index, pkg/embed, pkg/parser, pkg/api, pkg/app.

# Design Patterns

Global Logger Pattern: a single package-level Logger, initialized once
in pkg/app's New, accessible without being threaded through every
call. Context Logger Pattern: call sites build a child logger with one
of the With* helpers (WithJobID, WithFileName, WithProvider) rather
than attaching the same fields by hand.

# Best Practices

Do: use Info level in production, use structured fields, create a
component logger per constructed component, log errors with .Err().
Don't: log embedding vectors or raw provider API keys, log in tight
loops without sampling, concatenate strings into the message field.

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
