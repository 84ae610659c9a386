/*
Package api implements the fabric's gRPC server over pkg/app.

It is the primary interface external callers (ingestion scripts,
operators, the web read model) use to interact with a running fabric.
No .proto/.pb.go pair is generated for this service; instead every
method is registered as a hand-rolled grpc.ServiceDesc operating on
plain Go structs serialized with a JSON codec (see codec.go), and
handler.go's generic unaryHandler/desc helpers give each method the
shape protoc-gen-go-grpc would otherwise generate.

# Services

	Lute              - HealthCheck
	FileService       - PutFile, GetFile, ListFiles, ParseFileContentStore, ValidateFileName
	CrawlerService    - Enqueue, Empty, GetStatus, SetStatus, GetMonitor
	EventService      - Stream (bidirectional)
	SchedulerService  - GetRegisteredProcessors, GetJobs, PutJob, DeleteJob
	SpotifyService    - IsAuthorized, GetAuthorizationUrl, HandleAuthorizationCode (stubs)
	OperationsService - FlushBackingStore, ParseFileContentStore

FileService, CrawlerService, and SchedulerService map directly onto
pkg/app.App's exported fields (Log, Crawler, CrawlState, Sched); the
server itself holds no business logic beyond request validation and
DTO conversion.

# Streaming

EventService.Stream is a true bidi stream (grpc.StreamDesc with both
ServerStreams and ClientStreams set), not a generated client/server
wrapper: streamHandler reads a StreamSubscribeRequest, polls
eventlog.Log.ReadSince on a ticker, and waits for the client to ack the
batch's tail cursor before advancing. An ack persists via Log.SetCursor
— a different call than the in-process Registry delivery loop's
PutCursor, since this is a distinct, externally-driven read path over
the same log.

# Error mapping

metricsInterceptor (interceptor.go) wraps every unary call: it records
api_requests_total/api_request_duration_seconds via pkg/metrics, then
maps any returned error's luterr.Class to a gRPC status code
(classToCode) so clients get InvalidArgument/NotFound/AlreadyExists/
Unavailable/Internal instead of a bare Unknown.

# Transport security

Connections are plaintext gRPC. This fabric runs as a single process
with no cluster membership, so there is no peer identity to authenticate
the way the teacher's manager/worker mTLS did — see DESIGN.md for the
dropped pkg/security rationale.

# Health

HealthServer (health.go) is a separate plain-HTTP server exposing
/health (liveness, no App dependency), /ready (checks the scheduler
store and crawler queue are reachable), and /metrics (Prometheus).
*/
package api
