package api

import (
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// Empty is the request/response shape for RPCs that carry no data.
type Empty struct{}

// HealthCheckResponse is Lute.HealthCheck's response.
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// PutFileRequest is FileService.PutFile's request.
type PutFileRequest struct {
	FileKind      types.FileKind `json:"file_kind"`
	FileValue     string         `json:"file_value"`
	Content       []byte         `json:"content"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// PutFileResponse is FileService.PutFile's response.
type PutFileResponse struct {
	EntryID string `json:"entry_id"`
}

// GetFileRequest is FileService.GetFile's request.
type GetFileRequest struct {
	FileKind  types.FileKind `json:"file_kind"`
	FileValue string         `json:"file_value"`
}

// GetFileResponse is FileService.GetFile's response.
type GetFileResponse struct {
	Content []byte `json:"content"`
}

// ListFilesRequest is FileService.ListFiles's request.
type ListFilesRequest struct {
	FileKind types.FileKind `json:"file_kind,omitempty"`
	Offset   int            `json:"offset"`
	Limit    int            `json:"limit"`
}

// ListFilesResponse is FileService.ListFiles's response.
type ListFilesResponse struct {
	FileNames []string `json:"file_names"`
}

// ParseFileContentStoreRequest is FileService/OperationsService's
// ParseFileContentStore request: parse a file that is already in the
// content store without waiting for the FileSaved subscriber loop.
type ParseFileContentStoreRequest struct {
	FileKind  types.FileKind `json:"file_kind"`
	FileValue string         `json:"file_value"`
}

// ParseFileContentStoreResponse reports the tagged event Parser Dispatch
// produced.
type ParseFileContentStoreResponse struct {
	Event types.Event `json:"event"`
}

// ValidateFileNameRequest is FileService.ValidateFileName's request.
type ValidateFileNameRequest struct {
	FileKind  types.FileKind `json:"file_kind"`
	FileValue string         `json:"file_value"`
}

// ValidateFileNameResponse is FileService.ValidateFileName's response.
type ValidateFileNameResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// EnqueueRequest is CrawlerService.Enqueue's request.
type EnqueueRequest struct {
	FileKind         types.FileKind    `json:"file_kind"`
	FileValue        string            `json:"file_value"`
	Priority         types.Priority    `json:"priority"`
	DeduplicationKey string            `json:"deduplication_key,omitempty"`
	CorrelationID    string            `json:"correlation_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// EnqueueResponse is CrawlerService.Enqueue's response.
type EnqueueResponse struct {
	Outcome string `json:"outcome"`
}

// EmptyQueueResponse is CrawlerService.Empty's response: whether every
// priority bucket is currently empty.
type EmptyQueueResponse struct {
	Empty bool `json:"empty"`
}

// CrawlerStatusResponse is CrawlerService.GetStatus's response.
type CrawlerStatusResponse struct {
	Status types.CrawlerStatus `json:"status"`
}

// SetCrawlerStatusRequest is CrawlerService.SetStatus's request.
type SetCrawlerStatusRequest struct {
	Status types.CrawlerStatus `json:"status"`
}

// CrawlerMonitorResponse is CrawlerService.GetMonitor's response.
type CrawlerMonitorResponse struct {
	Status      types.CrawlerStatus `json:"status"`
	WindowCount int64               `json:"window_count"`
	Depths      map[string]int      `json:"depths"`
}

// StreamSubscribeRequest is the first message EventService.Stream's
// client sends: subscribe parameters plus an optional cursor to resume
// from, in place of (or ahead of) what the server has durably recorded.
type StreamSubscribeRequest struct {
	Topic        types.Topic `json:"topic"`
	SubscriberID string      `json:"subscriber_id"`
	MaxBatchSize int         `json:"max_batch_size"`
	Cursor       string      `json:"cursor,omitempty"`
	Ack          string      `json:"ack,omitempty"`
}

// StreamBatchResponse is what the server sends back on EventService.Stream:
// one batch of entries plus the tail cursor after them.
type StreamBatchResponse struct {
	Entries    []types.EventEntry `json:"entries"`
	TailCursor string             `json:"tail_cursor"`
}

// RegisteredProcessorsResponse is SchedulerService.GetRegisteredProcessors's response.
type RegisteredProcessorsResponse struct {
	Names []string `json:"names"`
}

// JobsResponse is SchedulerService.GetJobs's response.
type JobsResponse struct {
	Jobs []types.Job `json:"jobs"`
}

// PutJobRequest is SchedulerService.PutJob's request.
type PutJobRequest struct {
	Name          string `json:"name"`
	Payload       []byte `json:"payload,omitempty"`
	NextExecution time.Time `json:"next_execution"`
	IntervalSec   *int64 `json:"interval_seconds,omitempty"`
}

// PutJobResponse is SchedulerService.PutJob's response.
type PutJobResponse struct {
	Job types.Job `json:"job"`
}

// DeleteJobRequest is SchedulerService.DeleteJob's request.
type DeleteJobRequest struct {
	ID string `json:"id"`
}

// IsAuthorizedResponse is SpotifyService.IsAuthorized's response. Always
// false: the OAuth flow is an external collaborator this repo doesn't
// implement (spec.md §6).
type IsAuthorizedResponse struct {
	Authorized bool `json:"authorized"`
}

// AuthorizationURLResponse is SpotifyService.GetAuthorizationUrl's response.
type AuthorizationURLResponse struct {
	URL string `json:"url"`
}

// AuthorizationCodeRequest is SpotifyService.HandleAuthorizationCode's request.
type AuthorizationCodeRequest struct {
	Code string `json:"code"`
}

// FlushBackingStoreResponse is OperationsService.FlushBackingStore's response.
type FlushBackingStoreResponse struct {
	Flushed []string `json:"flushed"`
}
