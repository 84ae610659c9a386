package client

import (
	"context"
	"fmt"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client wraps a gRPC connection to the fabric's api.Server for CLI and
// worker usage. It calls methods directly via conn.Invoke/NewStream
// rather than through generated stubs, since no .proto pair exists for
// this service (see pkg/api's doc.go).
type Client struct {
	conn *grpc.ClientConn
}

// NewClient dials addr with a plaintext connection forced onto the
// same JSON codec the server is forced onto. There is no mTLS material
// to load here: this fabric runs as a single process with no cluster
// membership to authenticate (see DESIGN.md).
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(api.ClientCodec())),
	)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, fullMethod string, req, resp interface{}) error {
	return c.conn.Invoke(ctx, fullMethod, req, resp)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// HealthCheck calls Lute.HealthCheck.
func (c *Client) HealthCheck(ctx context.Context) (*api.HealthCheckResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.HealthCheckResponse{}
	if err := c.invoke(ctx, "/lute.Lute/HealthCheck", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PutFile calls FileService.PutFile.
func (c *Client) PutFile(ctx context.Context, req *api.PutFileRequest) (*api.PutFileResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.PutFileResponse{}
	if err := c.invoke(ctx, "/lute.FileService/PutFile", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetFile calls FileService.GetFile.
func (c *Client) GetFile(ctx context.Context, req *api.GetFileRequest) (*api.GetFileResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.GetFileResponse{}
	if err := c.invoke(ctx, "/lute.FileService/GetFile", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListFiles calls FileService.ListFiles.
func (c *Client) ListFiles(ctx context.Context, req *api.ListFilesRequest) (*api.ListFilesResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.ListFilesResponse{}
	if err := c.invoke(ctx, "/lute.FileService/ListFiles", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ParseFileContentStore calls FileService.ParseFileContentStore.
func (c *Client) ParseFileContentStore(ctx context.Context, req *api.ParseFileContentStoreRequest) (*api.ParseFileContentStoreResponse, error) {
	ctx, cancel := withTimeout(ctx, 30*time.Second)
	defer cancel()
	resp := &api.ParseFileContentStoreResponse{}
	if err := c.invoke(ctx, "/lute.FileService/ParseFileContentStore", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ValidateFileName calls FileService.ValidateFileName.
func (c *Client) ValidateFileName(ctx context.Context, req *api.ValidateFileNameRequest) (*api.ValidateFileNameResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.ValidateFileNameResponse{}
	if err := c.invoke(ctx, "/lute.FileService/ValidateFileName", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Enqueue calls CrawlerService.Enqueue.
func (c *Client) Enqueue(ctx context.Context, req *api.EnqueueRequest) (*api.EnqueueResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.EnqueueResponse{}
	if err := c.invoke(ctx, "/lute.CrawlerService/Enqueue", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CrawlerEmpty calls CrawlerService.Empty.
func (c *Client) CrawlerEmpty(ctx context.Context) (*api.EmptyQueueResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.EmptyQueueResponse{}
	if err := c.invoke(ctx, "/lute.CrawlerService/Empty", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CrawlerStatus calls CrawlerService.GetStatus.
func (c *Client) CrawlerStatus(ctx context.Context) (*api.CrawlerStatusResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.CrawlerStatusResponse{}
	if err := c.invoke(ctx, "/lute.CrawlerService/GetStatus", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SetCrawlerStatus calls CrawlerService.SetStatus.
func (c *Client) SetCrawlerStatus(ctx context.Context, req *api.SetCrawlerStatusRequest) error {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.invoke(ctx, "/lute.CrawlerService/SetStatus", req, &api.Empty{})
}

// CrawlerMonitor calls CrawlerService.GetMonitor.
func (c *Client) CrawlerMonitor(ctx context.Context) (*api.CrawlerMonitorResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.CrawlerMonitorResponse{}
	if err := c.invoke(ctx, "/lute.CrawlerService/GetMonitor", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// RegisteredProcessors calls SchedulerService.GetRegisteredProcessors.
func (c *Client) RegisteredProcessors(ctx context.Context) (*api.RegisteredProcessorsResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.RegisteredProcessorsResponse{}
	if err := c.invoke(ctx, "/lute.SchedulerService/GetRegisteredProcessors", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Jobs calls SchedulerService.GetJobs.
func (c *Client) Jobs(ctx context.Context) (*api.JobsResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.JobsResponse{}
	if err := c.invoke(ctx, "/lute.SchedulerService/GetJobs", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PutJob calls SchedulerService.PutJob.
func (c *Client) PutJob(ctx context.Context, req *api.PutJobRequest) (*api.PutJobResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.PutJobResponse{}
	if err := c.invoke(ctx, "/lute.SchedulerService/PutJob", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteJob calls SchedulerService.DeleteJob.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.invoke(ctx, "/lute.SchedulerService/DeleteJob", &api.DeleteJobRequest{ID: id}, &api.Empty{})
}

// FlushBackingStore calls OperationsService.FlushBackingStore.
func (c *Client) FlushBackingStore(ctx context.Context) (*api.FlushBackingStoreResponse, error) {
	ctx, cancel := withTimeout(ctx, 30*time.Second)
	defer cancel()
	resp := &api.FlushBackingStoreResponse{}
	if err := c.invoke(ctx, "/lute.OperationsService/FlushBackingStore", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SpotifyIsAuthorized calls SpotifyService.IsAuthorized.
func (c *Client) SpotifyIsAuthorized(ctx context.Context) (*api.IsAuthorizedResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.IsAuthorizedResponse{}
	if err := c.invoke(ctx, "/lute.SpotifyService/IsAuthorized", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SpotifyAuthorizationURL calls SpotifyService.GetAuthorizationUrl.
func (c *Client) SpotifyAuthorizationURL(ctx context.Context) (*api.AuthorizationURLResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	resp := &api.AuthorizationURLResponse{}
	if err := c.invoke(ctx, "/lute.SpotifyService/GetAuthorizationUrl", &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SpotifyHandleAuthorizationCode calls SpotifyService.HandleAuthorizationCode.
// The server has no real OAuth client registered, so this always returns an
// Unimplemented status.
func (c *Client) SpotifyHandleAuthorizationCode(ctx context.Context, code string) error {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.invoke(ctx, "/lute.SpotifyService/HandleAuthorizationCode", &api.AuthorizationCodeRequest{Code: code}, &api.Empty{})
}

// eventStreamDesc mirrors the server's grpc.StreamDesc for EventService.Stream.
var eventStreamDesc = grpc.StreamDesc{
	StreamName:    "Stream",
	ServerStreams: true,
	ClientStreams: true,
}

// EventStream is a handle on an open EventService.Stream call.
type EventStream struct {
	stream grpc.ClientStream
}

// Stream opens EventService.Stream and sends the initial subscribe
// message. Call Recv to receive batches and Ack to acknowledge them.
func (c *Client) Stream(ctx context.Context, sub api.StreamSubscribeRequest) (*EventStream, error) {
	stream, err := c.conn.NewStream(ctx, &eventStreamDesc, "/lute.EventService/Stream")
	if err != nil {
		return nil, fmt.Errorf("client: open event stream: %w", err)
	}
	if err := stream.SendMsg(&sub); err != nil {
		return nil, fmt.Errorf("client: subscribe: %w", err)
	}
	return &EventStream{stream: stream}, nil
}

// Recv blocks for the next batch of event log entries.
func (es *EventStream) Recv() (*api.StreamBatchResponse, error) {
	resp := &api.StreamBatchResponse{}
	if err := es.stream.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Ack acknowledges cursor as the last durably-processed position,
// requesting the next batch after it.
func (es *EventStream) Ack(cursor string) error {
	return es.stream.SendMsg(&api.StreamSubscribeRequest{Ack: cursor})
}

// CloseSend half-closes the stream's send direction.
func (es *EventStream) CloseSend() error {
	return es.stream.CloseSend()
}
