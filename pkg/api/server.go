package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/shedrachokonofua/lute-sub001/pkg/app"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const streamPollInterval = 500 * time.Millisecond

// Server implements every RPC service over an *app.App, registered onto
// a real google.golang.org/grpc.Server through hand-rolled
// grpc.ServiceDesc values and the jsonCodec, since no generated protobuf
// service (no .proto/.pb.go pair) exists for this fabric.
type Server struct {
	app  *app.App
	grpc *grpc.Server
}

// NewServer creates an API server over a, with no transport security:
// the teacher's mTLS material (pkg/security, per-node certificates) is a
// cluster-membership concern this single-process fabric has no
// equivalent of, so connections here are plaintext gRPC (see DESIGN.md).
func NewServer(a *app.App) *Server {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(metricsInterceptor()), grpc.ForceServerCodec(jsonCodec{}))
	s := &Server{app: a, grpc: grpcServer}
	s.register()
	return s
}

func (s *Server) register() {
	s.grpc.RegisterService(luteServiceDesc(), s)
	s.grpc.RegisterService(fileServiceDesc(), s)
	s.grpc.RegisterService(crawlerServiceDesc(), s)
	s.grpc.RegisterService(eventServiceDesc(), s)
	s.grpc.RegisterService(schedulerServiceDesc(), s)
	s.grpc.RegisterService(spotifyServiceDesc(), s)
	s.grpc.RegisterService(operationsServiceDesc(), s)
}

// Start begins serving gRPC on addr. Blocks until the listener fails or
// the server is stopped.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// --- Lute ---

func luteServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: "lute.Lute",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			desc("lute.Lute", "HealthCheck", healthCheck),
		},
		Metadata: "lute.proto",
	}
}

func healthCheck(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	return &HealthCheckResponse{Status: "healthy", Timestamp: time.Now()}, nil
}

// --- FileService ---

func fileServiceDesc() *grpc.ServiceDesc {
	const svc = "lute.FileService"
	return &grpc.ServiceDesc{
		ServiceName: svc,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			desc(svc, "PutFile", putFile),
			desc(svc, "GetFile", getFile),
			desc(svc, "ListFiles", listFiles),
			desc(svc, "ParseFileContentStore", parseFileContentStore),
			desc(svc, "ValidateFileName", validateFileName),
		},
		Metadata: "lute.proto",
	}
}

func putFile(ctx context.Context, s *Server, req *PutFileRequest) (interface{}, error) {
	fileName, err := types.NewFileName(req.FileKind, req.FileValue)
	if err != nil {
		return nil, luterr.Validation("invalid file name", err)
	}
	entry, err := s.app.PutFile(fileName, req.Content, req.CorrelationID)
	if err != nil {
		return nil, err
	}
	return &PutFileResponse{EntryID: entry.ID}, nil
}

func getFile(ctx context.Context, s *Server, req *GetFileRequest) (interface{}, error) {
	fileName, err := types.NewFileName(req.FileKind, req.FileValue)
	if err != nil {
		return nil, luterr.Validation("invalid file name", err)
	}
	data, err := s.app.GetFile(ctx, fileName)
	if err != nil {
		return nil, err
	}
	return &GetFileResponse{Content: data}, nil
}

func listFiles(_ context.Context, s *Server, req *ListFilesRequest) (interface{}, error) {
	names, err := s.app.ListFiles(req.FileKind, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}
	return &ListFilesResponse{FileNames: names}, nil
}

func parseFileContentStore(ctx context.Context, s *Server, req *ParseFileContentStoreRequest) (interface{}, error) {
	fileName, err := types.NewFileName(req.FileKind, req.FileValue)
	if err != nil {
		return nil, luterr.Validation("invalid file name", err)
	}
	event, err := s.app.ParseFileContentStore(ctx, fileName)
	if err != nil {
		return nil, err
	}
	return &ParseFileContentStoreResponse{Event: event}, nil
}

func validateFileName(_ context.Context, s *Server, req *ValidateFileNameRequest) (interface{}, error) {
	if _, err := types.NewFileName(req.FileKind, req.FileValue); err != nil {
		return &ValidateFileNameResponse{Valid: false, Reason: err.Error()}, nil
	}
	return &ValidateFileNameResponse{Valid: true}, nil
}

// --- CrawlerService ---

func crawlerServiceDesc() *grpc.ServiceDesc {
	const svc = "lute.CrawlerService"
	return &grpc.ServiceDesc{
		ServiceName: svc,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			desc(svc, "Enqueue", enqueue),
			desc(svc, "Empty", emptyQueue),
			desc(svc, "GetStatus", getCrawlerStatus),
			desc(svc, "SetStatus", setCrawlerStatus),
			desc(svc, "GetMonitor", getCrawlerMonitor),
		},
		Metadata: "lute.proto",
	}
}

func enqueue(ctx context.Context, s *Server, req *EnqueueRequest) (interface{}, error) {
	fileName, err := types.NewFileName(req.FileKind, req.FileValue)
	if err != nil {
		return nil, luterr.Validation("invalid file name", err)
	}
	outcome, err := s.app.Crawler.Push(ctx, types.QueueItem{
		FileName:      fileName,
		Priority:      req.Priority,
		Key:           types.ItemKey{DeduplicationKey: req.DeduplicationKey},
		CorrelationID: req.CorrelationID,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &EnqueueResponse{Outcome: outcome}, nil
}

func emptyQueue(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	depths, err := s.app.Crawler.Depths()
	if err != nil {
		return nil, err
	}
	empty := true
	for _, n := range depths {
		if n > 0 {
			empty = false
			break
		}
	}
	return &EmptyQueueResponse{Empty: empty}, nil
}

func getCrawlerStatus(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	return &CrawlerStatusResponse{Status: s.app.CrawlState.Status()}, nil
}

func setCrawlerStatus(ctx context.Context, s *Server, req *SetCrawlerStatusRequest) (interface{}, error) {
	if err := s.app.CrawlState.SetStatus(ctx, req.Status); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func getCrawlerMonitor(ctx context.Context, s *Server, _ *Empty) (interface{}, error) {
	windowCount, err := s.app.CrawlState.WindowCount(ctx)
	if err != nil {
		return nil, err
	}
	depths, err := s.app.Crawler.Depths()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int, len(depths))
	for priority, n := range depths {
		byName[priority.String()] = n
	}
	return &CrawlerMonitorResponse{
		Status:      s.app.CrawlState.Status(),
		WindowCount: windowCount,
		Depths:      byName,
	}, nil
}

// --- EventService ---

func eventServiceDesc() *grpc.ServiceDesc {
	const svc = "lute.EventService"
	return &grpc.ServiceDesc{
		ServiceName: svc,
		HandlerType: (*interface{})(nil),
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "Stream",
				Handler:       streamHandler,
				ServerStreams: true,
				ClientStreams: true,
			},
		},
		Metadata: "lute.proto",
	}
}

// streamHandler implements EventService.Stream: the client's first
// message subscribes (topic, subscriber id, optional resume cursor);
// every message after that is an ack of the previous batch's tail
// cursor. This is a deliberately separate read path from the in-process
// Registry-driven delivery loop (spec.md §4.1) — it drives SetCursor,
// the externally-facing cursor mutator, rather than the delivery loop's
// internal PutCursor.
func streamHandler(srv interface{}, stream grpc.ServerStream) error {
	s := srv.(*Server)
	ctx := stream.Context()

	var sub StreamSubscribeRequest
	if err := stream.RecvMsg(&sub); err != nil {
		return err
	}
	if sub.SubscriberID == "" {
		sub.SubscriberID = uuid.NewString()
	}
	if sub.MaxBatchSize <= 0 {
		sub.MaxBatchSize = 50
	}

	cursor := sub.Cursor
	if cursor == "" {
		existing, err := s.app.Log.GetCursor(sub.Topic, sub.SubscriberID)
		if err != nil {
			return err
		}
		cursor = existing.LastAckedID
	}

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		entries, err := s.app.Log.ReadSince(sub.Topic, cursor, sub.MaxBatchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			continue
		}

		tail := entries[len(entries)-1].ID
		if err := stream.SendMsg(&StreamBatchResponse{Entries: entries, TailCursor: tail}); err != nil {
			return err
		}

		var ack StreamSubscribeRequest
		if err := stream.RecvMsg(&ack); err != nil {
			return err
		}
		if ack.Ack != "" {
			if _, err := s.app.Log.SetCursor(sub.Topic, sub.SubscriberID, ack.Ack); err != nil {
				return err
			}
			cursor = ack.Ack
		} else {
			cursor = tail
		}
	}
}

// --- SchedulerService ---

func schedulerServiceDesc() *grpc.ServiceDesc {
	const svc = "lute.SchedulerService"
	return &grpc.ServiceDesc{
		ServiceName: svc,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			desc(svc, "GetRegisteredProcessors", getRegisteredProcessors),
			desc(svc, "GetJobs", getJobs),
			desc(svc, "PutJob", putJob),
			desc(svc, "DeleteJob", deleteJob),
		},
		Metadata: "lute.proto",
	}
}

func getRegisteredProcessors(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	return &RegisteredProcessorsResponse{Names: s.app.Sched.RegisteredProcessors()}, nil
}

func getJobs(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	jobs, err := s.app.Sched.Jobs()
	if err != nil {
		return nil, err
	}
	return &JobsResponse{Jobs: jobs}, nil
}

func putJob(_ context.Context, s *Server, req *PutJobRequest) (interface{}, error) {
	if req.Name == "" {
		return nil, luterr.Validation("job name required", nil)
	}
	var interval *time.Duration
	if req.IntervalSec != nil {
		d := time.Duration(*req.IntervalSec) * time.Second
		interval = &d
	}
	job, err := s.app.Sched.PutJob(req.Name, req.Payload, req.NextExecution, interval)
	if err != nil {
		return nil, err
	}
	return &PutJobResponse{Job: job}, nil
}

func deleteJob(_ context.Context, s *Server, req *DeleteJobRequest) (interface{}, error) {
	if err := s.app.Sched.DeleteJob(req.ID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// --- SpotifyService ---
//
// The Spotify OAuth flow is an external collaborator this repo does not
// implement (spec.md §6's Non-goals). These three methods are thin
// stubs: IsAuthorized always reports not authorized, GetAuthorizationUrl
// returns a fixed unconfigured URL, and HandleAuthorizationCode returns
// an Unimplemented status error.

func spotifyServiceDesc() *grpc.ServiceDesc {
	const svc = "lute.SpotifyService"
	return &grpc.ServiceDesc{
		ServiceName: svc,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			desc(svc, "IsAuthorized", spotifyIsAuthorized),
			desc(svc, "GetAuthorizationUrl", spotifyAuthorizationURL),
			desc(svc, "HandleAuthorizationCode", spotifyHandleAuthorizationCode),
		},
		Metadata: "lute.proto",
	}
}

// spotifyStubAuthorizationURL is returned by GetAuthorizationUrl in lieu of
// a real OAuth client registration, which is outside this repo's scope.
const spotifyStubAuthorizationURL = "https://accounts.spotify.com/authorize?client_id=unconfigured"

func spotifyIsAuthorized(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	return &IsAuthorizedResponse{Authorized: false}, nil
}

func spotifyAuthorizationURL(_ context.Context, s *Server, _ *Empty) (interface{}, error) {
	return &AuthorizationURLResponse{URL: spotifyStubAuthorizationURL}, nil
}

func spotifyHandleAuthorizationCode(_ context.Context, s *Server, _ *AuthorizationCodeRequest) (interface{}, error) {
	return nil, status.Error(codes.Unimplemented, "spotify authorization code exchange is not implemented")
}

// --- OperationsService ---

func operationsServiceDesc() *grpc.ServiceDesc {
	const svc = "lute.OperationsService"
	return &grpc.ServiceDesc{
		ServiceName: svc,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			desc(svc, "FlushBackingStore", flushBackingStore),
			desc(svc, "ParseFileContentStore", parseFileContentStore),
		},
		Metadata: "lute.proto",
	}
}

func flushBackingStore(ctx context.Context, s *Server, _ *Empty) (interface{}, error) {
	if err := s.app.FlushBackingStore(ctx); err != nil {
		return nil, err
	}
	return &FlushBackingStoreResponse{Flushed: []string{"redis"}}, nil
}
