package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shedrachokonofua/lute-sub001/pkg/config"
	"github.com/shedrachokonofua/lute-sub001/pkg/crawler"
	"github.com/shedrachokonofua/lute-sub001/pkg/embed"
	"github.com/shedrachokonofua/lute-sub001/pkg/eventlog"
	"github.com/shedrachokonofua/lute-sub001/pkg/index"
	"github.com/shedrachokonofua/lute-sub001/pkg/kv"
	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/parser"
	"github.com/shedrachokonofua/lute-sub001/pkg/scheduler"
	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

const (
	resetWindowJob = "ResetCrawlerRequestWindow"
	subscriberFile = "parser-dispatch"
	subscriberProj = "readmodel-projector"
)

// App is the fabric's composition root. It owns the process's only bbolt
// handle and Redis client and constructs every component on top of them.
type App struct {
	Config config.Config

	db  *storage.DB
	rdb *redis.Client

	Log        *eventlog.Log
	Registry   *eventlog.Registry
	SchedStore *scheduler.Store
	Sched      *scheduler.Scheduler
	Crawler    *crawler.Queue
	CrawlState *crawler.State
	Index      *index.Index
	KV         *kv.Store
	Parser     *parser.Registry
	Dispatcher *parser.Dispatcher
	Embed      *embed.Pipeline
	Collector  *metrics.Collector

	blobs      *blobStore
	readModels *readModelStore
	providers  map[string]embed.Provider
}

// fabricTopics is the closed set of topics EventCore opens buckets for.
var fabricTopics = []types.Topic{
	types.TopicFile,
	types.TopicParser,
	types.TopicAlbum,
	types.TopicLookup,
	types.TopicCrawler,
}

// New constructs every component of the fabric over cfg, but does not
// start any background loop — call Start for that.
func New(cfg config.Config) (*App, error) {
	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("app: open storage: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
		DialTimeout:  cfg.Redis.ConnectionTimeout,
	})

	eventLog, err := eventlog.Open(db, fabricTopics)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app: open event log: %w", err)
	}
	registry := eventlog.NewRegistry(eventLog)

	schedStore, err := scheduler.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app: open scheduler store: %w", err)
	}
	sched := scheduler.New(schedStore)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	crawlState, err := crawler.NewState(ctx, rdb, cfg.Crawler.MaxRequestsPerWindow)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app: load crawler state: %w", err)
	}
	queue := crawler.NewQueue(rdb, crawlState, cfg.Crawler.ClaimTTL)

	idx := index.Open(db)
	kvStore := kv.Open(db)

	parserRegistry := parser.NewRegistry()
	parserRegistry.Register(types.FileKindAlbum, parseAlbum)

	blobs := newBlobStore(kvStore)
	dispatcher := parser.NewDispatcher(parserRegistry, blobs, eventLog)

	readModels := newReadModelStore(idx)
	embedPipeline := embed.New(kvStore, idx)

	providers := make(map[string]embed.Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[p.Name] = embed.NewDeterministicProvider(p.Name, p.Dimensions, p.BatchSize, p.Concurrency, p.Interval)
	}

	collector := metrics.NewCollector(eventLog, queue, sched)

	a := &App{
		Config:     cfg,
		db:         db,
		rdb:        rdb,
		Log:        eventLog,
		Registry:   registry,
		SchedStore: schedStore,
		Sched:      sched,
		Crawler:    queue,
		CrawlState: crawlState,
		Index:      idx,
		KV:         kvStore,
		Parser:     parserRegistry,
		Dispatcher: dispatcher,
		Embed:      embedPipeline,
		Collector:  collector,
		blobs:      blobs,
		readModels: readModels,
		providers:  providers,
	}

	if err := a.registerSubscribers(); err != nil {
		db.Close()
		return nil, err
	}
	a.registerJobs()

	return a, nil
}

func (a *App) registerSubscribers() error {
	if err := a.Registry.Register(eventlog.Subscription{
		ID:       subscriberFile,
		Topic:    types.TopicFile,
		Grouping: types.GroupSingle,
		Handler:  a.Dispatcher.AsSubscriptionHandler(),
	}); err != nil {
		return fmt.Errorf("app: register parser dispatch subscriber: %w", err)
	}

	proj := newProjector(a.readModels)
	if err := a.Registry.Register(eventlog.Subscription{
		ID:       subscriberProj,
		Topic:    types.TopicParser,
		Grouping: types.GroupAll,
		Handler:  proj.asHandler(),
	}); err != nil {
		return fmt.Errorf("app: register read model projector: %w", err)
	}
	return nil
}

func (a *App) registerJobs() {
	a.Sched.RegisterHandler(resetWindowJob, func(ctx context.Context, _ []byte) error {
		return a.CrawlState.ResetWindow(ctx)
	})
	interval := a.Config.Crawler.WindowInterval
	if _, err := a.Sched.PutJob(resetWindowJob, nil, time.Now().Add(interval), &interval); err != nil {
		log.Logger.Error().Err(err).Msg("failed to schedule crawler window reset job")
	}

	for name, provider := range a.providers {
		cfg := provider.Config()
		a.Sched.RegisterHandler(cfg.JobName, a.Embed.JobHandler(provider, a.readModels, embed.AlbumCollection))
		if _, err := a.Sched.PutJob(cfg.JobName, nil, time.Now().Add(cfg.Interval), &cfg.Interval); err != nil {
			log.Logger.Error().Err(err).Str("provider", name).Msg("failed to schedule embedding refresh job")
		}
	}
}

// PutFile stores raw content for fileName and appends a FileSaved entry,
// the entry point FileService.PutFile drives.
func (a *App) PutFile(fileName types.FileName, data []byte, correlationID string) (types.EventEntry, error) {
	if err := a.blobs.Put(fileName, data); err != nil {
		return types.EventEntry{}, err
	}
	return a.Log.Append(types.TopicFile, types.EventPayload{
		Event: types.Event{
			Kind:      types.EventFileSaved,
			FileSaved: &types.FileSaved{FileName: fileName, Size: int64(len(data))},
		},
		CorrelationID: correlationID,
	})
}

// GetFile returns the raw content previously stored for fileName.
func (a *App) GetFile(ctx context.Context, fileName types.FileName) ([]byte, error) {
	return a.blobs.GetContent(ctx, fileName)
}

// ListFiles returns the names of every file currently in the content
// store, optionally restricted to kind, paginated by offset/limit. This
// backs FileService.ListFiles.
func (a *App) ListFiles(kind types.FileKind, offset, limit int) ([]string, error) {
	all, err := a.blobs.List()
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, name := range all {
		if kind != "" && !strings.HasPrefix(name, string(kind)+":") {
			continue
		}
		matched = append(matched, name)
	}
	sort.Strings(matched)

	if offset >= len(matched) {
		return []string{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// ParseFileContentStore re-runs Parser Dispatch against content already
// in the content store and appends the resulting event to TopicParser,
// without waiting for the FileSaved subscriber loop to pick it up. This
// backs FileService/OperationsService's ParseFileContentStore RPC.
func (a *App) ParseFileContentStore(ctx context.Context, fileName types.FileName) (types.Event, error) {
	data, err := a.blobs.GetContent(ctx, fileName)
	if err != nil {
		return types.Event{}, err
	}
	event := a.Parser.Dispatch(fileName, data)
	if _, err := a.Log.Append(types.TopicParser, types.EventPayload{Event: event}); err != nil {
		return types.Event{}, err
	}
	return event, nil
}

// FlushBackingStore clears the crawler's Redis-backed state (queues,
// dedup/claims hashes, rate-limiter window), for OperationsService's
// FlushBackingStore RPC. It does not touch bbolt: the event log, index,
// and scheduler store are left intact.
func (a *App) FlushBackingStore(ctx context.Context) error {
	if err := a.rdb.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("app: flush backing store: %w", err)
	}
	return nil
}

// Start launches every background loop: the subscriber delivery loops and
// the scheduler tick loop. It returns immediately.
func (a *App) Start(ctx context.Context) {
	a.Registry.Start(ctx)
	a.Sched.Start()
	a.Collector.Start()
}

// Stop stops the scheduler and metrics collector loops and closes the
// shared storage handles. Subscriber loops stop on their own once the
// context passed to Start is canceled.
func (a *App) Stop() error {
	a.Sched.Stop()
	a.Collector.Stop()
	if err := a.rdb.Close(); err != nil {
		return fmt.Errorf("app: close redis client: %w", err)
	}
	return a.db.Close()
}
