package metrics

import (
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// EventLogSource is the subset of pkg/eventlog.Log the collector polls.
type EventLogSource interface {
	Topics() []types.Topic
	CursorLags(topic types.Topic) (map[string]int64, error)
}

// QueueSource is the subset of pkg/crawler.Queue the collector polls.
type QueueSource interface {
	Depths() (map[types.Priority]int, error)
	Status() types.CrawlerStatus
}

// SchedulerSource is the subset of pkg/scheduler.Scheduler the collector polls.
type SchedulerSource interface {
	PendingCount() (int, error)
}

// Collector polls the fabric's stateful components on an interval and
// mirrors their state into the gauges declared in metrics.go, the way
// the teacher's Collector polled its manager for cluster state.
type Collector struct {
	eventlog  EventLogSource
	queue     QueueSource
	scheduler SchedulerSource
	stopCh    chan struct{}
}

// NewCollector creates a new metrics collector. Any source may be nil if
// that component isn't wired in this process.
func NewCollector(eventlog EventLogSource, queue QueueSource, scheduler SchedulerSource) *Collector {
	return &Collector{
		eventlog:  eventlog,
		queue:     queue,
		scheduler: scheduler,
		stopCh:    make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectEventLogMetrics()
	c.collectQueueMetrics()
	c.collectSchedulerMetrics()
}

func (c *Collector) collectEventLogMetrics() {
	if c.eventlog == nil {
		return
	}
	for _, topic := range c.eventlog.Topics() {
		lags, err := c.eventlog.CursorLags(topic)
		if err != nil {
			continue
		}
		for subscriberID, lag := range lags {
			SubscriberCursorLag.WithLabelValues(string(topic), subscriberID).Set(float64(lag))
		}
	}
}

func (c *Collector) collectQueueMetrics() {
	if c.queue == nil {
		return
	}
	depths, err := c.queue.Depths()
	if err == nil {
		for priority, depth := range depths {
			QueueDepth.WithLabelValues(priority.String()).Set(float64(depth))
		}
	}

	current := c.queue.Status()
	for _, status := range []types.CrawlerStatus{
		types.CrawlerPaused, types.CrawlerRunning, types.CrawlerDraining, types.CrawlerThrottled,
	} {
		value := 0.0
		if status == current {
			value = 1.0
		}
		CrawlerStatusGauge.WithLabelValues(string(status)).Set(value)
	}
}

func (c *Collector) collectSchedulerMetrics() {
	if c.scheduler == nil {
		return
	}
	pending, err := c.scheduler.PendingCount()
	if err != nil {
		return
	}
	JobsPending.Set(float64(pending))
}
