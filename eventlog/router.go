package eventlog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/tcriess/lightspeed-court/filter"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/types"
)

const (
	defaultQueueSize  = 512
	defaultSinkBuffer = 128
	defaultAreaBuffer = 50
)

// Sink receives log events from the router, one worker goroutine per sink.
type Sink interface {
	Write(*types.LogEvent) error
	Close() error
}

// ModcallSink is implemented by sinks that want the recent history of an area whenever a modcall is raised there.
type ModcallSink interface {
	WriteModcall(modcall *types.LogEvent, recent []*types.LogEvent) error
}

type NamedSink struct {
	Name   string
	Sink   Sink
	Filter *filter.Filter
}

type Config struct {
	QueueSize      int
	AreaBufferSize int
}

// Router fans log events out to the sinks. Emit never blocks: when the queue is full the event is dropped and
// counted.
type Router struct {
	queue  chan *types.LogEvent
	sinks  []*sinkWorker
	logger hclog.Logger

	areaBufferSize int
	buffersLock    sync.Mutex
	buffers        map[string][]*types.LogEvent

	closed  int32
	dropped uint64
	total   uint64
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewRouter(cfg Config, namedSinks []NamedSink) *Router {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	areaBufferSize := cfg.AreaBufferSize
	if areaBufferSize <= 0 {
		areaBufferSize = defaultAreaBuffer
	}
	r := &Router{
		queue:          make(chan *types.LogEvent, queueSize),
		logger:         globals.AppLogger.Named("eventlog"),
		areaBufferSize: areaBufferSize,
		buffers:        make(map[string][]*types.LogEvent),
		done:           make(chan struct{}),
	}
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.sinks = append(r.sinks, &sinkWorker{
			name:   named.Name,
			sink:   named.Sink,
			filter: named.Filter,
			events: make(chan sinkItem, defaultSinkBuffer),
			logger: r.logger.With("sink", named.Name),
		})
	}
	r.start()
	return r
}

func (r *Router) start() {
	r.wg.Add(1)
	go func() {
		defer func() {
			for _, w := range r.sinks {
				close(w.events)
			}
			r.wg.Done()
		}()
		for {
			select {
			case event := <-r.queue:
				r.forward(event)
			case <-r.done:
				for {
					select {
					case event := <-r.queue:
						r.forward(event)
					default:
						return
					}
				}
			}
		}
	}()
	for _, w := range r.sinks {
		r.wg.Add(1)
		go func(w *sinkWorker) {
			defer r.wg.Done()
			w.run()
		}(w)
	}
}

// Emit hands an event to the router. It is safe to call on a nil router.
func (r *Router) Emit(event *types.LogEvent) {
	if r == nil || event == nil || atomic.LoadInt32(&r.closed) == 1 {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	select {
	case r.queue <- event:
	default:
		if atomic.AddUint64(&r.dropped, 1)%100 == 1 {
			r.logger.Warn("queue full, dropping log event", "kind", event.Kind, "dropped", atomic.LoadUint64(&r.dropped))
		}
	}
}

func (r *Router) forward(event *types.LogEvent) {
	atomic.AddUint64(&r.total, 1)
	var recent []*types.LogEvent
	if event.Area != "" {
		recent = r.remember(event)
	}
	for _, w := range r.sinks {
		w.enqueue(sinkItem{event: event, recent: recent})
	}
}

// remember appends the event to its area buffer and returns a snapshot of the buffer if event is a modcall.
func (r *Router) remember(event *types.LogEvent) []*types.LogEvent {
	r.buffersLock.Lock()
	defer r.buffersLock.Unlock()
	buf := r.buffers[event.Area]
	if len(buf) >= r.areaBufferSize {
		buf = buf[1:]
	}
	buf = append(buf, event)
	r.buffers[event.Area] = buf
	if event.Kind != types.LogKindModcall {
		return nil
	}
	return append([]*types.LogEvent(nil), buf...)
}

// Recent returns the buffered events of an area, oldest first.
func (r *Router) Recent(area string) []*types.LogEvent {
	r.buffersLock.Lock()
	defer r.buffersLock.Unlock()
	return append([]*types.LogEvent(nil), r.buffers[area]...)
}

type Stats struct {
	Total   uint64
	Dropped uint64
}

func (r *Router) Stats() Stats {
	return Stats{Total: atomic.LoadUint64(&r.total), Dropped: atomic.LoadUint64(&r.dropped)}
}

// Close flushes the queue and closes all sinks.
func (r *Router) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}
	close(r.done)
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, w := range r.sinks {
		if err := w.sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type sinkItem struct {
	event  *types.LogEvent
	recent []*types.LogEvent
}

type sinkWorker struct {
	name   string
	sink   Sink
	filter *filter.Filter
	events chan sinkItem
	logger hclog.Logger
}

func (w *sinkWorker) enqueue(item sinkItem) {
	select {
	case w.events <- item:
	default:
		w.logger.Warn("backlog full, dropping log event", "kind", item.event.Kind)
	}
}

func (w *sinkWorker) run() {
	for item := range w.events {
		if !w.filter.Match(item.event) {
			continue
		}
		var err error
		if mc, ok := w.sink.(ModcallSink); ok && item.recent != nil {
			err = mc.WriteModcall(item.event, item.recent)
		} else {
			err = w.sink.Write(item.event)
		}
		if err != nil {
			w.logger.Error("could not write log event", "kind", item.event.Kind, "error", err)
		}
	}
}
