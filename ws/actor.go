package ws

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/room"
	"golang.org/x/time/rate"
)

const taskChannelSize = 256

// AreaSummary is the read-only view of an area that is published after every task. It is read without
// synchronisation by ARUP updates and area listings.
type AreaSummary struct {
	Index   int
	Name    string
	Hub     int
	Players int
	Status  string
	CMs     string
	Lock    string
}

type task struct {
	f func(*room.Area)
	// finished is closed once f ran and the summary is published
	finished chan struct{}
}

type testimonyEdit int

const (
	editNone testimonyEdit = iota
	editAdd
	editUpdate
)

// AreaActor owns one room.Area. All reads and writes of the area happen in tasks running on the actor goroutine,
// so handlers can validate, mutate and broadcast as one unit.
type AreaActor struct {
	area  *room.Area
	tasks chan task
	done  chan struct{}

	summary   atomic.Value
	summarize func(*room.Area) AreaSummary
	onPublish func(prev, next AreaSummary)

	logger hclog.Logger

	// only touched from the actor goroutine
	icLimiter     *rate.Limiter
	testimonyEdit testimonyEdit
}

func NewAreaActor(area *room.Area, summarize func(*room.Area) AreaSummary) *AreaActor {
	a := &AreaActor{
		area:      area,
		tasks:     make(chan task, taskChannelSize),
		done:      make(chan struct{}),
		summarize: summarize,
		logger:    globals.AppLogger.Named("actor").With("area", area.Name()),
	}
	area.SetScheduler(a)
	a.summary.Store(summarize(area))
	return a
}

func (a *AreaActor) Index() int {
	return a.area.Index()
}

// Summary returns the summary published after the last task.
func (a *AreaActor) Summary() AreaSummary {
	return a.summary.Load().(AreaSummary)
}

// Run executes posted tasks until ctx is cancelled.
func (a *AreaActor) Run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case t := <-a.tasks:
			a.run(t)
		case <-ctx.Done():
			a.logger.Debug("area actor stopped")
			return
		}
	}
}

func (a *AreaActor) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("area task panicked", "panic", r)
		}
		a.publish()
		if t.finished != nil {
			close(t.finished)
		}
	}()
	t.f(a.area)
}

func (a *AreaActor) publish() {
	prev := a.Summary()
	next := a.summarize(a.area)
	if prev == next {
		return
	}
	a.summary.Store(next)
	if a.onPublish != nil {
		a.onPublish(prev, next)
	}
}

// Do runs f on the actor and waits for it to finish. It must not be called from inside a task. It returns false
// if the actor has stopped.
func (a *AreaActor) Do(f func(*room.Area)) bool {
	finished := make(chan struct{})
	select {
	case a.tasks <- task{f: f, finished: finished}:
	case <-a.done:
		return false
	}
	select {
	case <-finished:
		return true
	case <-a.done:
		return false
	}
}

// Post queues f without waiting for it.
func (a *AreaActor) Post(f func(*room.Area)) {
	select {
	case a.tasks <- task{f: f}:
	case <-a.done:
	}
}

// actorTimer drops the posted callback if it was stopped before the task ran.
type actorTimer struct {
	timer   *time.Timer
	stopped bool
}

func (t *actorTimer) Stop() bool {
	t.stopped = true
	return t.timer.Stop()
}

// AfterFunc implements room.Scheduler: f runs as a task on the actor once d has elapsed.
func (a *AreaActor) AfterFunc(d time.Duration, f func()) room.Timer {
	t := &actorTimer{}
	t.timer = time.AfterFunc(d, func() {
		a.Post(func(*room.Area) {
			if !t.stopped {
				f()
			}
		})
	})
	return t
}
