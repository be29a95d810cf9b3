package eventlog

import (
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/types"
)

// HCLogSink writes events through a named hclog logger.
type HCLogSink struct {
	logger hclog.Logger
}

func NewHCLogSink(logger hclog.Logger) *HCLogSink {
	return &HCLogSink{logger: logger}
}

func (s *HCLogSink) Write(event *types.LogEvent) error {
	s.logger.Info(Format(event), "kind", event.Kind)
	return nil
}

func (s *HCLogSink) Close() error {
	return nil
}

// FileSink appends formatted lines to a file. An exclusive flock is held around every write, so several server
// processes (or an external reader rotating the file) can share it.
type FileSink struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "could not open log file")
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &FileSink{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *FileSink) Write(event *types.LogEvent) error {
	return s.appendLines(Format(event))
}

// WriteModcall writes the modcall followed by the recent history of the area.
func (s *FileSink) WriteModcall(modcall *types.LogEvent, recent []*types.LogEvent) error {
	lines := make([]string, 0, len(recent)+2)
	lines = append(lines, Format(modcall), fmt.Sprintf("--- last %d events in %s ---", len(recent), modcall.Area))
	for _, e := range recent {
		lines = append(lines, Format(e))
	}
	return s.appendLines(lines...)
}

func (s *FileSink) appendLines(lines ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(err, "could not lock log file")
	}
	defer s.lock.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "could not open log file")
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			f.Close()
			return errors.Wrap(err, "could not write log file")
		}
	}
	return f.Close()
}

func (s *FileSink) Close() error {
	return nil
}

// MemorySink keeps every event in memory.
type MemorySink struct {
	mu       sync.RWMutex
	events   []*types.LogEvent
	modcalls [][]*types.LogEvent
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(event *types.LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) WriteModcall(modcall *types.LogEvent, recent []*types.LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, modcall)
	s.modcalls = append(s.modcalls, recent)
	return nil
}

func (s *MemorySink) Events() []*types.LogEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*types.LogEvent(nil), s.events...)
}

func (s *MemorySink) Modcalls() [][]*types.LogEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([][]*types.LogEvent(nil), s.modcalls...)
}

func (s *MemorySink) Close() error {
	return nil
}
