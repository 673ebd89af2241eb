package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"wifi_tracker/internal/logger"
	"wifi_tracker/internal/models"
	"wifi_tracker/internal/parser"
	"wifi_tracker/internal/repository"
)

const defaultQueueSize = 256

// IngestService is the single writer of the device table.
type IngestService struct {
	devices   repository.DeviceRepo
	source    LineSource
	parser    EventParser
	queueSize int
	log       *logger.Logger
	now       func() time.Time

	linesRead     atomic.Uint64
	eventsApplied atomic.Uint64
	parseFailures atomic.Uint64
	unrecognized  atomic.Uint64
	ignored       atomic.Uint64
	lastEventNano atomic.Int64 // 0 until the first applied event
}

func NewIngestService(devices repository.DeviceRepo, src LineSource, p EventParser, queueSize int, log *logger.Logger) *IngestService {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &IngestService{
		devices:   devices,
		source:    src,
		parser:    p,
		queueSize: queueSize,
		log:       log,
		now:       time.Now,
	}
}

// Run reads lines through a bounded queue and applies events in arrival
// order. A full queue blocks the source. Lines already queued when ctx is
// cancelled are still applied. The returned error is the source's fatal
// error, or nil after cancellation.
func (s *IngestService) Run(ctx context.Context) error {
	lines := make(chan string, s.queueSize)
	srcErr := make(chan error, 1)

	go func() {
		defer close(lines)
		srcErr <- s.source.Run(ctx, lines)
	}()

	for line := range lines {
		s.process(line)
	}

	err := <-srcErr
	if err != nil {
		s.log.Errorw("ingest_stopped", "err", err)
		return err
	}
	s.log.Infow("ingest_stopped", "events_applied", s.eventsApplied.Load())
	return nil
}

// process never fails: every per-line problem is counted and logged.
func (s *IngestService) process(line string) {
	s.linesRead.Add(1)

	e, err := s.parser.Parse(line)
	switch {
	case errors.Is(err, parser.ErrUnrecognized):
		s.unrecognized.Add(1)
		return
	case err != nil:
		s.parseFailures.Add(1)
		s.log.Debugw("ingest_parse_failed", "err", err, "line", truncate(line, 256))
		return
	case e == nil:
		s.ignored.Add(1)
		return
	}

	created := s.devices.Apply(*e)
	s.eventsApplied.Add(1)
	s.lastEventNano.Store(s.now().UnixNano())

	if created {
		s.log.Infow("device_discovered", "mac", e.MAC, "ap", e.AccessPoint)
	}
	switch e.Kind {
	case models.EventAssociated, models.EventDisassociated:
		s.log.Infow("device_"+e.Kind.String(), "mac", e.MAC, "ap", e.AccessPoint, "at", e.Timestamp)
	default:
		s.log.Debugw("device_observed", "mac", e.MAC, "ap", e.AccessPoint, "at", e.Timestamp)
	}
}

// Stats is safe to call from any goroutine.
func (s *IngestService) Stats() models.IngestStats {
	st := models.IngestStats{
		LinesRead:     s.linesRead.Load(),
		EventsApplied: s.eventsApplied.Load(),
		ParseFailures: s.parseFailures.Load(),
		Unrecognized:  s.unrecognized.Load(),
		Ignored:       s.ignored.Load(),
	}
	if n := s.lastEventNano.Load(); n != 0 {
		t := time.Unix(0, n).UTC()
		st.LastEventAt = &t
	}
	return st
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
