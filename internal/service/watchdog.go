package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wifi_tracker/internal/logger"
)

const watchdogTimeout = 10 * time.Second

// WatchdogService posts {"text": "..."} once per quiet spell, i.e. when no
// event has been applied for period (or since start). It re-arms as soon
// as events flow again.
type WatchdogService struct {
	url       string
	period    time.Duration
	interval  time.Duration
	lastEvent func() *time.Time
	client    *http.Client
	log       *logger.Logger
	now       func() time.Time

	started time.Time
	fired   bool
}

type watchdogBody struct {
	Text string `json:"text"`
}

func NewWatchdogService(url string, period, interval time.Duration, lastEvent func() *time.Time, log *logger.Logger) *WatchdogService {
	if log == nil {
		log = logger.Nop()
	}
	return &WatchdogService{
		url:       url,
		period:    period,
		interval:  interval,
		lastEvent: lastEvent,
		client:    &http.Client{Timeout: watchdogTimeout},
		log:       log,
		now:       time.Now,
	}
}

// Run ticks at the configured interval until ctx is canceled.
func (s *WatchdogService) Run(ctx context.Context) {
	s.started = s.now()
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.check(ctx)
		}
	}
}

func (s *WatchdogService) check(ctx context.Context) {
	now := s.now()
	since := s.started
	if last := s.lastEvent(); last != nil {
		since = *last
	}
	quiet := now.Sub(since)

	if quiet < s.period {
		if s.fired {
			s.log.Infow("watchdog_rearmed", "quiet_for", quiet)
		}
		s.fired = false
		return
	}
	if s.fired {
		return
	}

	s.log.Warnw("watchdog_quiet", "quiet_for", quiet, "ever_seen", s.lastEvent() != nil)
	if err := s.notify(ctx, quiet); err != nil {
		s.log.Errorw("watchdog_notify_failed", "err", err)
		return
	}
	s.fired = true
}

func (s *WatchdogService) notify(ctx context.Context, quiet time.Duration) error {
	body, err := json.Marshal(watchdogBody{
		Text: fmt.Sprintf("No hostapd events in %d minutes", int(quiet.Minutes())),
	})
	if err != nil {
		return fmt.Errorf("watchdog: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("watchdog: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("watchdog: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("watchdog: HTTP %d", resp.StatusCode)
	}
	return nil
}
