package service

import (
	"context"
	"time"

	"wifi_tracker/internal/logger"
	"wifi_tracker/internal/models"
	"wifi_tracker/internal/repository"
)

// Devices answers read-only queries over the association table.
type Devices interface {
	List(ctx context.Context, f DeviceFilter) ([]models.Device, error)
	Get(ctx context.Context, mac string) (models.Device, error)
	AccessPoints(ctx context.Context) ([]string, error)
}

// Ingest runs the tail -> parse -> apply pipeline for the process lifetime.
type Ingest interface {
	Run(ctx context.Context) error
	Stats() models.IngestStats
}

// Watchdog notifies an external endpoint when ingestion goes quiet.
// Stop via context cancellation in main() for graceful shutdown.
type Watchdog interface {
	Run(ctx context.Context)
}

// LineSource produces raw lines; *tailer.Tailer satisfies it.
type LineSource interface {
	Run(ctx context.Context, out chan<- string) error
}

// EventParser turns one raw line into at most one event; *parser.Parser satisfies it.
type EventParser interface {
	Parse(line string) (*models.Event, error)
}

// Service aggregates all sub-services. Watchdog is nil when disabled.
type Service struct {
	Devices
	Ingest
	Watchdog
}

// Options carries the tuning knobs that are not part of the repositories.
type Options struct {
	QueueSize        int
	WatchdogURL      string
	WatchdogPeriod   time.Duration
	WatchdogInterval time.Duration
	Log              *logger.Logger
}

// NewService wires the repository layer, the line source and the parser
// into concrete services.
func NewService(repos *repository.Repository, src LineSource, p EventParser, opts Options) *Service {
	ingest := NewIngestService(repos.DeviceRepo, src, p, opts.QueueSize, opts.Log)

	s := &Service{
		Devices: NewDeviceService(repos.DeviceRepo),
		Ingest:  ingest,
	}
	if opts.WatchdogURL != "" {
		s.Watchdog = NewWatchdogService(opts.WatchdogURL, opts.WatchdogPeriod, opts.WatchdogInterval,
			func() *time.Time { return ingest.Stats().LastEventAt }, opts.Log)
	}
	return s
}
