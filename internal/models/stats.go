package models

import "time"

// IngestStats counts what happened to the lines read from the tailed file.
type IngestStats struct {
	LinesRead     uint64     `json:"lines_read"`
	EventsApplied uint64     `json:"events_applied"`
	ParseFailures uint64     `json:"parse_failures"` // malformed JSON or bad hardware address
	Unrecognized  uint64     `json:"unrecognized"`
	Ignored       uint64     `json:"ignored"`
	LastEventAt   *time.Time `json:"last_event_at"` // wall clock of the last applied event
}
