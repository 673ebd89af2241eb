package models

import (
	"fmt"
	"strings"
	"time"
)

// EventKind classifies a firmware log record.
type EventKind int

const (
	// EventObserved is a recognized record that is not an association edge.
	EventObserved EventKind = iota
	EventAssociated
	EventDisassociated
)

func (k EventKind) String() string {
	switch k {
	case EventAssociated:
		return "associated"
	case EventDisassociated:
		return "disassociated"
	case EventObserved:
		return "observed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ParseEventKind accepts the lower-case names produced by String.
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "associated":
		return EventAssociated, nil
	case "disassociated":
		return EventDisassociated, nil
	case "observed":
		return EventObserved, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

// Event is one parsed observation of a client on an access point.
type Event struct {
	MAC         string    // canonical lower-case colon form
	AccessPoint string    // host field of the log record
	Kind        EventKind
	Timestamp   time.Time
}
