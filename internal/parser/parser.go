// Package parser turns collector log lines into association events.
//
// The collector (syslog-ng) writes one JSON object per line using
//
//	template("$(format-json host=$HOST program=$PROGRAM timestamp=$ISODATE message=$MESSAGE)")
//
// and the firmware message is matched against an ordered rule table.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"wifi_tracker/internal/models"
)

// KindIgnored marks rules whose records are recognized and dropped.
const KindIgnored = "ignored"

// macGroup is the named capture every rule must define.
const macGroup = "mac"

var (
	ErrMalformedRecord = errors.New("malformed log record")
	ErrUnrecognized    = errors.New("unrecognized message")
	ErrInvalidRule     = errors.New("invalid parser rule")
)

// Rule maps a firmware message regex to an event kind.
type Rule struct {
	Kind  string `mapstructure:"kind"`  // associated | disassociated | observed | ignored
	Regex string `mapstructure:"regex"` // must contain (?P<mac>...)
}

// DefaultRules covers hostapd as shipped on common AP firmware.
var DefaultRules = []Rule{
	{Kind: "associated", Regex: `STA (?P<mac>\S+) IEEE 802\.11: associated`},
	{Kind: "associated", Regex: `AP-STA-CONNECTED (?P<mac>\S+)`},
	{Kind: "disassociated", Regex: `STA (?P<mac>\S+) IEEE 802\.11: disassociated`},
	{Kind: "disassociated", Regex: `AP-STA-DISCONNECTED (?P<mac>\S+)`},
	{Kind: "observed", Regex: `STA (?P<mac>\S+) WPA: (?:pairwise|group) key handshake completed`},
	{Kind: "observed", Regex: `STA (?P<mac>\S+) IEEE 802\.11: authenticated`},
	{Kind: KindIgnored, Regex: `STA (?P<mac>\S+) RADIUS: starting accounting session`},
}

type pattern struct {
	kind   models.EventKind
	ignore bool
	re     *regexp.Regexp
	macIdx int
}

// record is the collector's JSON line shape.
type record struct {
	Host      string `json:"host"`
	Program   string `json:"program"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Parser is safe for concurrent use once constructed.
type Parser struct {
	patterns []pattern
	programs map[string]struct{}
	now      func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithPrograms restricts parsing to records whose program field is listed.
// Records without a program field are always considered.
func WithPrograms(programs ...string) Option {
	return func(p *Parser) {
		for _, prog := range programs {
			if prog = strings.TrimSpace(prog); prog != "" {
				p.programs[prog] = struct{}{}
			}
		}
	}
}

// WithClock sets the fallback clock used when a record has no usable timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New compiles rules in order. An empty rule list selects DefaultRules.
func New(rules []Rule, opts ...Option) (*Parser, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	p := &Parser{
		programs: make(map[string]struct{}),
		now:      time.Now,
	}
	for i, r := range rules {
		pt, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		p.patterns = append(p.patterns, pt)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func compileRule(r Rule) (pattern, error) {
	var pt pattern
	if strings.EqualFold(strings.TrimSpace(r.Kind), KindIgnored) {
		pt.ignore = true
	} else {
		kind, err := models.ParseEventKind(r.Kind)
		if err != nil {
			return pattern{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		pt.kind = kind
	}

	re, err := regexp.Compile(r.Regex)
	if err != nil {
		return pattern{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	idx := re.SubexpIndex(macGroup)
	if idx < 0 {
		return pattern{}, fmt.Errorf("%w: %q has no (?P<%s>...) group", ErrInvalidRule, r.Regex, macGroup)
	}
	pt.re = re
	pt.macIdx = idx
	return pt, nil
}

// Parse converts one line into an event.
// It returns (nil, nil) for records that are recognized but carry nothing to
// apply (filtered program, ignored rule). Every other non-event outcome is an
// error wrapping ErrMalformedRecord, ErrUnrecognized or
// models.ErrInvalidHardwareAddress.
func (p *Parser) Parse(line string) (*models.Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedRecord)
	}

	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	host := strings.TrimSpace(rec.Host)
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrMalformedRecord)
	}

	if !p.acceptsProgram(rec.Program) {
		return nil, nil
	}

	pt, raw, ok := p.match(rec.Message)
	if !ok {
		return nil, ErrUnrecognized
	}
	if pt.ignore {
		return nil, nil
	}

	mac, err := models.NormalizeMAC(raw)
	if err != nil {
		return nil, err
	}

	return &models.Event{
		MAC:         mac,
		AccessPoint: host,
		Kind:        pt.kind,
		Timestamp:   p.timestamp(rec.Timestamp),
	}, nil
}

func (p *Parser) acceptsProgram(program string) bool {
	if len(p.programs) == 0 || program == "" {
		return true
	}
	_, ok := p.programs[program]
	return ok
}

// match returns the first rule matching msg and the raw mac capture.
func (p *Parser) match(msg string) (pattern, string, bool) {
	for _, pt := range p.patterns {
		m := pt.re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		return pt, m[pt.macIdx], true
	}
	return pattern{}, "", false
}

// timestamp falls back to the processing time when the record's own
// timestamp is absent or unparsable.
func (p *Parser) timestamp(s string) time.Time {
	if s = strings.TrimSpace(s); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
	}
	return p.now().UTC()
}
