// Package tailer follows an append-only log file across truncation and
// replacement, emitting complete newline-terminated lines.
package tailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"

	"wifi_tracker/internal/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultPollInterval   = 250 * time.Millisecond
	DefaultBackoffInitial = 250 * time.Millisecond
	DefaultBackoffMax     = 5 * time.Second

	readBufferSize = 32 << 10
	maxLineBytes   = 1 << 20 // longer records are dropped
	headBytes      = 256     // prefix compared to catch truncate-then-regrow
)

// ErrNotRegularFile is fatal: the path exists but can never be tailed.
var ErrNotRegularFile = errors.New("not a regular file")

// Tailer owns the open handle, its identity and the read offset. It is
// driven by exactly one goroutine through Run.
type Tailer struct {
	path         string
	pollInterval time.Duration
	fromStart    bool
	watch        bool
	backoff      *backoff.ExponentialBackOff
	log          *logger.Logger

	file    *os.File
	info    os.FileInfo
	offset  int64
	partial []byte
	buf     []byte

	// head is the first bytes consumed from the file. A different prefix
	// at the same identity and a size past offset means it was rewritten.
	head []byte
	// discarding drops input up to the next newline after an oversized line.
	discarding bool
}

// Option configures a Tailer.
type Option func(*Tailer)

func WithPollInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithFromStart controls whether a file present at startup is read from the
// beginning (replay) or from its current end. Files that appear later, or
// replace a rotated one, are always read from the beginning.
func WithFromStart(fromStart bool) Option {
	return func(t *Tailer) { t.fromStart = fromStart }
}

// WithWatch enables fsnotify wake-ups on top of polling.
func WithWatch(watch bool) Option {
	return func(t *Tailer) { t.watch = watch }
}

// WithBackoff bounds the retry delay used while the file is missing or unreadable.
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(t *Tailer) {
		if initial > 0 {
			t.backoff.InitialInterval = initial
		}
		if maxInterval > 0 {
			t.backoff.MaxInterval = maxInterval
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(t *Tailer) {
		if l != nil {
			t.log = l
		}
	}
}

// New prepares a tailer for path. Nothing is opened until Run.
func New(path string, opts ...Option) *Tailer {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultBackoffInitial
	b.MaxInterval = DefaultBackoffMax

	t := &Tailer{
		path:         filepath.Clean(path),
		pollInterval: DefaultPollInterval,
		fromStart:    true,
		watch:        true,
		backoff:      b,
		log:          logger.Nop(),
		buf:          make([]byte, readBufferSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.backoff.Reset()
	return t
}

// Run sends every complete line to out until ctx is cancelled, blocking
// while out is full. Transient failures are logged and retried; only
// ErrNotRegularFile ends the sequence early. Run returns nil on cancellation.
func (t *Tailer) Run(ctx context.Context, out chan<- string) error {
	defer t.closeFile()

	wake, stopWatch := t.startWatcher()
	defer stopWatch()

	seekEnd := !t.fromStart
	for {
		if ctx.Err() != nil {
			return nil
		}

		if t.file == nil {
			err := t.open(seekEnd)
			seekEnd = false
			if err != nil {
				if errors.Is(err, ErrNotRegularFile) {
					t.log.Errorw("tail_fatal", "path", t.path, "err", err)
					return err
				}
				delay := t.backoff.NextBackOff()
				t.log.Warnw("tail_open_failed", "path", t.path, "err", err, "retry_in", delay)
				if !sleep(ctx, delay, nil) {
					return nil
				}
				continue
			}
			t.backoff.Reset()
			t.log.Infow("tail_opened", "path", t.path, "offset", t.offset)
		}

		n, err := t.readLines(ctx, out)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			t.log.Warnw("tail_read_failed", "path", t.path, "err", err)
			t.closeFile()
			continue
		}
		if n > 0 {
			continue
		}

		rotated, err := t.rotated()
		switch {
		case err != nil && errors.Is(err, os.ErrNotExist):
			t.log.Debugw("tail_path_missing", "path", t.path)
		case err != nil:
			t.log.Warnw("tail_stat_failed", "path", t.path, "err", err)
		case rotated:
			t.log.Infow("tail_rotated", "path", t.path, "offset", t.offset, "dropped_partial_bytes", len(t.partial))
			t.closeFile()
			continue
		}

		if !sleep(ctx, t.pollInterval, wake) {
			return nil
		}
	}
}

// open replaces the current handle with a fresh one on t.path.
func (t *Tailer) open(seekEnd bool) error {
	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return fmt.Errorf("%w: %s", ErrNotRegularFile, t.path)
	}

	var offset int64
	t.head = t.head[:0]
	if seekEnd {
		if offset, err = f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return err
		}
		head := make([]byte, min(offset, headBytes))
		n, _ := f.ReadAt(head, 0)
		t.head = append(t.head, head[:n]...)
	}

	t.file = f
	t.info = info
	t.offset = offset
	t.partial = t.partial[:0]
	t.discarding = false
	return nil
}

func (t *Tailer) closeFile() {
	if t.file != nil {
		_ = t.file.Close()
	}
	t.file = nil
	t.info = nil
	t.offset = 0
	t.partial = t.partial[:0]
	t.head = t.head[:0]
	t.discarding = false
}

// rotated reports whether t.path now names a different file, or the same
// file cut below what was already consumed.
func (t *Tailer) rotated() (bool, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return false, err
	}
	if !os.SameFile(t.info, info) {
		return true, nil
	}
	if info.Size() < t.offset {
		return true, nil
	}
	return t.headChanged()
}

// headChanged re-reads the remembered prefix in place.
func (t *Tailer) headChanged() (bool, error) {
	if len(t.head) == 0 {
		return false, nil
	}
	cur := make([]byte, len(t.head))
	n, err := t.file.ReadAt(cur, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return !bytes.Equal(cur[:n], t.head), nil
}

// remember appends to head the part of chunk, read at start, that still
// falls inside the first headBytes of the file.
func (t *Tailer) remember(start int64, chunk []byte) {
	have := int64(len(t.head))
	if have >= headBytes || start > have {
		return
	}
	chunk = chunk[have-start:]
	if need := int(headBytes - have); len(chunk) > need {
		chunk = chunk[:need]
	}
	t.head = append(t.head, chunk...)
}

// readLines drains the handle to EOF and returns the number of bytes read.
func (t *Tailer) readLines(ctx context.Context, out chan<- string) (int, error) {
	total := 0
	for {
		start := t.offset
		n, err := t.file.Read(t.buf)
		if n > 0 {
			t.remember(start, t.buf[:n])
			t.offset += int64(n)
			total += n
			if err := t.emit(ctx, out, t.buf[:n]); err != nil {
				return total, err
			}
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// emit splits chunk on newlines, sends complete lines and keeps the
// unterminated tail for the next read.
func (t *Tailer) emit(ctx context.Context, out chan<- string, chunk []byte) error {
	if t.discarding {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			return nil
		}
		chunk = chunk[i+1:]
		t.discarding = false
	}

	data := append(t.partial, chunk...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		raw := data[:i]
		data = data[i+1:]
		if len(raw) > maxLineBytes {
			t.log.Warnw("tail_line_too_long", "path", t.path, "bytes", len(raw))
			continue
		}
		line := string(bytes.TrimRight(raw, "\r"))

		select {
		case out <- line:
		case <-ctx.Done():
			t.partial = append(t.partial[:0], data...)
			return ctx.Err()
		}
	}

	if len(data) > maxLineBytes {
		t.log.Warnw("tail_line_too_long", "path", t.path, "bytes", len(data))
		data = data[:0]
		t.discarding = true
	}
	// data may alias t.partial's backing array; copy forward is safe.
	t.partial = append(t.partial[:0], data...)
	return nil
}

// startWatcher wakes the poll loop on writes, creates and renames in the
// log directory. Failure to watch only costs latency.
func (t *Tailer) startWatcher() (<-chan struct{}, func()) {
	if !t.watch {
		return nil, func() {}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.log.Debugw("tail_watch_unavailable", "err", err)
		return nil, func() {}
	}
	if err := w.Add(filepath.Dir(t.path)); err != nil {
		t.log.Debugw("tail_watch_unavailable", "dir", filepath.Dir(t.path), "err", err)
		_ = w.Close()
		return nil, func() {}
	}

	wake := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != t.path {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				t.log.Debugw("tail_watch_error", "err", err)
			}
		}
	}()

	return wake, func() {
		_ = w.Close()
		<-done
	}
}

// sleep waits for d, a wake signal or cancellation. It returns false only
// when ctx is done.
func sleep(ctx context.Context, d time.Duration, wake <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-wake:
		return true
	}
}
