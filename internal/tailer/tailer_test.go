package tailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

type harness struct {
	path   string
	lines  chan string
	errCh  chan error
	cancel context.CancelFunc
}

func startTailer(t *testing.T, path string, opts ...Option) *harness {
	t.Helper()
	opts = append([]Option{
		WithPollInterval(10 * time.Millisecond),
		WithBackoff(10*time.Millisecond, 50*time.Millisecond),
		WithWatch(false),
	}, opts...)
	tl := New(path, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		path:   path,
		lines:  make(chan string, 16),
		errCh:  make(chan error, 1),
		cancel: cancel,
	}
	go func() { h.errCh <- tl.Run(ctx, h.lines) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.errCh:
		case <-time.After(waitFor):
			t.Errorf("tailer did not stop")
		}
	})
	return h
}

func (h *harness) next(t *testing.T) string {
	t.Helper()
	select {
	case l := <-h.lines:
		return l
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for a line")
		return ""
	}
}

func (h *harness) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case l := <-h.lines:
		t.Fatalf("unexpected line %q", l)
	case <-time.After(d):
	}
}

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestTailer_ReadsExistingAndAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "one\ntwo\r\n")

	h := startTailer(t, path)
	assert.Equal(t, "one", h.next(t))
	assert.Equal(t, "two", h.next(t))

	appendFile(t, path, "three\n")
	assert.Equal(t, "three", h.next(t))
}

func TestTailer_HoldsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "par")

	h := startTailer(t, path)
	h.expectNone(t, 100*time.Millisecond)

	appendFile(t, path, "tial\nnext")
	assert.Equal(t, "partial", h.next(t))
	h.expectNone(t, 100*time.Millisecond)

	appendFile(t, path, "\n")
	assert.Equal(t, "next", h.next(t))
}

func TestTailer_TruncationRestartsWithoutDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "first line\nsecond line\n")

	h := startTailer(t, path)
	assert.Equal(t, "first line", h.next(t))
	assert.Equal(t, "second line", h.next(t))

	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	assert.Equal(t, "x", h.next(t))
	h.expectNone(t, 100*time.Millisecond)

	appendFile(t, path, "y\n")
	assert.Equal(t, "y", h.next(t))
}

func TestTailer_TruncateToZeroThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "one\ntwo\n")

	h := startTailer(t, path)
	assert.Equal(t, "one", h.next(t))
	assert.Equal(t, "two", h.next(t))

	require.NoError(t, os.Truncate(path, 0))
	h.expectNone(t, 50*time.Millisecond)

	appendFile(t, path, "three\n")
	assert.Equal(t, "three", h.next(t))
	h.expectNone(t, 100*time.Millisecond)
}

func TestTailer_RewriteLongerThanOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "aaaa\n")

	h := startTailer(t, path)
	assert.Equal(t, "aaaa", h.next(t))

	require.NoError(t, os.WriteFile(path, []byte("first-after-rotate\nsecond\n"), 0o644))
	assert.Equal(t, "first-after-rotate", h.next(t))
	assert.Equal(t, "second", h.next(t))
	h.expectNone(t, 100*time.Millisecond)
}

func TestRotated_SameFileRewrittenPastOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "aaaa\n")

	tl := New(path)
	require.NoError(t, tl.open(false))
	defer tl.closeFile()

	out := make(chan string, 4)
	n, err := tl.readLines(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "aaaa", <-out)

	rotated, err := tl.rotated()
	require.NoError(t, err)
	assert.False(t, rotated)

	appendFile(t, path, "bbbb\n")
	rotated, err = tl.rotated()
	require.NoError(t, err)
	assert.False(t, rotated, "appending keeps the prefix")

	require.NoError(t, os.WriteFile(path, []byte("first-after-rotate\nsecond\n"), 0o644))
	rotated, err = tl.rotated()
	require.NoError(t, err)
	assert.True(t, rotated)
}

func TestRotated_FromEndRemembersPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "abc\n")

	tl := New(path, WithFromStart(false))
	require.NoError(t, tl.open(true))
	defer tl.closeFile()
	assert.Equal(t, "abc\n", string(tl.head))

	require.NoError(t, os.WriteFile(path, []byte("xyz\nmore\n"), 0o644))
	rotated, err := tl.rotated()
	require.NoError(t, err)
	assert.True(t, rotated)
}

func TestTailer_FollowsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages")
	appendFile(t, path, "old\n")

	h := startTailer(t, path)
	assert.Equal(t, "old", h.next(t))

	require.NoError(t, os.Rename(path, filepath.Join(dir, "messages.1")))
	appendFile(t, path, "new one\nnew two\nnew three, longer than before\n")

	assert.Equal(t, "new one", h.next(t))
	assert.Equal(t, "new two", h.next(t))
	assert.Equal(t, "new three, longer than before", h.next(t))
	h.expectNone(t, 100*time.Millisecond)
}

func TestTailer_WaitsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")

	h := startTailer(t, path)
	h.expectNone(t, 50*time.Millisecond)

	appendFile(t, path, "hello\n")
	assert.Equal(t, "hello", h.next(t))
}

func TestTailer_FromEndSkipsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "history\n")

	h := startTailer(t, path, WithFromStart(false))
	h.expectNone(t, 100*time.Millisecond)

	appendFile(t, path, "live\n")
	assert.Equal(t, "live", h.next(t))
}

func TestTailer_DirectoryIsFatal(t *testing.T) {
	dir := t.TempDir()
	tl := New(dir, WithWatch(false))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	err := tl.Run(ctx, make(chan string))
	assert.ErrorIs(t, err, ErrNotRegularFile)
}

func TestTailer_CancelWhileBlockedOnSend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "a\nb\nc\n")

	tl := New(path, WithWatch(false), WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan string) // unbuffered and never read: backpressure

	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx, out) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTailer_WatchWakesReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	appendFile(t, path, "")

	// Long poll interval: delivery within the deadline relies on fsnotify,
	// falling back to the poll if the platform cannot watch.
	h := startTailer(t, path, WithWatch(true), WithPollInterval(time.Second))
	time.Sleep(50 * time.Millisecond)

	appendFile(t, path, "woke\n")
	assert.Equal(t, "woke", h.next(t))
}

func TestEmit_SplitsAndKeepsRemainder(t *testing.T) {
	tl := New("unused")
	out := make(chan string, 8)

	require.NoError(t, tl.emit(context.Background(), out, []byte("a\nb")))
	require.NoError(t, tl.emit(context.Background(), out, []byte("c\n\nd")))

	close(out)
	var got []string
	for l := range out {
		got = append(got, l)
	}
	assert.Equal(t, []string{"a", "bc", ""}, got)
	assert.Equal(t, "d", string(tl.partial))
}

func TestEmit_DropsRestOfOversizedLine(t *testing.T) {
	tl := New("unused")
	out := make(chan string, 8)

	record := `{"host":"ap","timestamp":"2024-01-02T12:00:00Z","message":"AP-STA-CONNECTED 00:00:00:00:00:09"}`
	input := []byte(strings.Repeat("B", maxLineBytes+readBufferSize) + record + "\nok\n")
	for len(input) > 0 {
		n := min(readBufferSize, len(input))
		require.NoError(t, tl.emit(context.Background(), out, input[:n]))
		input = input[n:]
	}

	close(out)
	var got []string
	for l := range out {
		got = append(got, l)
	}
	assert.Equal(t, []string{"ok"}, got)
	assert.False(t, tl.discarding)
	assert.Empty(t, tl.partial)
}

func TestEmit_DropsOversizedLineInOneChunk(t *testing.T) {
	tl := New("unused")
	out := make(chan string, 8)

	chunk := []byte(strings.Repeat("B", maxLineBytes+1) + "\nok\n")
	require.NoError(t, tl.emit(context.Background(), out, chunk))

	close(out)
	var got []string
	for l := range out {
		got = append(got, l)
	}
	assert.Equal(t, []string{"ok"}, got)
}
