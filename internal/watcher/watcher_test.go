package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/types"
)

type fakeImports struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeImports) Enqueue(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return "task_test", nil
}

func (f *fakeImports) enqueued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []types.FileEvent
}

func (p *fakePublisher) Publish(msgType string, data interface{}) {
	if msgType != types.MsgFileMonitoring {
		return
	}
	ev, ok := data.(types.FileEvent)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *fakePublisher) published() []types.FileEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.FileEvent(nil), p.events...)
}

func startWatcher(t *testing.T, dir string) (*fakeImports, *fakePublisher) {
	t.Helper()
	imports := &fakeImports{}
	pub := &fakePublisher{}

	w, err := New(dir, "**/*.jsonl", imports, pub, logging.NewNop())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return imports, pub
}

func TestNewFileIsAnnouncedAndImported(t *testing.T) {
	dir := t.TempDir()
	imports, pub := startWatcher(t, dir)

	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	require.Eventually(t, func() bool {
		return len(imports.enqueued()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, path, imports.enqueued()[0])

	events := pub.published()
	require.NotEmpty(t, events)
	assert.Equal(t, path, events[0].Path)
	assert.Contains(t, []string{"created", "modified"}, events[0].Event)
}

func TestNonMatchingFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	imports, pub := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, imports.enqueued())
	assert.Empty(t, pub.published())
}

func TestWriteBurstIsDebouncedToOneImport(t *testing.T) {
	dir := t.TempDir()
	imports, _ := startWatcher(t, dir)

	path := filepath.Join(dir, "burst.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("{}\n")
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return len(imports.enqueued()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Quiet period; no further imports may fire for the same burst.
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, imports.enqueued(), 1)
}

func TestRemovedFileIsAnnounced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	imports, pub := startWatcher(t, dir)
	require.Eventually(t, func() bool {
		return len(imports.enqueued()) >= 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		for _, ev := range pub.published() {
			if ev.Event == "removed" && ev.Path == path {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	imports, _ := startWatcher(t, dir)

	sub := filepath.Join(dir, "2026-08")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "late.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	require.Eventually(t, func() bool {
		for _, p := range imports.enqueued() {
			if p == path {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidPatternRejected(t *testing.T) {
	_, err := New(t.TempDir(), "[", &fakeImports{}, &fakePublisher{}, logging.NewNop())
	assert.Error(t, err)
}
