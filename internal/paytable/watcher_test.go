package paytable

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-payout/internal/game/slot"
)

// reloadRecorder 记录每次重载结果
type reloadRecorder struct {
	mu     sync.Mutex
	loaded []string
	errs   int
}

func (r *reloadRecorder) hook(pt *slot.Paytable, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs++
		return
	}
	r.loaded = append(r.loaded, pt.Name)
}

func (r *reloadRecorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.loaded...), r.errs
}

func TestWatcher_ReloadsEngine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, miniPaytable)

	pt, err := Load(path)
	require.NoError(t, err)
	engine := slot.NewEngine(pt)

	rec := &reloadRecorder{}
	w, err := NewWatcher(path, engine, nil, WithDebounce(20*time.Millisecond), WithReloadHook(rec.hook))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	updated := strings.Replace(miniPaytable, "name: mini", "name: mini_v2", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	require.Eventually(t, func() bool {
		return engine.Paytable().Name == "mini_v2"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(1), engine.Statistics().Reloads)

	// 无效文件不替换当前快照
	require.NoError(t, os.WriteFile(path, []byte("name: broken\nunknown: 1\n"), 0644))
	require.Eventually(t, func() bool {
		_, errs := rec.snapshot()
		return errs > 0
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "mini_v2", engine.Paytable().Name)

	loaded, _ := rec.snapshot()
	assert.Contains(t, loaded, "mini_v2")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, miniPaytable)
	pt, err := Load(path)
	require.NoError(t, err)
	engine := slot.NewEngine(pt)

	rec := &reloadRecorder{}
	w, err := NewWatcher(path, engine, nil, WithDebounce(10*time.Millisecond), WithReloadHook(rec.hook))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(dir+"/other.yaml", []byte("x: 1"), 0644))
	time.Sleep(200 * time.Millisecond)
	w.Stop()

	loaded, errs := rec.snapshot()
	assert.Empty(t, loaded)
	assert.Zero(t, errs)
	assert.Equal(t, int64(0), engine.Statistics().Reloads)
}

func TestNewWatcher_EmptyPath(t *testing.T) {
	_, err := NewWatcher("", slot.NewEngine(nil), nil)
	assert.Error(t, err)
}
