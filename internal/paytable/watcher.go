package paytable

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"go.uber.org/zap"
)

// DefaultDebounce 文件事件合并窗口
const DefaultDebounce = 200 * time.Millisecond

// Reloader 可以替换赔付表的目标，*slot.Engine 实现了该接口
type Reloader interface {
	Reload(pt *slot.Paytable)
}

// Watcher 监听赔付表文件，变化后重新构建并替换引擎快照。
// 新文件无效时保留旧快照，只记录错误。
type Watcher struct {
	path     string
	target   Reloader
	logger   *zap.Logger
	debounce time.Duration
	onReload func(pt *slot.Paytable, err error)

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatcherOption 监听器选项
type WatcherOption func(*Watcher)

// WithDebounce 设置事件合并窗口
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook 每次重载尝试后回调，err 非空表示保留了旧快照
func WithReloadHook(fn func(pt *slot.Paytable, err error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher 创建监听器
func NewWatcher(path string, target Reloader, logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("赔付表路径为空")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		path:     abs,
		target:   target,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start 开始监听。监听所在目录，编辑器替换文件（rename）时也能收到事件。
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("监听目录失败: %w", err)
	}
	w.fs = fw

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("开始监听赔付表", zap.String("path", w.path))
	return nil
}

// Stop 停止监听
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.fs.Close()
	w.cancel = nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("文件监听错误", zap.Error(err))
		}
	}
}

// reload 重新读取文件；失败保留旧快照
func (w *Watcher) reload() {
	pt, err := Load(w.path)
	if err != nil {
		w.logger.Error("赔付表重载失败，保留当前版本", zap.String("path", w.path), zap.Error(err))
	} else {
		w.target.Reload(pt)
		w.logger.Info("赔付表文件已重载",
			zap.String("path", w.path),
			zap.String("name", pt.Name),
			zap.Float64("expected_rtp", pt.ExpectedRTP()),
		)
	}
	if w.onReload != nil {
		w.onReload(pt, err)
	}
}
