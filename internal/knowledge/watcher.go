package knowledge

import (
	"context"
	"fmt"
	"path/filepath"

	"kb-chatbot-go/pkg/log"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听本地文件来源的变化，只把缓存标记为过期并记录告警，
// 真正的重新加载必须由调用方显式触发。
type Watcher struct {
	watcher *fsnotify.Watcher
	cache   *Cache
	spec    string
	path    string
}

// NewWatcher 为文件来源创建 Watcher；非文件来源返回错误。
func NewWatcher(cache *Cache, resolver SourceResolver, spec string) (*Watcher, error) {
	src, err := resolver.Resolve(spec)
	if err != nil {
		return nil, err
	}
	fileSrc, ok := src.(FileSource)
	if !ok || fileSrc.Path() == "" {
		return nil, fmt.Errorf("source %q is not a local file and cannot be watched", spec)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path, err := filepath.Abs(fileSrc.Path())
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return &Watcher{
		watcher: w,
		cache:   cache,
		spec:    spec,
		path:    path,
	}, nil
}

// Start 监听来源所在目录（编辑器通常以替换文件的方式保存），直到 ctx 结束。
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				w.cache.MarkStale(w.spec)
				log.Warnf("[KnowledgeWatcher] 知识库来源 '%s' 已变化 (%s)，需调用重新加载接口才会生效", w.spec, event.Op)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Error("[KnowledgeWatcher] 监听出错", err)
			}
		}
	}()
	return nil
}

// Stop 停止监听。
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
