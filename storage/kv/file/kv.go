// Package file persists each collection as one JSON file per key in a flat
// directory. A watcher built on fsnotify turns external writes into
// storage-mutated bus events so counts recompute when another process (or a
// manual edit) touches the store.
package file

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/syncbus"
)

const ext = ".json"

type store struct {
	dir string
	mu  sync.RWMutex
}

var _ core.KV = (*store)(nil)

func NewStore(dir string) (*store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrapf(err, "creating storage dir %q", dir)
	}
	return &store{dir: dir}, nil
}

func (s *store) path(key string) string {
	return filepath.Join(s.dir, key+ext)
}

func (s *store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := ioutil.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrKeyNotFound
		}
		return nil, pkgerrors.Wrapf(err, "reading key %q", key)
	}
	return data, nil
}

// Set writes atomically via a temp file rename so watchers never observe a
// half-written value.
func (s *store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := ioutil.TempFile(s.dir, key+".tmp-*")
	if err != nil {
		return pkgerrors.Wrapf(err, "writing key %q", key)
	}
	if _, err = tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return pkgerrors.Wrapf(err, "writing key %q", key)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return pkgerrors.Wrapf(err, "writing key %q", key)
	}
	return pkgerrors.Wrapf(os.Rename(tmp.Name(), s.path(key)), "writing key %q", key)
}

// Watch publishes a storage-mutated event for every created or rewritten key
// until done is closed. It reports its own writes too; recomputation is
// idempotent so the extra events are harmless.
func (s *store) Watch(bus *syncbus.Bus, log core.Logger, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.Wrap(err, "starting storage watcher")
	}
	if err = watcher.Add(s.dir); err != nil {
		watcher.Close()
		return pkgerrors.Wrapf(err, "watching storage dir %q", s.dir)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-done:
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				name := filepath.Base(evt.Name)
				if !strings.HasSuffix(name, ext) {
					continue
				}
				bus.Publish(syncbus.Event{
					Topic: syncbus.TopicStorageMutated,
					Key:   strings.TrimSuffix(name, ext),
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("storage watcher error", err)
			}
		}
	}()
	return nil
}
