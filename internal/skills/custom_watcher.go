package skills

import (
	"errors"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces rapid successive file events into one reload.
// Editors typically fire several writes per save.
var reloadDebounce = 100 * time.Millisecond

// newWatcherFunc creates an fsnotify watcher; tests may replace it to inject errors.
type newWatcherFunc func() (*fsnotify.Watcher, error)

// CustomWatcher watches a skill directory and reloads the custom skill when
// any .md file changes, appears, or disappears.
type CustomWatcher struct {
	skill        *CustomSkill
	watcher      *fsnotify.Watcher
	done         chan struct{}
	mu           sync.Mutex
	running      bool
	newWatcherFn newWatcherFunc // nil means use fsnotify.NewWatcher
}

// NewCustomWatcher creates a watcher for the skill's directory. Call Start to
// begin watching and Stop to release resources.
func NewCustomWatcher(skill *CustomSkill) *CustomWatcher {
	return &CustomWatcher{skill: skill}
}

// Start begins watching. The callback is invoked (on a separate goroutine)
// after every successful reload so the caller can re-register the tools.
// Start must not be called more than once without an intervening Stop.
func (w *CustomWatcher) Start(callback func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if callback == nil {
		return errors.New("skill watcher: callback must not be nil")
	}
	if w.running {
		return errors.New("skill watcher: already started")
	}

	newWatcher := fsnotify.NewWatcher
	if w.newWatcherFn != nil {
		newWatcher = w.newWatcherFn
	}
	watcher, err := newWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.skill.Dir()); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.running = true

	go w.eventLoop(callback)
	return nil
}

// Stop ceases watching and releases resources. Safe to call even if not started.
func (w *CustomWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.done)
	err := w.watcher.Close()
	w.running = false
	return err
}

// eventLoop reacts to .md file events with debouncing.
func (w *CustomWatcher) eventLoop(callback func()) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".md" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				if err := w.skill.Reload(); err != nil {
					log.Printf("skill watcher: reload error: %v", err)
					return
				}
				callback()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("skill watcher: fsnotify error: %v", err)
		}
	}
}
