package skills

import (
	"errors"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestCustomWatcher_WhenNilCallback_ShouldRefuseToStart(t *testing.T) {
	// Given
	s, err := NewCustomSkill(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)

	// When
	err = w.Start(nil)

	// Then
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
}

func TestCustomWatcher_WhenStartedTwice_ShouldErrorSecondTime(t *testing.T) {
	// Given
	s, err := NewCustomSkill(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)
	if err := w.Start(func() {}); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	defer w.Stop()

	// When
	err = w.Start(func() {})

	// Then
	if err == nil {
		t.Fatal("expected error for double start")
	}
}

func TestCustomWatcher_WhenWatcherCreationFails_ShouldPropagateError(t *testing.T) {
	// Given
	s, err := NewCustomSkill(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)
	w.newWatcherFn = func() (*fsnotify.Watcher, error) {
		return nil, errors.New("inotify exhausted")
	}

	// When
	err = w.Start(func() {})

	// Then
	if err == nil || err.Error() != "inotify exhausted" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCustomWatcher_WhenDirectoryMissing_ShouldFailToStart(t *testing.T) {
	// Given: skill points at a directory that was never created
	s, err := NewCustomSkill("/nonexistent/skills-dir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)

	// When
	err = w.Start(func() {})

	// Then
	if err == nil {
		t.Fatal("expected error watching a missing directory")
	}
}

func TestCustomWatcher_WhenStoppedWithoutStart_ShouldBeNoOp(t *testing.T) {
	// Given
	s, err := NewCustomSkill(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)

	// When / Then
	if err := w.Stop(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCustomWatcher_WhenMarkdownFileWritten_ShouldReloadAndNotify(t *testing.T) {
	// Given
	dir := t.TempDir()
	s, err := NewCustomSkill(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)

	notified := make(chan struct{}, 1)
	if err := w.Start(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	// When
	writeSkillFile(t, dir, "greet.md", greetSkillMD)

	// Then
	select {
	case <-notified:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload notification")
	}
	if len(s.Tools()) != 1 {
		t.Errorf("expected one tool after reload, got %d", len(s.Tools()))
	}
}

func TestCustomWatcher_WhenNonMarkdownFileWritten_ShouldIgnore(t *testing.T) {
	// Given
	dir := t.TempDir()
	s, err := NewCustomSkill(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewCustomWatcher(s)

	notified := make(chan struct{}, 1)
	if err := w.Start(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	// When
	writeSkillFile(t, dir, "notes.txt", "not a skill")

	// Then
	select {
	case <-notified:
		t.Fatal("non-markdown file should not trigger a reload")
	case <-time.After(3 * reloadDebounce):
	}
}
