package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"absence-desk/internal/models"
)

func TestNewFileSystemMonitor(t *testing.T) {
	monitor, err := NewFileSystemMonitor(".JSON")
	if err != nil {
		t.Fatalf("Failed to create file system monitor: %v", err)
	}
	defer monitor.StopWatching()

	if monitor.watcher == nil {
		t.Error("Expected watcher to be initialized")
	}
	if monitor.debounceDelay != DefaultDebounceDelay {
		t.Errorf("Expected debounce delay to be %v, got %v", DefaultDebounceDelay, monitor.debounceDelay)
	}
	if monitor.extension != ".json" {
		t.Errorf("Expected extension to be normalized to .json, got %s", monitor.extension)
	}
}

func TestWatchDirectoryErrors(t *testing.T) {
	monitor, err := NewFileSystemMonitor(".json")
	if err != nil {
		t.Fatalf("Failed to create file system monitor: %v", err)
	}
	defer monitor.StopWatching()

	err = monitor.WatchDirectory("/non/existent/path", func(models.AssetEvent) {})
	if err == nil {
		t.Error("Expected error when watching non-existent directory")
	}
}

func TestStopWatching(t *testing.T) {
	monitor, err := NewFileSystemMonitor(".json")
	if err != nil {
		t.Fatalf("Failed to create file system monitor: %v", err)
	}

	if err := monitor.StopWatching(); err != nil {
		t.Errorf("StopWatching failed: %v", err)
	}
	if err := monitor.StopWatching(); err != nil {
		t.Errorf("Second StopWatching call failed: %v", err)
	}
}

func TestToAssetEvent(t *testing.T) {
	tests := []struct {
		op     fsnotify.Op
		want   string
		wantOK bool
	}{
		{fsnotify.Create, "create", true},
		{fsnotify.Write, "modify", true},
		{fsnotify.Remove, "delete", true},
		{fsnotify.Rename, "delete", true},
		{fsnotify.Chmod, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			event, ok := toAssetEvent(fsnotify.Event{Name: "codes.json", Op: tt.op})
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if event.Type != tt.want {
				t.Errorf("Expected type %q, got %q", tt.want, event.Type)
			}
		})
	}
}

func TestFileSystemMonitorIntegration(t *testing.T) {
	tempDir := t.TempDir()

	monitor, err := NewFileSystemMonitor(".json")
	if err != nil {
		t.Fatalf("Failed to create file system monitor: %v", err)
	}
	defer monitor.StopWatching()
	monitor.SetDebounceDelay(50 * time.Millisecond)

	events := make(chan models.AssetEvent, 10)
	if err := monitor.WatchDirectory(tempDir, func(e models.AssetEvent) {
		select {
		case events <- e:
		default:
		}
	}); err != nil {
		t.Fatalf("Failed to start watching directory: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// Ignored extension
	if err := os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	codes := filepath.Join(tempDir, "codes.json")
	if err := os.WriteFile(codes, []byte(`{"V":"Vacation"}`), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case event := <-events:
		if event.Path != codes {
			t.Errorf("Expected path %s, got %s", codes, event.Path)
		}
		if event.Type != "create" && event.Type != "modify" {
			t.Errorf("Expected create or modify, got %s", event.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for creation event")
	}

	if err := os.Remove(codes); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}

	select {
	case event := <-events:
		if event.Type != "delete" {
			t.Errorf("Expected delete event, got %s", event.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for delete event")
	}
}
