package indicator

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNoopController(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctrl := newNoop(logger)

	if err := ctrl.Set(true); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if !ctrl.State() {
		t.Error("State() = false after Set(true)")
	}
	if err := ctrl.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

func newFakeLED(t *testing.T, name string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"trigger", "brightness"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("heartbeat"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSysfsController(t *testing.T) {
	root := newFakeLED(t, "ACT")

	ctrl, err := newSysfs(root, "ACT")
	if err != nil {
		t.Fatalf("newSysfs() error = %v", err)
	}
	if got := readFile(t, filepath.Join(root, "ACT", "trigger")); got != "none" {
		t.Errorf("trigger = %q, want none", got)
	}

	tests := []struct {
		on   bool
		want string
	}{
		{true, "1"},
		{false, "0"},
		{true, "1"},
	}
	for _, tt := range tests {
		if err := ctrl.Set(tt.on); err != nil {
			t.Fatalf("Set(%v) error = %v", tt.on, err)
		}
		if got := readFile(t, filepath.Join(root, "ACT", "brightness")); got != tt.want {
			t.Errorf("brightness after Set(%v) = %q, want %q", tt.on, got, tt.want)
		}
		if ctrl.State() != tt.on {
			t.Errorf("State() = %v, want %v", ctrl.State(), tt.on)
		}
	}

	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := readFile(t, filepath.Join(root, "ACT", "brightness")); got != "0" {
		t.Errorf("brightness after Close() = %q, want 0", got)
	}
}

func TestSysfsController_Missing(t *testing.T) {
	if _, err := newSysfs(t.TempDir(), "nonexistent"); err == nil {
		t.Error("newSysfs() with missing LED should return error")
	}
}
