package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(1024, 1); got != "1.00 KB/s" {
		t.Errorf("FormatSpeed(1024, 1) = %q", got)
	}
	if got := FormatSpeed(512, 1); got != "512 B/s" {
		t.Errorf("FormatSpeed(512, 1) = %q", got)
	}
	if got := FormatSpeed(1024, 0); got != "0 B/s" {
		t.Errorf("FormatSpeed with zero elapsed = %q", got)
	}
}

func TestTempDirLifecycle(t *testing.T) {
	root := t.TempDir()
	tempDir, err := TempDir(root)
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	if filepath.Base(tempDir) != ".ffgrab-temp" {
		t.Errorf("temp dir = %q", tempDir)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "leftover.part"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// Second call is a no-op on an existing directory.
	if _, err := TempDir(root); err != nil {
		t.Fatalf("TempDir on existing dir failed: %v", err)
	}

	if err := CleanTempDirs(root); err != nil {
		t.Fatalf("CleanTempDirs failed: %v", err)
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Error("temp dir still present after clean")
	}

	// Cleaning an already-clean root succeeds.
	if err := CleanTempDirs(root); err != nil {
		t.Errorf("CleanTempDirs on clean root failed: %v", err)
	}
}
