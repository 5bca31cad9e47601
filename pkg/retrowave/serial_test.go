//go:build linux || darwin

// ABOUTME: Tests for the serial transport
// ABOUTME: Checks that non-tty and locked devices are refused
package retrowave

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestOpenSerialRejectsRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-tty")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := OpenSerial(path)
	if err == nil {
		s.Close()
		t.Fatal("expected a regular file to be refused")
	}
	if !strings.Contains(err.Error(), "tcgetattr") {
		t.Errorf("expected a terminal attribute error, got %v", err)
	}
}

func TestOpenSerialRejectsLockedDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Fatal(err)
	}

	s, err := OpenSerial(path)
	if err == nil {
		s.Close()
		t.Fatal("expected a locked device to be refused")
	}
	if !strings.Contains(err.Error(), "failed to lock") {
		t.Errorf("expected a lock error, got %v", err)
	}
}

func TestOpenSerialMissingDevice(t *testing.T) {
	_, err := OpenSerial(filepath.Join(t.TempDir(), "ttyACM9"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a missing device error, got %v", err)
	}
}
