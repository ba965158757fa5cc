package fsutil

import (
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home) // windows

	// absolute paths pass through untouched
	if got, err := ExpandHome("/var/lib/parkd"); err != nil || got != "/var/lib/parkd" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// bare tilde
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	// nested model path
	exp, err := ExpandHome("~/.parkd/models/best.onnx")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if want := filepath.Join(home, ".parkd", "models", "best.onnx"); exp != want {
		t.Fatalf("expected %q, got %q", want, exp)
	}
}

func TestPathExists(t *testing.T) {
	d := t.TempDir()
	if !PathExists(d) {
		t.Fatal("existing dir reported missing")
	}
	if PathExists(filepath.Join(d, "nope")) {
		t.Fatal("missing path reported present")
	}
}
