package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestFaceFromPathWarnsWithoutFont(t *testing.T) {
	buf := captureLog(t)
	if face := faceFromPath(""); face != nil {
		t.Error("expected built-in face")
	}
	if !strings.Contains(buf.String(), "export.font_path is not set") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestFaceFromPathWarnsOnBadFont(t *testing.T) {
	buf := captureLog(t)
	if face := faceFromPath(filepath.Join(t.TempDir(), "missing.ttf")); face != nil {
		t.Error("expected built-in face")
	}
	if !strings.Contains(buf.String(), "ASCII-only") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}
