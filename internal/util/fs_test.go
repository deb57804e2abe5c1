package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMakeTempWorkdir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "scratch")
	dir, err := MakeTempWorkdir(base, "song.mp3")
	if err != nil {
		t.Fatalf("MakeTempWorkdir: %v", err)
	}
	if filepath.Dir(dir) != base {
		t.Errorf("dir %q not under %q", dir, base)
	}
	if !strings.HasPrefix(filepath.Base(dir), "song.mp3-") {
		t.Errorf("dir %q missing prefix", dir)
	}
	if !IsDir(dir) {
		t.Errorf("dir %q was not created", dir)
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(p); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if Exists(p) {
		t.Error("file still present")
	}
	if err := RemoveIfExists(p); err != nil {
		t.Errorf("second RemoveIfExists: %v", err)
	}
}

func TestFileKinds(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsRegular(p) || IsDir(p) {
		t.Errorf("file misclassified")
	}
	if !IsDir(dir) || IsRegular(dir) {
		t.Errorf("dir misclassified")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Errorf("missing path reported as existing")
	}
}
