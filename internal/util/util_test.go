package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirExists(t *testing.T) {
	tmp := t.TempDir()

	if !DirExists(tmp) {
		t.Errorf("DirExists(%q) = false, want true", tmp)
	}
	if DirExists(filepath.Join(tmp, "missing")) {
		t.Errorf("DirExists on missing path returned true")
	}

	file := filepath.Join(tmp, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if DirExists(file) {
		t.Errorf("DirExists on a regular file returned true")
	}
}

func TestEnsureParentDir(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "a", "b", "c", "out.fasta")

	if err := EnsureParentDir(target); err != nil {
		t.Fatalf("EnsureParentDir() error = %v", err)
	}
	if !DirExists(filepath.Join(tmp, "a", "b", "c")) {
		t.Errorf("parent directory was not created")
	}

	// Bare file names live in the working directory, nothing to create.
	if err := EnsureParentDir("out.fasta"); err != nil {
		t.Errorf("EnsureParentDir(bare name) error = %v", err)
	}
}

func TestRemoveIfExists(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "old.list")
	if err := os.WriteFile(file, []byte("P0AFL3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveIfExists(file); err != nil {
		t.Fatalf("RemoveIfExists() error = %v", err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("file still exists after RemoveIfExists")
	}
	if err := RemoveIfExists(file); err != nil {
		t.Errorf("second RemoveIfExists() error = %v, want nil", err)
	}
}
