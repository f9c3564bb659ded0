package walfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFilesystemExists(t *testing.T) {
	dir := t.TempDir()
	fs := NewLocalFilesystem()
	ctx := context.Background()

	path := filepath.Join(dir, "a.log")
	ok, err := fs.Exists(ctx, path)
	if err != nil || ok {
		t.Fatalf("Exists on missing file = %v, %v; want false, nil", ok, err)
	}

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ok, err = fs.Exists(ctx, path)
	if err != nil || !ok {
		t.Fatalf("Exists on present file = %v, %v; want true, nil", ok, err)
	}
}

func TestLocalFilesystemList(t *testing.T) {
	dir := t.TempDir()
	fs := NewLocalFilesystem()
	ctx := context.Background()

	for _, name := range []string{"b.log", "a.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := fs.List(ctx, dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d entries, want 2 (subdirectories excluded): %+v", len(got), got)
	}
	if filepath.Base(got[0].Path) != "a.log" || filepath.Base(got[1].Path) != "b.log" {
		t.Fatalf("List not sorted: %+v", got)
	}
}

func TestLocalFilesystemListMissingDirIsEmpty(t *testing.T) {
	fs := NewLocalFilesystem()
	got, err := fs.List(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("List on missing dir = %+v, want empty", got)
	}
}

func TestLocalFilesystemRename(t *testing.T) {
	dir := t.TempDir()
	fs := NewLocalFilesystem()
	ctx := context.Background()

	src := filepath.Join(dir, "src.log")
	dst := filepath.Join(dir, "archive", "dst.log")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := fs.Rename(ctx, src, dst); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after rename")
	}
}

func TestLocalFilesystemDeleteRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "region-a")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "recovered.edits"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := NewLocalFilesystem()
	if err := fs.DeleteRecursive(context.Background(), sub); err != nil {
		t.Fatalf("DeleteRecursive: %v", err)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Fatalf("directory still present after DeleteRecursive")
	}
}

func TestLocalFilesystemOpenAppendWriterCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t1", "regionA", "recovered.edits")
	fs := NewLocalFilesystem()
	ctx := context.Background()

	w, err := fs.OpenAppendWriter(ctx, path)
	if err != nil {
		t.Fatalf("OpenAppendWriter: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := fs.OpenReader(ctx, path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestLocalFilesystemRecoverLeaseOnMissingFileIsNotAnError(t *testing.T) {
	fs := NewLocalFilesystem()
	path := filepath.Join(t.TempDir(), "nope.log")
	if err := fs.RecoverLease(context.Background(), path); err != nil {
		t.Fatalf("RecoverLease on missing file: %v", err)
	}
}

func TestLocalFilesystemDeleteMissingIsNotAnError(t *testing.T) {
	fs := NewLocalFilesystem()
	path := filepath.Join(t.TempDir(), "nope.log")
	if err := fs.Delete(context.Background(), path); err != nil {
		t.Fatalf("Delete on missing file: %v", err)
	}
}
