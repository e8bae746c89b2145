package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobboard-backend/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	stored, err := store.Save(ctx, "resumes", "user-1", "My CV.pdf", strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(stored.Key, "resumes/") {
		t.Fatalf("expected resumes namespace, got %q", stored.Key)
	}
	if filepath.Ext(stored.Key) != ".pdf" {
		t.Fatalf("expected .pdf extension, got %q", stored.Key)
	}
	if stored.Size != int64(len("%PDF-1.4 body")) {
		t.Fatalf("unexpected size %d", stored.Size)
	}

	rc, err := store.Open(ctx, stored.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Fatalf("unexpected contents %q", data)
	}

	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(stored.Key))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestSaveDistinctKeysForSameName(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	a, err := store.Save(ctx, "resumes", "user-1", "cv.txt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save a: %v", err)
	}
	b, err := store.Save(ctx, "resumes", "user-1", "cv.txt", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save b: %v", err)
	}
	if a.Key == b.Key {
		t.Fatalf("expected distinct keys, both %q", a.Key)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../../etc/passwd"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSaveRejectsTraversalName(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Save(context.Background(), "resumes", "user-1", "../evil.txt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for traversal file name")
	}
}

func TestSaveLeavesNoTempFilesAndPinsDocxType(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	stored, err := store.Save(context.Background(), "resumes", "user-1", "cv.docx", strings.NewReader("PK\x03\x04 zipped"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stored.MimeType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Fatalf("unexpected mime type %q", stored.MimeType)
	}
	entries, err := os.ReadDir(filepath.Dir(filepath.Join(dir, filepath.FromSlash(stored.Key))))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || strings.HasPrefix(entries[0].Name(), ".upload-") {
		t.Fatalf("expected only the final file, got %v", entries)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestSaveFailedUploadLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	body := io.MultiReader(strings.NewReader(strings.Repeat("a", 600)), failingReader{})
	if _, err := store.Save(context.Background(), "resumes", "user-1", "cv.txt", body); err == nil {
		t.Fatalf("expected save error")
	}
	var files []string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if len(files) != 0 {
		t.Fatalf("expected no files after failed upload, got %v", files)
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "resumes/owner/gone.txt"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
