package object

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned for storage keys that escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned by Open when no object has the key.
	ErrNotFound = errors.New("object not found")
)

// Stored describes an object after it has been written.
type Stored struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Save(ctx context.Context, namespace, ownerID, fileName string, r io.Reader) (Stored, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey builds "<namespace>/<hashed owner>/<uuid><ext>". Only the extension of
// fileName survives, so extension-based parsing still works downstream.
func NewKey(namespace, ownerID, fileName string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", errors.New("owner id is required")
	}
	sanitized, err := sanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(sanitized))
	if len(ext) > 10 {
		ext = ""
	}
	ns := strings.Trim(strings.TrimSpace(namespace), "/")
	return path.Join(ns, ownerDir(ownerID), uuid.NewString()+ext), nil
}

// resumeTypes pins content types for the formats the resume extractor reads.
// Sniffing alone reports docx as application/zip.
var resumeTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain; charset=utf-8",
}

// Sniff reads up to 512 bytes to pick a content type and returns a reader
// that replays them ahead of the rest of r.
func Sniff(r io.Reader, fileName string) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	contentType, ok := resumeTypes[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		contentType = http.DetectContentType(head[:n])
	}
	return contentType, io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// CleanKey rejects absolute keys and traversal.
func CleanKey(storageKey string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(storageKey, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// ownerDir keeps user IDs out of object paths.
func ownerDir(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

func sanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
