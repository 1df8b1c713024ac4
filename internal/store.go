package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrBlobNotFound is returned when a transcript object does not exist
var ErrBlobNotFound = errors.New("blob not found")

// BlobInfo describes one stored transcript object
type BlobInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// BlobStore is the persistence surface for transcript objects. Writes are
// whole-object overwrites; the store offers no conditional writes, so
// idempotence guarantees live with the callers.
type BlobStore interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, content string) error
	List(ctx context.Context) ([]BlobInfo, error)
	Close() error
}

// FileStore keeps each transcript as one text file in a directory
type FileStore struct {
	Dir string
}

// NewFileStore creates the directory if needed and returns a FileStore
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Key: dir, Op: "open", Err: err}
	}
	return &FileStore{Dir: dir}, nil
}

func (fs *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", &StorageError{Key: key, Op: "open", Err: fmt.Errorf("invalid blob key")}
	}
	return filepath.Join(fs.Dir, key+".txt"), nil
}

// Read returns the stored object, or ErrBlobNotFound
func (fs *FileStore) Read(ctx context.Context, key string) (string, error) {
	path, err := fs.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &StorageError{Key: key, Op: "read", Err: ErrBlobNotFound}
		}
		return "", &StorageError{Key: key, Op: "read", Err: err}
	}
	return string(data), nil
}

// Write overwrites the stored object in full
func (fs *FileStore) Write(ctx context.Context, key, content string) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &StorageError{Key: key, Op: "write", Err: err}
	}
	return nil
}

// List returns all stored objects, newest first
func (fs *FileStore) List(ctx context.Context) ([]BlobInfo, error) {
	entries, err := os.ReadDir(fs.Dir)
	if err != nil {
		return nil, &StorageError{Key: fs.Dir, Op: "list", Err: err}
	}

	infos := make([]BlobInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, BlobInfo{
			Key:     strings.TrimSuffix(name, ".txt"),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ModTime.After(infos[j].ModTime) })
	return infos, nil
}

// Close is a no-op for the filesystem store
func (fs *FileStore) Close() error {
	return nil
}
