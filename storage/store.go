// Package storage persists poster files content-addressed: every saved
// blob is identified by a logical path plus the SHA-256 of its bytes.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

// SavedFile describes a persisted blob.
type SavedFile struct {
	StoredPath string
	Hash       string
	Size       int64
}

// Store is the poster blob store. Uploads are synchronous: Save returns
// only once the bytes are persisted and hashed.
type Store interface {
	Save(ctx context.Context, logicalPath string, r io.Reader) (*SavedFile, error)
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Remove(ctx context.Context, storedPath string) error
}

// LocalStore keeps blobs on the local filesystem under a base directory.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) Save(_ context.Context, logicalPath string, r io.Reader) (*SavedFile, error) {
	fullPath := filepath.Join(s.BaseDir, filepath.FromSlash(logicalPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, err
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		os.Remove(fullPath)
		return nil, err
	}

	return &SavedFile{
		StoredPath: logicalPath,
		Hash:       hex.EncodeToString(hasher.Sum(nil)),
		Size:       size,
	}, nil
}

func (s *LocalStore) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.BaseDir, filepath.FromSlash(storedPath)))
}

func (s *LocalStore) Remove(_ context.Context, storedPath string) error {
	err := os.Remove(filepath.Join(s.BaseDir, filepath.FromSlash(storedPath)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
