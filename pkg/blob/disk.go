package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/betterdrive/betterdrive/config"
)

// diskStore is the local-filesystem Store driver, used in development and in
// single-node deployments where an object-store bucket is overkill. Keys are
// opaque hex strings, so the layout is flat: one file per key under root.
type diskStore struct {
	root    string // absolute root directory
	baseURL string // public URL prefix for URL()
}

// NewDisk returns a Store backed by the local filesystem. The root directory
// comes from BLOB_LOCAL_ROOT (default "storage/blobs") and is created on
// first use.
func NewDisk() (Store, error) {
	root := config.Get("BLOB_LOCAL_ROOT", "storage/blobs")
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("blob/disk: resolve root: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob/disk: mkdir root: %w", err)
	}

	return &diskStore{
		root:    root,
		baseURL: strings.TrimRight(config.Get("BLOB_LOCAL_URL", "http://localhost:8080/blobs"), "/"),
	}, nil
}

func (d *diskStore) abs(key string) string {
	// Keys are generated by NewKey and contain no separators; Base strips
	// anything a hostile caller might smuggle in.
	return filepath.Join(d.root, filepath.Base(key))
}

func (d *diskStore) Put(ctx context.Context, key, contentType string, content io.Reader) (string, error) {
	f, err := os.Create(d.abs(key))
	if err != nil {
		return "", fmt.Errorf("blob/disk: create %s: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("blob/disk: write %s: %w", key, err)
	}
	return d.URL(key), nil
}

func (d *diskStore) DeleteObjects(ctx context.Context, keys []string) error {
	var firstErr error
	for _, key := range keys {
		if err := os.Remove(d.abs(key)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("blob/disk: delete %s: %w", key, err)
			}
		}
	}
	return firstErr
}

func (d *diskStore) URL(key string) string {
	return d.baseURL + "/" + key
}
