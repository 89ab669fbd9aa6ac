package local

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"document-ingest/internal/shared/storage/object"
	"document-ingest/internal/shared/util"
)

// metaSuffix names the optional sidecar file carrying user metadata tags.
const metaSuffix = ".meta.json"

// Store implements ObjectStore on the local filesystem, laid out as
// <baseDir>/<bucket>/<key>.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Head stats the file and derives its attributes.
func (s *Store) Head(ctx context.Context, bucket, key string) (object.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return object.ObjectInfo{}, err
	}
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return object.ObjectInfo{}, err
	}

	st, err := os.Stat(fullPath)
	if err != nil {
		return object.ObjectInfo{}, err
	}
	if st.IsDir() {
		return object.ObjectInfo{}, fmt.Errorf("%s is a directory", key)
	}

	etag, err := fileMD5(fullPath)
	if err != nil {
		return object.ObjectInfo{}, err
	}
	meta, err := readSidecar(fullPath + metaSuffix)
	if err != nil {
		return object.ObjectInfo{}, err
	}

	return object.ObjectInfo{
		ContentType:   mime.TypeByExtension(filepath.Ext(fullPath)),
		ContentLength: st.Size(),
		LastModified:  st.ModTime().UTC(),
		ETag:          `"` + etag + `"`,
		Metadata:      meta,
	}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Put writes data at bucket/key, creating directories as needed. It exists
// for local development seeding and tests.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := createFile(fullPath)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}
	return written, nil
}

var createFile = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func (s *Store) resolve(bucket, key string) (string, error) {
	cleanBucket, err := util.CleanObjectKey(bucket)
	if err != nil {
		return "", fmt.Errorf("invalid bucket %q: %w", bucket, err)
	}
	cleanKey, err := util.CleanObjectKey(key)
	if err != nil {
		return "", fmt.Errorf("invalid key %q: %w", key, err)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(cleanBucket), filepath.FromSlash(cleanKey)), nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readSidecar(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	meta := map[string]string{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return meta, nil
}

var _ object.ObjectStore = (*Store)(nil)
