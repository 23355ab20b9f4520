// Package archive keeps the raw bank statement files that were imported.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

var ErrInvalidURI = errors.New("invalid archive uri")

// Store persists statement bytes and returns a URI they can be fetched from.
type Store interface {
	Put(ctx context.Context, objectName string, data []byte) (string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ObjectName is the content-addressed path of a statement imported at t.
func ObjectName(t time.Time, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("statements/%04d/%02d/%s.csv", t.Year(), int(t.Month()), hex.EncodeToString(sum[:]))
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	return parts[0], parts[1], nil
}

type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore uses Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, objectName string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write statement object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize statement upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

func (s *GCSStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open statement object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement object: %w", err)
	}
	return data, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// MemoryStore keeps objects in process. It backs tests and deployments
// without a bucket.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, objectName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = append([]byte(nil), data...)
	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

func (s *MemoryStore) Fetch(_ context.Context, uri string) ([]byte, error) {
	_, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[object]
	if !ok {
		return nil, fmt.Errorf("statement object %s not found", object)
	}
	return data, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
