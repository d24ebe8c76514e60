// Package artifacts keeps the files a scenario run produces (failure
// screenshots, Playwright traces, the run report). Every artifact is written
// under <dir>/<run-id>/ and, when a bucket is configured, uploaded to
// runs/<run-id>/<name>.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lucad87test-org/kong-test/internal/config"
	"github.com/lucad87test-org/kong-test/internal/errs"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

// ErrNoBucket is returned by Fetch when uploads are disabled.
var ErrNoBucket = errors.New("artifacts: no bucket configured")

// Ref points at one saved artifact.
type Ref struct {
	Name      string
	LocalPath string
	Key       string // empty when only stored locally
	URL       string // empty without a public bucket URL
}

// Store saves artifacts for one run.
type Store struct {
	runID  string
	dir    string
	bucket *Bucket

	mu   sync.Mutex
	refs []Ref
}

// NewStore returns a store for runID writing under dir. bucket may be nil.
func NewStore(runID, dir string, bucket *Bucket) (*Store, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errs.New(errs.InvalidArgument, "artifacts: run id is required")
	}
	if dir == "" {
		return nil, errs.New(errs.InvalidArgument, "artifacts: directory is required")
	}
	return &Store{runID: runID, dir: dir, bucket: bucket}, nil
}

// FromConfig builds a store for runID, connecting to the bucket when cfg
// enables uploads.
func FromConfig(ctx context.Context, cfg *config.Config, runID string) (*Store, error) {
	var bucket *Bucket
	if cfg.ArtifactsEnabled() {
		b, err := NewBucket(ctx, BucketConfig{
			Endpoint:        cfg.ArtifactsEndpoint,
			Region:          cfg.ArtifactsRegion,
			AccessKeyID:     cfg.ArtifactsAccessKeyID,
			SecretAccessKey: cfg.ArtifactsSecretKey,
			Name:            cfg.ArtifactsBucket,
			PublicURL:       cfg.ArtifactsPublicURL,
			UsePathStyle:    cfg.ArtifactsUsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		bucket = b
	}
	return NewStore(runID, cfg.ArtifactsLocalDir, bucket)
}

// Key returns the object key of name within run runID.
func Key(runID, name string) string {
	return path.Join("runs", runID, name)
}

// RunDir returns the local directory of this run.
func (s *Store) RunDir() string {
	return filepath.Join(s.dir, s.runID)
}

// Path returns the local path name would be saved at. Playwright writes
// traces and videos itself, so callers hand it this path and then Upload.
func (s *Store) Path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.RunDir(), filepath.FromSlash(name)), nil
}

// Save writes data locally and uploads it when a bucket is configured. A
// failed upload keeps the local copy and is returned as unavailable.
func (s *Store) Save(ctx context.Context, name string, data []byte) (Ref, error) {
	local, err := s.Path(name)
	if err != nil {
		return Ref{}, err
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return Ref{}, fmt.Errorf("artifacts: create %s: %w", filepath.Dir(local), err)
	}
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return Ref{}, fmt.Errorf("artifacts: write %s: %w", local, err)
	}
	return s.upload(ctx, name, local, data)
}

// Upload uploads a file already written at Path(name).
func (s *Store) Upload(ctx context.Context, name string) (Ref, error) {
	local, err := s.Path(name)
	if err != nil {
		return Ref{}, err
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return Ref{}, fmt.Errorf("artifacts: read %s: %w", local, err)
	}
	return s.upload(ctx, name, local, data)
}

func (s *Store) upload(ctx context.Context, name, local string, data []byte) (Ref, error) {
	ref := Ref{Name: name, LocalPath: local}
	l := obs.From(ctx).With("pkg", "artifacts")

	if s.bucket != nil {
		key := Key(s.runID, name)
		if err := s.bucket.Put(ctx, key, data, contentType(name)); err != nil {
			l.Warn("artifact_upload_failed", "name", name, "key", key, "error", err.Error())
			s.record(ref)
			return ref, errs.Wrap(errs.Unavailable, "artifacts: upload "+name, err)
		}
		ref.Key = key
		ref.URL = s.bucket.PublicURL(key)
	}

	s.record(ref)
	l.Info("artifact_saved", "name", name, "path", local, "key", ref.Key, "bytes", len(data))
	return ref, nil
}

func (s *Store) record(ref Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, ref)
}

// Refs returns the artifacts saved so far, in save order.
func (s *Store) Refs() []Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Ref, len(s.refs))
	copy(out, s.refs)
	return out
}

func validName(name string) error {
	clean := path.Clean(name)
	if name == "" || clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("artifacts: invalid name %q", name))
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".zip":
		return "application/zip"
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Fetch reads an uploaded artifact of this run back from the bucket.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.bucket == nil {
		return nil, ErrNoBucket
	}
	return s.bucket.Get(ctx, Key(s.runID, name))
}
