package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Ext is the extension of snapshot objects.
const Ext = ".snap"

// Store implements ports.SnapshotStore on a gocloud.dev bucket, supporting S3, GCS,
// Azure Blob Storage, local directories and in-memory buckets.
type Store struct {
	bucket *blob.Bucket
	prefix string
}

// Open opens the bucket at bucketURL. The URL scheme's driver must be linked in,
// e.g. with a blank import of gocloud.dev/blob/s3blob.
func Open(ctx context.Context, bucketURL, prefix string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	return New(bucket, prefix), nil
}

// New wraps an already opened bucket. Objects are written under prefix.
func New(bucket *blob.Bucket, prefix string) *Store {
	return &Store{bucket: bucket, prefix: prefix}
}

func (s *Store) keyFor(sessionID string) string {
	return s.prefix + sessionID + Ext
}

// Save writes the encoded snapshot as one object.
func (s *Store) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}
	opts := &blob.WriterOptions{ContentType: "application/cbor"}
	if err := s.bucket.WriteAll(ctx, s.keyFor(sessionID), data, opts); err != nil {
		return fmt.Errorf("failed to write snapshot object: %w", err)
	}
	return nil
}

// Load reads and decodes the session object.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	data, err := s.bucket.ReadAll(ctx, s.keyFor(sessionID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot object: %w", err)
	}
	snap, err := domain.ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return snap, nil
}

// Delete removes the session object.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	err := s.bucket.Delete(ctx, s.keyFor(sessionID))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("failed to delete snapshot object: %w", err)
	}
	return nil
}

// List returns the sessions stored directly under the prefix, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix, Delimiter: "/"})
	sessions := []string{}
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshot objects: %w", err)
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, Ext) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.prefix), Ext)
		sessions = append(sessions, id)
	}
	slices.Sort(sessions)
	return sessions, nil
}

// Close closes the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}
