package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// ArchivePrefix is the key prefix of archived export documents.
const ArchivePrefix = "exports/"

// ArchiveKey names the archive of an export taken at t. Keys sort by time.
func ArchiveKey(t time.Time) string {
	return ArchivePrefix + t.UTC().Format("20060102T150405.000Z") + ".json"
}

// Archive stores an export document and returns its key.
func Archive(ctx context.Context, s Store, doc []byte, at time.Time) (Info, error) {
	info, err := s.Put(ctx, ArchiveKey(at), bytes.NewReader(doc), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"exported-at": at.UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return Info{}, fmt.Errorf("archive export: %w", err)
	}
	return info, nil
}

// ReadArchive returns the document stored under key.
func ReadArchive(ctx context.Context, s Store, key string) ([]byte, error) {
	_, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
