package object

import (
	"context"
	"io"
	"time"
)

// Object describes an archived blob.
type Object struct {
	Key         string    `json:"key"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	StoredAt    time.Time `json:"storedAt"`
}

// ObjectStore archives uploaded workbooks and reads them back.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
