package core

import (
	"context"

	"github.com/markdave123-py/Synopsis/internal/models"
)

// FileStore is the remote storage the documents are read from.
// It is abstract so Drive, S3 or a test fake can back the same pipeline.
type FileStore interface {
	ListFiles(ctx context.Context, folder string) ([]models.FileMeta, error)
	GetFile(ctx context.Context, fileID string) (*models.FileMeta, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// FileStoreProvider hands out a FileStore bound to the caller's credentials.
// Stores that use static credentials return the same instance every time.
type FileStoreProvider interface {
	ForRequest(ctx context.Context) (FileStore, error)
}

// SessionStore keeps the OAuth credentials behind a browser session.
type SessionStore interface {
	Save(ctx context.Context, rec *models.SessionRecord) error
	Get(ctx context.Context, id string) (*models.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}
