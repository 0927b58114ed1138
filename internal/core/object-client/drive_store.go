package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/models"
)

const driveFileFields = "id, name, mimeType, webViewLink"

// DriveOption is a client option for the Drive service.
type DriveOption = option.ClientOption

// DriveStore reads a user's Drive with their own credentials.
type DriveStore struct {
	svc *drive.Service
}

var _ core.FileStore = (*DriveStore)(nil)

func NewDriveStore(ctx context.Context, ts oauth2.TokenSource, opts ...DriveOption) (*DriveStore, error) {
	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, err
	}
	return &DriveStore{svc: svc}, nil
}

// ListFiles returns the non-trashed children of folder, following pagination.
func (d *DriveStore) ListFiles(ctx context.Context, folder string) ([]models.FileMeta, error) {
	if folder == "" {
		return nil, errors.New("drive folder id is empty")
	}
	var files []models.FileMeta
	call := d.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", folder)).
		PageSize(100).
		Fields(googleapi.Field("nextPageToken, files(" + driveFileFields + ")")).
		Context(ctx)
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			files = append(files, toMeta(f))
		}
		return nil
	})
	if err != nil {
		return nil, driveError("list", folder, err)
	}
	return files, nil
}

func (d *DriveStore) GetFile(ctx context.Context, fileID string) (*models.FileMeta, error) {
	f, err := d.svc.Files.Get(fileID).Fields(googleapi.Field(driveFileFields)).Context(ctx).Do()
	if err != nil {
		return nil, driveError("get", fileID, err)
	}
	meta := toMeta(f)
	return &meta, nil
}

func (d *DriveStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, driveError("download", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("drive download %s: %w", fileID, err)
	}
	return data, nil
}

func toMeta(f *drive.File) models.FileMeta {
	return models.FileMeta{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		WebViewLink: f.WebViewLink,
	}
}

func driveError(op, id string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("drive %s %s: %w", op, id, core.ErrNotFound)
		case http.StatusUnauthorized:
			return fmt.Errorf("drive %s: %w", op, core.ErrUnauthorized)
		}
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("drive %s: %w", op, core.ErrUnauthorized)
	}
	return fmt.Errorf("drive %s failed: %w", op, err)
}
