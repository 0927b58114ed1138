package objectclient

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/core/ingestion_engine"
	"github.com/markdave123-py/Synopsis/internal/models"
)

// s3API is the subset of *s3.Client the store calls.
type s3API interface {
	manager.DownloadAPIClient
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
}

type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	// Prefix is the default folder when ListFiles gets an empty one.
	Prefix string
}

// S3Store reads documents from a bucket. File ids are object keys.
type S3Store struct {
	client s3API
	region string
	bucket string
	prefix string
}

var _ core.FileStore = (*S3Store)(nil)

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3Store(s3.NewFromConfig(awsCfg), cfg), nil
}

func newS3Store(client s3API, cfg S3Config) *S3Store {
	return &S3Store{
		client: client,
		region: cfg.Region,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
}

// ListFiles lists every object under folder (a key prefix), skipping
// directory markers.
func (c *S3Store) ListFiles(ctx context.Context, folder string) ([]models.FileMeta, error) {
	if folder == "" {
		folder = c.prefix
	}
	ctxList, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var files []models.FileMeta
	p := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(folder),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctxList)
		if err != nil {
			return nil, fmt.Errorf("s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			files = append(files, c.meta(key, ""))
		}
	}
	return files, nil
}

func (c *S3Store) GetFile(ctx context.Context, key string) (*models.FileMeta, error) {
	ctxHead, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := c.client.HeadObject(ctxHead, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, c.wrap("head", key, err)
	}
	meta := c.meta(key, aws.ToString(out.ContentType))
	return &meta, nil
}

func (c *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	buf := manager.NewWriteAtBuffer(nil)
	downloader := manager.NewDownloader(c.client)
	if _, err := downloader.Download(ctxGet, buf, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, c.wrap("get", key, err)
	}
	return buf.Bytes(), nil
}

func (c *S3Store) meta(key, contentType string) models.FileMeta {
	name := path.Base(key)
	return models.FileMeta{
		ID:          key,
		Name:        name,
		MimeType:    ingestion_engine.ResolveContentType(contentType, name),
		WebViewLink: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key),
	}
}

func (c *S3Store) wrap(op, key string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("s3 %s %s: %w", op, key, core.ErrNotFound)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("s3 %s %s: %w", op, key, core.ErrNotFound)
		}
	}
	return fmt.Errorf("s3 %s failed: %w", op, err)
}
