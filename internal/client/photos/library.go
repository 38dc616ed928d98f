package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// LibraryConfig points at the S3/MinIO bucket acting as the persistent media
// library. An empty Endpoint or Bucket means no library is configured.
type LibraryConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Album     string
}

// LibraryBackend stores photos in a durable bucket that outlives the app
// install, tagged into a named album (a key prefix, created on first use).
type LibraryBackend struct {
	client *s3.Client
	bucket string
	album  string
}

const defaultAlbum = "PlantKeeper"

// NewLibraryBackend builds the backend and verifies the bucket is reachable.
// It also ensures the album marker exists, so album listing works before the
// first photo is saved.
func NewLibraryBackend(ctx context.Context, cfg LibraryConfig) (*LibraryBackend, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("media library not configured")
	}
	if cfg.Album == "" {
		cfg.Album = defaultAlbum
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	b := &LibraryBackend{client: client, bucket: cfg.Bucket, album: cfg.Album}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.HeadBucket(probeCtx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("media library unreachable: %w", err)
	}
	if err := b.ensureAlbum(probeCtx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *LibraryBackend) ensureAlbum(ctx context.Context) error {
	marker := b.albumKey(".album")
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(marker),
	})
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return fmt.Errorf("album probe: %w", err)
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(marker),
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	return nil
}

func (b *LibraryBackend) Name() string { return "library" }

func (b *LibraryBackend) albumKey(filename string) string {
	return "albums/" + b.album + "/" + filename
}

func (b *LibraryBackend) URI(filename string) string {
	return "s3://" + b.bucket + "/" + b.albumKey(filename)
}

func (b *LibraryBackend) Save(ctx context.Context, filename string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.albumKey(filename)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("library save %s: %w", filename, err)
	}
	return b.URI(filename), nil
}

func (b *LibraryBackend) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.albumKey(filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("library open %s: %w", filename, err)
	}
	return out.Body, nil
}

func (b *LibraryBackend) Delete(ctx context.Context, filename string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.albumKey(filename)),
	})
	return err
}

func (b *LibraryBackend) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.albumKey(filename)),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

func (b *LibraryBackend) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	prefix := b.albumKey("")
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, obj := range page.Contents {
			total += aws.ToInt64(obj.Size)
		}
	}
	return total, nil
}
