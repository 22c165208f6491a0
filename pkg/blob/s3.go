package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/betterdrive/betterdrive/config"
	"github.com/betterdrive/betterdrive/pkg/workerpool"
)

// deleteBatchSize is the S3 DeleteObjects limit per request.
const deleteBatchSize = 1000

// s3Store is the S3-compatible Store implementation.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2.
type s3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	pool    *workerpool.Pool
}

// NewS3 builds a Store from the S3_* config keys.
// pool bounds the fan-out when a delete spans multiple batches; pass nil to
// delete batches sequentially.
func NewS3(pool *workerpool.Pool) (Store, error) {
	bucket := config.BlobS3Bucket()
	region := config.BlobS3Region()
	key := config.BlobS3Key()
	secret := config.BlobS3Secret()
	endpoint := config.BlobS3Endpoint()
	baseURL := strings.TrimRight(config.BlobS3URL(), "/")

	if bucket == "" {
		return nil, fmt.Errorf("blob/s3: S3_BUCKET is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}

	// Static credentials (required for MinIO / R2 / Spaces)
	if key != "" && secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("blob/s3: load config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &s3Store{
		client:  s3.NewFromConfig(cfg, clientOpts...),
		bucket:  bucket,
		baseURL: baseURL,
		pool:    pool,
	}, nil
}

func (s *s3Store) Put(ctx context.Context, key, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("blob/s3: read: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("blob/s3: put %s: %w", key, err)
	}
	return s.URL(key), nil
}

// DeleteObjects removes keys in batches of deleteBatchSize. When a worker
// pool is configured, batches beyond the first run concurrently; the call
// still waits for every batch and reports the first failure.
func (s *s3Store) DeleteObjects(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	batches := make([][]string, 0, len(keys)/deleteBatchSize+1)
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[start:end])
	}

	if s.pool == nil || len(batches) == 1 {
		for _, batch := range batches {
			if err := s.deleteBatch(ctx, batch); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, batch := range batches {
		batch := batch
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := s.deleteBatch(ctx, batch); err != nil {
				record(err)
			}
		}
		if err := s.pool.SubmitWait(task); err != nil {
			// Pool shutting down: run inline so no batch is skipped.
			task()
		}
	}
	wg.Wait()

	return firstErr
}

func (s *s3Store) deleteBatch(ctx context.Context, keys []string) error {
	objs := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		k := k
		objs[i] = types.ObjectIdentifier{Key: &k}
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objs, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("blob/s3: delete batch of %d: %w", len(keys), err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("blob/s3: %d of %d deletions failed (first: %s %s)",
			len(out.Errors), len(keys), aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return nil
}

func (s *s3Store) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
