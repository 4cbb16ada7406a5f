package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// MetadataFileName is the per-run metadata object written next to the
// uploaded artifacts.
const MetadataFileName = "run_metadata.json"

// RunMetadata describes the run an artifact prefix belongs to.
type RunMetadata struct {
	Experiment string `json:"experiment"`
	Project    string `json:"project"`
	Profile    string `json:"profile"`
	NodeIP     string `json:"nodeIP,omitempty"`
	ManagedBy  string `json:"managedBy"`
	CreatedAt  string `json:"createdAt"`
}

// Uploader mirrors a run's artifacts to one bucket in S3-compatible
// object storage.
type Uploader struct {
	s3     *s3.Client
	bucket string
}

// NewUploader creates an uploader for the given bucket. An empty
// endpoint targets AWS proper; a custom endpoint (MinIO and friends)
// switches to path-style addressing. Empty credentials fall back to the
// SDK's default provider chain, which is how CI roles authenticate.
func NewUploader(endpoint, region, bucket, accessKey, secretKey string) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKey != "" {
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{s3: client, bucket: bucket}, nil
}

// Bucket returns the target bucket name.
func (u *Uploader) Bucket() string {
	return u.bucket
}

// BucketExists checks whether the bucket exists and is accessible.
func (u *Uploader) BucketExists(ctx context.Context) (bool, error) {
	_, err := u.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", u.bucket, err)
	}
	return true, nil
}

// EnsureBucket creates the bucket when it does not exist yet. A bucket
// that already exists and is owned by us is fine.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.BucketExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = u.s3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		if isBucketAlreadyOwnedByYou(err) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// Upload puts one object into the bucket.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte) error {
	_, err := u.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, u.bucket, err)
	}
	return nil
}

// UploadStore mirrors every file in the store under prefix/. A failed
// object is logged and skipped so one flaky upload does not lose the
// rest; the aggregate failure is reported at the end.
func (u *Uploader) UploadStore(ctx context.Context, prefix string, store *Store) (int, error) {
	files, err := store.Files()
	if err != nil {
		return 0, err
	}

	var uploaded, failed int
	for _, name := range files {
		data, err := store.Read(name)
		if err != nil {
			log.Printf("[Artifacts] Warning: skipping %s: %v", name, err)
			failed++
			continue
		}

		key := prefix + "/" + name
		if err := u.Upload(ctx, key, data); err != nil {
			log.Printf("[Artifacts] Warning: failed to upload %s: %v", key, err)
			failed++
			continue
		}
		uploaded++
	}

	if failed > 0 {
		return uploaded, fmt.Errorf("failed to upload %d of %d artifact(s) to bucket %s", failed, len(files), u.bucket)
	}
	return uploaded, nil
}

// WriteRunMetadata writes the run's metadata object under the prefix.
// CreatedAt and ManagedBy are stamped here.
func (u *Uploader) WriteRunMetadata(ctx context.Context, prefix string, meta RunMetadata) error {
	meta.ManagedBy = "powder-runner"
	meta.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}
	return u.Upload(ctx, prefix+"/"+MetadataFileName, data)
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}

	var bae *types.BucketAlreadyExists
	if errors.As(err, &bae) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	// that may not return the exact SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}

	return false
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	// that may not return the exact SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
