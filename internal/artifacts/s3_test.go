package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testUploader creates an Uploader backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testUploader(t *testing.T, handler http.Handler) (*Uploader, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		// Handlers count raw HTTP requests, so each API call must map to
		// exactly one request: no SDK-level retries.
		Retryer: aws.NopRetryer{},
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Uploader{s3: client, bucket: "test-bucket"}, server
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func TestNewUploader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		bucket   string
		wantErr  bool
	}{
		{
			name:     "custom endpoint",
			endpoint: "https://minio.ci.internal:9000",
			bucket:   "powder-ci-artifacts",
		},
		{
			name:   "aws endpoint",
			bucket: "powder-ci-artifacts",
		},
		{
			name:     "empty bucket",
			endpoint: "https://minio.ci.internal:9000",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			up, err := NewUploader(tt.endpoint, "us-east-1", tt.bucket, "key", "secret")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, up.Bucket())
		})
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	var capturedPath string
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			mu.Lock()
			capturedPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			capturedBody = body
			mu.Unlock()
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	data := []byte("Deploy node setup complete!\n")
	err := up.Upload(context.Background(), "exp-a1b2c3d/setup_deploy_node.log", data)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/test-bucket/exp-a1b2c3d/setup_deploy_node.log", capturedPath)
	assert.Equal(t, data, capturedBody)
}

func TestUpload_Error(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 500, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>InternalError</Code>
  <Message>Internal Error</Message>
</Error>`)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	err := up.Upload(context.Background(), "key", []byte("data"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put object key in bucket test-bucket")
}

func TestBucketExists(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	exists, err := up.BucketExists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBucketExists_NotFound(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>NotFound</Code>
  <Message>Not Found</Message>
</Error>`)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	exists, err := up.BucketExists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBucketExists_OtherError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 403, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>Access Denied</Message>
</Error>`)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	_, err := up.BucketExists(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check bucket test-bucket")
}

func TestEnsureBucket_AlreadyExists(t *testing.T) {
	t.Parallel()

	var createCalled bool
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(200)
			return
		}
		mu.Lock()
		createCalled = true
		mu.Unlock()
		w.WriteHeader(200)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	require.NoError(t, up.EnsureBucket(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, createCalled, "existing bucket must not be re-created")
}

func TestEnsureBucket_Creates(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "HEAD":
			xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NotFound</Code><Message>Not Found</Message></Error>`)
		case "PUT":
			xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
		default:
			w.WriteHeader(404)
		}
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	require.NoError(t, up.EnsureBucket(context.Background()))
}

func TestEnsureBucket_RaceLostIsFine(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "HEAD":
			xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NotFound</Code><Message>Not Found</Message></Error>`)
		case "PUT":
			xmlResponse(w, 409, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>BucketAlreadyOwnedByYou</Code>
  <Message>Your previous request to create the named bucket succeeded and you already own it.</Message>
</Error>`)
		default:
			w.WriteHeader(404)
		}
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	require.NoError(t, up.EnsureBucket(context.Background()))
}

func TestUploadStore(t *testing.T) {
	t.Parallel()

	var paths []string
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			mu.Lock()
			paths = append(paths, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("setup.log", []byte("ok"))
	require.NoError(t, err)
	_, err = store.Save("manifests.json", []byte("{}"))
	require.NoError(t, err)

	uploaded, err := up.UploadStore(context.Background(), "exp-a1b2c3d", store)
	require.NoError(t, err)
	assert.Equal(t, 2, uploaded)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{
		"/test-bucket/exp-a1b2c3d/setup.log",
		"/test-bucket/exp-a1b2c3d/manifests.json",
	}, paths)
}

func TestUploadStore_PartialFailure(t *testing.T) {
	t.Parallel()

	var count int
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			mu.Lock()
			count++
			n := count
			mu.Unlock()
			if n == 1 {
				xmlResponse(w, 500, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>InternalError</Code><Message>boom</Message></Error>`)
				return
			}
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("a.log", []byte("a"))
	require.NoError(t, err)
	_, err = store.Save("b.log", []byte("b"))
	require.NoError(t, err)

	uploaded, err := up.UploadStore(context.Background(), "exp-a1b2c3d", store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload 1 of 2")
	assert.Equal(t, 1, uploaded, "remaining artifacts are still uploaded")
}

func TestWriteRunMetadata(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	var capturedPath string
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			mu.Lock()
			capturedPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			capturedBody = body
			mu.Unlock()
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	up, server := testUploader(t, handler)
	defer server.Close()

	err := up.WriteRunMetadata(context.Background(), "exp-a1b2c3d", RunMetadata{
		Experiment: "exp-a1b2c3d",
		Project:    "testproj",
		Profile:    "deploy-profile",
		NodeIP:     "155.98.36.11",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasSuffix(capturedPath, "/"+MetadataFileName), "got path %s", capturedPath)

	var meta RunMetadata
	require.NoError(t, json.Unmarshal(capturedBody, &meta))
	assert.Equal(t, "exp-a1b2c3d", meta.Experiment)
	assert.Equal(t, "powder-runner", meta.ManagedBy)
	assert.NotEmpty(t, meta.CreatedAt)
}

func TestIsBucketAlreadyOwnedByYou_WrappedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "wrapped BucketAlreadyOwnedByYou",
			err:  fmt.Errorf("outer: %w", &s3types.BucketAlreadyOwnedByYou{}),
			want: true,
		},
		{
			name: "wrapped BucketAlreadyExists",
			err:  fmt.Errorf("outer: %w", &s3types.BucketAlreadyExists{}),
			want: true,
		},
		{
			name: "wrapped generic error",
			err:  fmt.Errorf("outer: %w", fmt.Errorf("inner error")),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isBucketAlreadyOwnedByYou(tt.err))
		})
	}
}

func TestIsNotFoundError_WrappedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "wrapped NoSuchBucket",
			err:  fmt.Errorf("outer: %w", &s3types.NoSuchBucket{}),
			want: true,
		},
		{
			name: "wrapped NotFound",
			err:  fmt.Errorf("outer: %w", &s3types.NotFound{}),
			want: true,
		},
		{
			name: "wrapped generic error",
			err:  fmt.Errorf("outer: %w", fmt.Errorf("inner error")),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isNotFoundError(tt.err))
		})
	}
}
