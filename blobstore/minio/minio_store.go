package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/hupe1980/logdb/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store implements blobstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a new MinIO blob store.
// rootPrefix is prepended to all keys (e.g. "events/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// NewClient builds a client for endpoint using credentials from the
// standard AWS environment variables. endpoint may carry an http:// or
// https:// scheme; https is assumed otherwise.
func NewClient(endpoint, region string) (*minio.Client, error) {
	secure := true
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
		secure = u.Scheme != "http"
	}
	return minio.New(host, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: secure,
		Region: region,
	})
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open downloads the whole object.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(err)
	}
	defer obj.Close()

	// GetObject is lazy; the first read surfaces a missing key.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapErr(err)
	}
	return blobstore.NewBytesBlob(data), nil
}

// Put writes a blob atomically.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		fullPrefix += "/"
	}
	root := strings.TrimSuffix(s.prefix, "/")

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := obj.Key
		if root != "" {
			name = strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
		}
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func mapErr(err error) error {
	if isNotFound(err) {
		return blobstore.ErrNotFound
	}
	return err
}
