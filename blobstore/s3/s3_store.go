package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/logdb/blobstore"
)

// Client is the subset of the S3 API used by Store.
// *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store implements blobstore.Store for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "my-log/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   rootPrefix,
	}
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket }

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open downloads the whole object.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return blobstore.NewBytesBlob(data), nil
}

// Put uploads data. Large blobs are split into multipart uploads.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// List returns all object names with the given prefix, relative to the root prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		fullPrefix += "/"
	}
	root := strings.TrimSuffix(s.prefix, "/")

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := aws.ToString(obj.Key)
			if root != "" {
				rel = strings.TrimPrefix(strings.TrimPrefix(rel, root), "/")
			}
			if rel != "" {
				keys = append(keys, rel)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}
