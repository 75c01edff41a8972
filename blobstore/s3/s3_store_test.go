package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/logdb/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/foo"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Open(context.Background(), "foo")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/wal/1.wal"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("hello")),
		}, nil).Once()

		blob, err := store.Open(context.Background(), "wal/1.wal")
		require.NoError(t, err)
		assert.Equal(t, int64(5), blob.Size())
		assert.Equal(t, "hello", string(blob.Bytes()))
	})

	mockClient.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	var body string
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/segments/1.seg"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		b, _ := io.ReadAll(input.Body)
		body = string(b)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "segments/1.seg", []byte("content")))
	assert.Equal(t, "content", body)
	mockClient.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/del"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	assert.NoError(t, store.Delete(context.Background(), "del"))
	mockClient.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Bucket == "test-bucket" && *input.Prefix == "prefix/wal/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("prefix/wal/2.wal")},
			{Key: aws.String("prefix/wal/1.wal")},
		},
	}, nil).Once()

	keys, err := store.List(context.Background(), "wal/")
	require.NoError(t, err)
	assert.Equal(t, []string{"wal/1.wal", "wal/2.wal"}, keys)
}

func TestStore_List_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("prefix/1")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("prefix/2")}},
	}, nil).Once()

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, keys)
}
