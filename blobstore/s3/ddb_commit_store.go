package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/logdb/blobstore"
)

// CurrentName is the pointer blob committed through DynamoDB.
const CurrentName = "CURRENT"

// DDBCommitStore implements blobstore.Store backed by S3 with DynamoDB
// for atomic manifest commits.
//
// Every blob except CURRENT lives in S3. Writes to CURRENT become a
// conditional PutItem of the next version number, so two writers that
// commit on top of the same version cannot both succeed.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 bucket/prefix
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name logdb-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDDBCommitStore creates a new S3+DynamoDB commit store.
// baseURI ("s3://bucket/prefix") is the partition key of every commit.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Open reads CURRENT from DynamoDB and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.s3Store.Open(ctx, name)
	}
	version, manifestPath, err := s.latestVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return blobstore.NewBytesBlob([]byte(manifestPath)), nil
}

// Put commits CURRENT through DynamoDB and writes everything else to S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return s.commitVersion(ctx, string(data))
	}
	return s.s3Store.Put(ctx, name, data)
}

// Delete deletes a blob from S3. Commit history is never deleted.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == CurrentName {
		return nil
	}
	return s.s3Store.Delete(ctx, name)
}

// List lists blobs with prefix.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

func (s *DDBCommitStore) latestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	pathAttr, ok := item["manifest_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid manifest_path attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	return version, pathAttr.Value, nil
}

func (s *DDBCommitStore) commitVersion(ctx context.Context, manifestPath string) error {
	current, _, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":      &types.AttributeValueMemberS{Value: s.baseURI},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"manifest_path": &types.AttributeValueMemberS{Value: manifestPath},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return blobstore.ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return nil
}
