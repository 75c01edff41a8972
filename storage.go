package logdb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/logdb/blobstore"
	miniostore "github.com/hupe1980/logdb/blobstore/minio"
	s3store "github.com/hupe1980/logdb/blobstore/s3"
	"github.com/hupe1980/logdb/internal/cache"
	"github.com/hupe1980/logdb/internal/engine"
	"github.com/hupe1980/logdb/internal/settings"
	"github.com/hupe1980/logdb/model"
)

// resolveSettings picks the engine settings for storage: an explicit
// override, then the settings file of a SlateDb backend, then the defaults.
func resolveSettings(storage model.StorageConfig, override *Settings) (Settings, error) {
	var s Settings
	switch {
	case override != nil:
		s = *override
	default:
		s = settings.Default()
		if sc, ok := storage.(model.SlateDb); ok && sc.SettingsPath != nil {
			loaded, err := settings.Load(*sc.SettingsPath)
			if err != nil {
				return Settings{}, fmt.Errorf("%w: %w", ErrConfig, err)
			}
			s = loaded
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return s, nil
}

// openStore builds the object store behind storage. Failures constructing
// clients are native errors.
func openStore(ctx context.Context, storage model.StorageConfig, s Settings) (blobstore.Store, error) {
	var store blobstore.Store

	switch sc := storage.(type) {
	case model.InMemory:
		store = blobstore.NewMemoryStore()
	case model.SlateDb:
		var err error
		if store, err = openObjectStore(ctx, sc.ObjectStore, sc.Path, s); err != nil {
			return nil, nativeError(err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported storage %T", ErrConfig, storage)
	}

	if s.SegmentCacheBytes > 0 {
		store = blobstore.NewCachingStore(store, cache.NewLRU(s.SegmentCacheBytes), engine.SegmentPrefix)
	}
	return store, nil
}

func openObjectStore(ctx context.Context, osc model.ObjectStoreConfig, root string, s Settings) (blobstore.Store, error) {
	switch oc := osc.(type) {
	case model.InMemoryObjectStore:
		return blobstore.NewPrefixedStore(blobstore.NewMemoryStore(), root), nil

	case model.LocalObjectStore:
		return blobstore.NewLocalStore(filepath.Join(oc.Path, filepath.FromSlash(root))), nil

	case model.AwsObjectStore:
		prefix := strings.Trim(root, "/") + "/"

		if s.S3Endpoint != "" {
			client, err := miniostore.NewClient(s.S3Endpoint, oc.Region)
			if err != nil {
				return nil, fmt.Errorf("s3 endpoint %q: %w", s.S3Endpoint, err)
			}
			return miniostore.NewStore(client, oc.Bucket, prefix), nil
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(oc.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		store := s3store.NewStore(awss3.NewFromConfig(awsCfg), oc.Bucket, prefix)
		if s.ManifestCommitTable == "" {
			return store, nil
		}
		baseURI := "s3://" + oc.Bucket + "/" + strings.Trim(root, "/")
		return s3store.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), s.ManifestCommitTable, baseURI), nil

	default:
		return nil, fmt.Errorf("%w: unsupported object store %T", ErrConfig, osc)
	}
}

// describeStorage names storage for log output.
func describeStorage(storage model.StorageConfig) string {
	switch sc := storage.(type) {
	case model.InMemory:
		return "in_memory"
	case model.SlateDb:
		switch oc := sc.ObjectStore.(type) {
		case model.InMemoryObjectStore:
			return "slatedb+in_memory:" + sc.Path
		case model.LocalObjectStore:
			return "slatedb+local:" + filepath.Join(oc.Path, sc.Path)
		case model.AwsObjectStore:
			return "slatedb+s3://" + oc.Bucket + "/" + sc.Path
		}
		return "slatedb:" + sc.Path
	default:
		return fmt.Sprintf("%T", storage)
	}
}
