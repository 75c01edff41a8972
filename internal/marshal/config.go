package marshal

import (
	"fmt"
	"time"

	"github.com/hupe1980/logdb/model"
)

// ResolveStorage resolves v into a StorageConfig.
func ResolveStorage(v any) (model.StorageConfig, error) {
	return resolveStorage(v, "storage")
}

func resolveStorage(v any, path string) (model.StorageConfig, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
	case model.InMemory:
		return s, nil
	case *model.InMemory:
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return *s, nil
	case model.SlateDb:
		return resolveSlateDb(s, path)
	case *model.SlateDb:
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return resolveSlateDb(*s, path)
	case map[string]any, map[any]any:
		doc, err := asDocument(v, path)
		if err != nil {
			return nil, err
		}
		return storageFromDocument(doc, path)
	default:
		return nil, fmt.Errorf("%w: %s of type %T", ErrUnknownVariant, path, v)
	}
}

func resolveSlateDb(s model.SlateDb, path string) (model.StorageConfig, error) {
	store, err := resolveObjectStore(s.ObjectStore, join(path, "object_store"))
	if err != nil {
		return nil, err
	}
	s.ObjectStore = store
	return s, nil
}

func storageFromDocument(doc Document, path string) (model.StorageConfig, error) {
	tag, err := variant(doc, path)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "inmemory":
		return model.InMemory{}, nil
	case "slatedb":
		p, err := requiredString(doc, path, "path")
		if err != nil {
			return nil, err
		}
		rawStore, ok := doc["object_store"]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, join(path, "object_store"))
		}
		store, err := resolveObjectStore(rawStore, join(path, "object_store"))
		if err != nil {
			return nil, err
		}
		cfg := model.SlateDb{Path: p, ObjectStore: store}
		if sp, ok, err := stringField(doc, path, "settings_path"); err != nil {
			return nil, err
		} else if ok {
			cfg.SettingsPath = &sp
		}
		return cfg, nil
	default:
		return nil, fmt.Errorf("%w: %s type %q", ErrUnknownVariant, path, doc["type"])
	}
}

// ResolveObjectStore resolves v into an ObjectStoreConfig.
func ResolveObjectStore(v any) (model.ObjectStoreConfig, error) {
	return resolveObjectStore(v, "object_store")
}

func resolveObjectStore(v any, path string) (model.ObjectStoreConfig, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
	case model.InMemoryObjectStore, model.LocalObjectStore, model.AwsObjectStore:
		return s.(model.ObjectStoreConfig), nil
	case *model.InMemoryObjectStore:
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return *s, nil
	case *model.LocalObjectStore:
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return *s, nil
	case *model.AwsObjectStore:
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return *s, nil
	case map[string]any, map[any]any:
		doc, err := asDocument(v, path)
		if err != nil {
			return nil, err
		}
		return objectStoreFromDocument(doc, path)
	default:
		return nil, fmt.Errorf("%w: %s of type %T", ErrUnknownVariant, path, v)
	}
}

func objectStoreFromDocument(doc Document, path string) (model.ObjectStoreConfig, error) {
	tag, err := variant(doc, path)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "inmemory":
		return model.InMemoryObjectStore{}, nil
	case "local":
		p, err := requiredString(doc, path, "path")
		if err != nil {
			return nil, err
		}
		return model.LocalObjectStore{Path: p}, nil
	case "aws":
		region, err := requiredString(doc, path, "region")
		if err != nil {
			return nil, err
		}
		bucket, err := requiredString(doc, path, "bucket")
		if err != nil {
			return nil, err
		}
		return model.AwsObjectStore{Region: region, Bucket: bucket}, nil
	default:
		return nil, fmt.Errorf("%w: %s type %q", ErrUnknownVariant, path, doc["type"])
	}
}

// ResolveConfig resolves v into a validated read-write Config.
func ResolveConfig(v any) (model.Config, error) {
	var cfg model.Config

	switch c := v.(type) {
	case model.Config:
		cfg = c
	case *model.Config:
		if c == nil {
			return model.Config{}, fmt.Errorf("%w: config", ErrMissingField)
		}
		cfg = *c
	case map[string]any, map[any]any:
		doc, err := asDocument(v, "config")
		if err != nil {
			return model.Config{}, err
		}
		if cfg, err = configFromDocument(doc); err != nil {
			return model.Config{}, err
		}
	default:
		return model.Config{}, fmt.Errorf("%w: config of type %T", ErrUnknownVariant, v)
	}

	storage, err := resolveStorage(cfg.Storage, "storage")
	if err != nil {
		return model.Config{}, err
	}
	cfg.Storage = storage

	if err := cfg.Validate(); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func configFromDocument(doc Document) (model.Config, error) {
	storage, err := resolveStorage(doc["storage"], "storage")
	if err != nil {
		return model.Config{}, err
	}
	cfg := model.Config{Storage: storage}

	if raw, ok := doc["segmentation"]; ok && raw != nil {
		seg, err := asDocument(raw, "segmentation")
		if err != nil {
			return model.Config{}, err
		}
		interval, err := durationMs(seg, "segmentation", "seal_interval_ms")
		if err != nil {
			return model.Config{}, err
		}
		cfg.Segmentation.SealInterval = interval
	}

	return cfg, nil
}

// ResolveReaderConfig resolves v into a validated ReaderConfig.
func ResolveReaderConfig(v any) (model.ReaderConfig, error) {
	var cfg model.ReaderConfig

	switch c := v.(type) {
	case model.ReaderConfig:
		cfg = c
	case *model.ReaderConfig:
		if c == nil {
			return model.ReaderConfig{}, fmt.Errorf("%w: reader config", ErrMissingField)
		}
		cfg = *c
	case map[string]any, map[any]any:
		doc, err := asDocument(v, "reader")
		if err != nil {
			return model.ReaderConfig{}, err
		}
		if cfg, err = readerConfigFromDocument(doc); err != nil {
			return model.ReaderConfig{}, err
		}
	default:
		return model.ReaderConfig{}, fmt.Errorf("%w: reader config of type %T", ErrUnknownVariant, v)
	}

	storage, err := resolveStorage(cfg.Storage, "storage")
	if err != nil {
		return model.ReaderConfig{}, err
	}
	cfg.Storage = storage

	if err := cfg.Validate(); err != nil {
		return model.ReaderConfig{}, err
	}
	return cfg, nil
}

func readerConfigFromDocument(doc Document) (model.ReaderConfig, error) {
	storage, err := resolveStorage(doc["storage"], "storage")
	if err != nil {
		return model.ReaderConfig{}, err
	}
	interval, err := durationMs(doc, "", "refresh_interval_ms")
	if err != nil {
		return model.ReaderConfig{}, err
	}
	return model.ReaderConfig{Storage: storage, RefreshInterval: interval}, nil
}

// durationMs reads an optional positive millisecond duration.
func durationMs(doc Document, path, name string) (time.Duration, error) {
	ms, ok, err := intField(doc, path, name)
	if err != nil || !ok {
		return 0, err
	}
	if ms <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidValue, join(path, name), ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
