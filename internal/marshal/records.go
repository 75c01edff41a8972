package marshal

import (
	"fmt"

	"github.com/hupe1980/logdb/model"
)

// RecordLike is implemented by host objects that carry a record.
type RecordLike interface {
	RecordKey() []byte
	RecordPayload() []byte
	RecordTimestampMs() int64
}

// ExtractRecords walks an ordered sequence of record-like values and returns
// the records with the timestamp of the first one. Timestamps are taken from
// the values, never generated here.
//
// Accepted sequences are []model.Record, []*model.Record, []RecordLike,
// []Document and []any whose elements are any of those.
func ExtractRecords(v any) ([]model.Record, int64, error) {
	var records []model.Record

	switch seq := v.(type) {
	case nil:
		return nil, 0, fmt.Errorf("%w: records", ErrEmptyBatch)
	case []model.Record:
		records = seq
	case []*model.Record:
		records = make([]model.Record, len(seq))
		for i, r := range seq {
			if r == nil {
				return nil, 0, fmt.Errorf("%w: records[%d] is nil", ErrMissingField, i)
			}
			records[i] = *r
		}
	case []RecordLike:
		records = make([]model.Record, len(seq))
		for i, r := range seq {
			rec, err := extractRecord(r, i)
			if err != nil {
				return nil, 0, err
			}
			records[i] = rec
		}
	case []Document:
		records = make([]model.Record, len(seq))
		for i, d := range seq {
			rec, err := extractRecord(d, i)
			if err != nil {
				return nil, 0, err
			}
			records[i] = rec
		}
	case []any:
		records = make([]model.Record, len(seq))
		for i, item := range seq {
			rec, err := extractRecord(item, i)
			if err != nil {
				return nil, 0, err
			}
			records[i] = rec
		}
	default:
		return nil, 0, fmt.Errorf("%w: records must be a sequence, got %T", ErrFieldType, v)
	}

	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%w: records", ErrEmptyBatch)
	}

	return records, records[0].TimestampMs, nil
}

func extractRecord(v any, i int) (model.Record, error) {
	path := fmt.Sprintf("records[%d]", i)

	switch r := v.(type) {
	case nil:
		return model.Record{}, fmt.Errorf("%w: %s is nil", ErrMissingField, path)
	case model.Record:
		return r, nil
	case *model.Record:
		if r == nil {
			return model.Record{}, fmt.Errorf("%w: %s is nil", ErrMissingField, path)
		}
		return *r, nil
	case RecordLike:
		return model.Record{
			Key:         r.RecordKey(),
			Payload:     r.RecordPayload(),
			TimestampMs: r.RecordTimestampMs(),
		}, nil
	case map[string]any, map[any]any:
		doc, err := asDocument(v, path)
		if err != nil {
			return model.Record{}, err
		}
		return recordFromDocument(doc, path)
	default:
		return model.Record{}, fmt.Errorf("%w: %s of type %T is not a record", ErrFieldType, path, v)
	}
}

func recordFromDocument(doc Document, path string) (model.Record, error) {
	key, ok, err := bytesField(doc, path, "key")
	if err != nil {
		return model.Record{}, err
	}
	if !ok {
		return model.Record{}, fmt.Errorf("%w: %s", ErrMissingField, join(path, "key"))
	}

	payload, ok, err := bytesField(doc, path, "payload")
	if err != nil {
		return model.Record{}, err
	}
	if !ok {
		// "value" is accepted as an alias of "payload".
		if payload, ok, err = bytesField(doc, path, "value"); err != nil {
			return model.Record{}, err
		}
		if !ok {
			return model.Record{}, fmt.Errorf("%w: %s", ErrMissingField, join(path, "payload"))
		}
	}

	ts, ok, err := intField(doc, path, "timestamp_ms")
	if err != nil {
		return model.Record{}, err
	}
	if !ok {
		return model.Record{}, fmt.Errorf("%w: %s", ErrMissingField, join(path, "timestamp_ms"))
	}

	return model.Record{Key: key, Payload: payload, TimestampMs: ts}, nil
}
