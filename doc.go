// Package logdb provides a synchronous API over an asynchronous,
// log-structured storage engine.
//
// A log is an append-only, sequence-numbered sequence of keyed values. Every
// value written through logdb carries an 8-byte big-endian timestamp header
// (see Envelope below), so readers can measure end-to-end latency.
//
// # Quick Start
//
//	db, _ := logdb.Open(model.Config{Storage: model.InMemory{}})
//	defer db.Close()
//
//	res, _ := db.Append([]model.Record{
//	    model.NewRecord([]byte("orders"), []byte("created"), time.Now().UnixMilli()),
//	})
//	entries, _ := db.Scan([]byte("orders"), res.StartSequence, 100)
//
// Object storage:
//
//	db, _ := logdb.Open(model.Config{
//	    Storage: model.SlateDb{
//	        Path:        "events",
//	        ObjectStore: model.AwsObjectStore{Region: "eu-west-1", Bucket: "my-bucket"},
//	    },
//	})
//
// A Reader is an independent, read-only view of the same storage:
//
//	r, _ := logdb.OpenReader(model.ReaderConfig{Storage: storage, RefreshInterval: time.Second})
//	entries, _ := r.ScanWait([]byte("orders"), next, 100, 5*time.Second)
//
// # Execution Model
//
// Each DB owns two worker pools. Calls block on the foreground pool while
// the engine runs flush and compaction on the background pool, so blocked
// callers never starve maintenance. A Reader performs no maintenance and
// owns only a foreground pool. Close awaits the engine's own shutdown before
// the pools are released; the pools are released even when that fails.
//
// # Envelope
//
// Stored values have the layout
//
//	[8 bytes big-endian int64 timestamp_ms][payload...]
//
// Values shorter than 8 bytes, written before the header existed or by a
// foreign writer, are returned with timestamp 0 and their bytes unchanged.
//
// # Handles
//
// Create, CreateReader, Append, Scan and Close expose the same functionality
// over opaque, generation-checked handles for callers that cannot hold Go
// pointers, such as a foreign-function bridge. They accept dynamically typed
// configuration documents and record sequences; Create and Append describe
// the accepted shapes. Using a closed handle fails with ErrInvalidHandle.
//
// # Errors
//
// Every error returned by this package matches exactly one category with
// errors.Is: ErrInvalidArgument, ErrConfig, ErrEngine or ErrNative.
package logdb
