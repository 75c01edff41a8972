// Package model defines the core types shared by logdb and its internals.
//
// # Data Types
//
//   - Record: a key, a payload and the caller-captured submission timestamp
//   - LogEntry: a decoded entry returned by a scan
//   - AppendResult: the first sequence of a batch and its first timestamp
//
// # Configuration
//
// Storage backends are closed sum types. Every variant implements an
// unexported marker method, so a type switch over StorageConfig or
// ObjectStoreConfig covers exactly the variants declared here:
//
//	cfg := model.Config{
//	    Storage: model.SlateDb{
//	        Path:        "events",
//	        ObjectStore: model.LocalObjectStore{Path: "/var/lib/logdb"},
//	    },
//	}
package model
