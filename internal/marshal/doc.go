// Package marshal resolves dynamically typed host values into the closed,
// typed variants of package model.
//
// Host values arrive either already typed (model.Config, model.SlateDb, ...)
// or as documents: map[string]any trees as produced by encoding/json,
// yaml.v3 or a foreign-function bridge. Union variants are selected by the
// "type" key of a document:
//
//	storage:      {type: in_memory} | {type: slatedb, path, object_store, settings_path?}
//	object_store: {type: in_memory} | {type: local, path} | {type: aws, region, bucket}
//
// Every extraction step fails with a wrapped sentinel error naming the
// offending field. Nothing is defaulted silently: an unknown variant is an
// error.
package marshal
