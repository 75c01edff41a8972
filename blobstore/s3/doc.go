// Package s3 provides Amazon S3 implementations of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("eu-central-1"))
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "events/")
//
// S3 has no compare-and-swap, so two writers racing on the same log can
// overwrite each other's CURRENT pointer. DDBCommitStore routes CURRENT
// through a DynamoDB conditional write instead.
package s3
