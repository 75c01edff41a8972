// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// It serves AWS object stores configured with a custom endpoint, which covers
// MinIO itself and other S3-compatible systems like Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewEnvAWS(),
//	    Secure: false,
//	    Region: "us-east-1",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "events/")
package minio
