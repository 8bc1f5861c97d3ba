// Package s3gateway persists the dataset snapshot as a single JSON object in
// an S3-compatible bucket, via the MinIO client.
//
// Object storage offers no conditional write, so the version check is a
// read-verify before the put: the stored object's version must still equal
// the expected version when the save starts. The remaining race window makes
// this gateway suitable for single-writer deployments and for archival or
// backup tiers behind a strongly consistent primary gateway, not for
// concurrent writers.
package s3gateway
