// Package ring implements the project's consistent-hash ring: Buckets own
// partition points on [0, 1), and a View resolves a hash to the bucket that
// owns it. Bucket names ("bucket-N") are shared verbatim with
// internal/kvstore; they are not the host:port identities used by
// internal/membership.
package ring
