// Package stores contains implementations of sleuthlib.SegmentStore.
//
// Each store keeps one document per segment key and replaces it
// atomically on write: filesystem store renames a temporary file, redis
// uses a single SET and SQL stores use a single upsert statement.
package stores
