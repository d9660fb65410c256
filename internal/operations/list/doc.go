// Package list fetches listing pages one at a time.
//
// A PageFetcher owns the continuation token for one bucket/prefix listing and
// reports exhaustion when the service stops returning a token.
package list
