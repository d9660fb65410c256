// Package multipart plans and drives multipart uploads.
//
// Plan splits an object into consecutive byte ranges. A Session tracks one
// server-side upload through NotStarted, Active, Completed and Aborted, and an
// Uploader reads a source one part at a time and feeds it to a Session.
//
// Each part is read fully into memory before it is sent, so a part must fit
// in memory. Parts are uploaded one after another on the caller's goroutine
// and failed parts are not retried. Any source or part failure aborts the
// upload before the error is returned. A failed complete call is the one
// exception: the upload stays open so the caller can retry completion or
// abort it explicitly.
package multipart
