// Package download retrieves objects and streams their bodies to writers
// and local files.
//
// Bodies are copied in pool.CopyBufferSize chunks, so memory use does not
// grow with object size. File targets are created only after the service
// has returned the object, and are never overwritten.
package download
