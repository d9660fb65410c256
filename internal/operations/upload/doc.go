// Package upload chooses between a single put and a multipart session for
// each upload and runs the chosen path.
//
// Objects whose plan has one part and whose size is below the multipart
// threshold are put in one call. Everything else goes through
// internal/transfer/multipart, which aborts the session on failure.
package upload
