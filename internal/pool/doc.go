// Package pool provides buffer reuse for transfers.
//
// Part buffers are pooled per part size so that consecutive multipart
// uploads with the same configuration reuse one allocation. Copy buffers
// have a fixed size and back streaming downloads.
package pool
