// Package internal contains private implementation details for the s4 module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - operations: page fetching, single puts and downloads
//   - transfer: multipart planning and sessions
//   - validation: input validation logic
//   - pool: part buffer reuse
//   - metrics: Prometheus counters
//   - testutil: mocks, an in-memory fake service and LocalStack helpers
//   - cli: the s4 command line tool
package internal
