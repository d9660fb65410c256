// Package cli implements the s4 command line tool.
//
// Settings come from flags, S4_* environment variables and an optional
// YAML config file, in that order of precedence, and are validated before
// any client is built.
package cli
