// Package transfer contains upload orchestration that spans several calls.
package transfer
