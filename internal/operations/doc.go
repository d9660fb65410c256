// Package operations contains the single-call operation implementations.
// These handle the low-level AWS SDK interactions: fetching listing pages,
// putting objects in one call and downloading objects.
//
// Each operation is isolated into its own subpackage.
package operations
