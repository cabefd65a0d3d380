// package errors contains domain errors that different layers can use to add
// meaning to an error and that the HTTP handlers and Temporal activities can
// transform to a status code or retry policy. This is implemented as a
// separate package in order to avoid cycle import errors.
package errors

import (
	"fmt"
)

// The following errors serve as domain errors that can be used by the
// different layers.
var (
	// ErrAuthentication is used when a webhook carries a bad or missing
	// signature or token.
	ErrAuthentication = fmt.Errorf("authentication failure")
	// ErrMalformedInput is used when an inbound event is missing required
	// fields, has the wrong type or can't be decoded.
	ErrMalformedInput = fmt.Errorf("malformed input")
	// ErrUpstreamMetadata is used when the meeting platform API returns a
	// non-success response.
	ErrUpstreamMetadata = fmt.Errorf("upstream metadata failure")
	// ErrTransfer is used when a file can't be copied into durable storage.
	ErrTransfer = fmt.Errorf("transfer failure")
	// ErrAssemblyInvariant signals that the transfer receipts don't match the
	// run's file list. It is a programming error and is never retried.
	ErrAssemblyInvariant = fmt.Errorf("assembly invariant violation")
	// ErrNotification is used when the downstream queue rejects a document.
	ErrNotification = fmt.Errorf("notification failure")
	// ErrNotFound is used when a resource doesn't exist.
	ErrNotFound = fmt.Errorf("not found")
)
