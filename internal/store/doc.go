/*
Package store provides typed repositories over MongoDB collections.

A Collection resolves the database handle from its Provider on every call.
When no handle is available each operation fails with ErrUnavailable, which
the HTTP layer reports as 503. Malformed ids fail with ErrInvalidID and
missing documents with ErrNotFound.

Tests that need a live server carry the integration build tag:

	go test -tags integration ./internal/store/...
*/
package store
