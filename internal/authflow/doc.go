// Package authflow implements the Schwab OAuth token lifecycle: interactive
// acquisition of a new token artifact, non-interactive refresh of the access
// credential, and the artifact record both flows share.
//
// # Acquisition
//
// Acquire deletes any existing artifact, prints the authorization URL, waits
// for the authorization code (local callback listener and manual paste run
// concurrently, first one wins), exchanges the code, and atomically persists
// the new artifact:
//
//	art, err := authflow.Acquire(ctx, flow)
//
// # Refresh
//
// Refresh is a no-op while the access credential is still valid (with a 60s
// safety margin) unless forced. Transient exchange failures are retried with
// constant backoff; a rejected refresh credential is surfaced as
// ErrRefreshRejected and the artifact on disk is left untouched:
//
//	art, err := authflow.Refresh(ctx, flow, false)
package authflow
