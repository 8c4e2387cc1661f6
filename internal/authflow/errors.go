package authflow

import "errors"

// Token lifecycle error taxonomy. Commands map these onto distinct exit codes
// and remediation hints.
var (
	// ErrTokenMissing indicates no artifact exists at the configured
	// location; the user must run fetch-new-token first.
	ErrTokenMissing = errors.New("token artifact missing")

	// ErrAcquisitionFailed indicates the authorization-code exchange did
	// not complete. No artifact is left behind.
	ErrAcquisitionFailed = errors.New("token acquisition failed")

	// ErrRefreshRejected indicates the provider rejected the refresh
	// credential (revoked or expired). The artifact is left untouched.
	ErrRefreshRejected = errors.New("refresh credential rejected")

	// ErrRefreshFailed indicates the refresh exchange kept failing after
	// bounded retries.
	ErrRefreshFailed = errors.New("token refresh failed")
)
