package commands

import (
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/app"
	"github.com/neusse/schwabctl/internal/authflow"
	"github.com/neusse/schwabctl/internal/envstore"
)

// Exit codes, grouped by failure class. Documented in the README; keep the
// two in sync.
const (
	exitConfigurationMissing = 10
	exitConfigurationInvalid = 11
	exitConfigurationPersist = 12

	exitTokenMissing      = 20
	exitAcquisitionFailed = 21
	exitRefreshRejected   = 22
	exitRefreshFailed     = 23

	exitConnectivity = 30

	exitGeneric = 1
)

// exitError maps the error taxonomy onto distinct exit codes. Errors outside
// the taxonomy exit 1.
func exitError(err error) cli.ExitCoder {
	if err == nil {
		return nil
	}

	code := exitGeneric
	switch {
	case errors.Is(err, envstore.ErrMissing):
		code = exitConfigurationMissing
	case errors.Is(err, envstore.ErrInvalid):
		code = exitConfigurationInvalid
	case errors.Is(err, envstore.ErrPersist):
		code = exitConfigurationPersist
	case errors.Is(err, authflow.ErrTokenMissing):
		code = exitTokenMissing
	case errors.Is(err, authflow.ErrAcquisitionFailed):
		code = exitAcquisitionFailed
	case errors.Is(err, authflow.ErrRefreshRejected):
		code = exitRefreshRejected
	case errors.Is(err, authflow.ErrRefreshFailed):
		code = exitRefreshFailed
	case errors.Is(err, app.ErrConnectivity):
		code = exitConnectivity
	}

	return cli.Exit(err.Error(), code)
}
