package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusse/schwabctl/internal/app"
	"github.com/neusse/schwabctl/internal/authflow"
	"github.com/neusse/schwabctl/internal/envstore"
)

func TestExitErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{envstore.ErrMissing, exitConfigurationMissing},
		{envstore.ErrInvalid, exitConfigurationInvalid},
		{envstore.ErrPersist, exitConfigurationPersist},
		{authflow.ErrTokenMissing, exitTokenMissing},
		{authflow.ErrAcquisitionFailed, exitAcquisitionFailed},
		{authflow.ErrRefreshRejected, exitRefreshRejected},
		{authflow.ErrRefreshFailed, exitRefreshFailed},
		{app.ErrConnectivity, exitConnectivity},
		{errors.New("something else"), exitGeneric},
	}

	for _, tt := range tests {
		coder := exitError(tt.err)
		require.NotNil(t, coder, tt.err.Error())
		assert.Equal(t, tt.code, coder.ExitCode(), tt.err.Error())
	}
}

func TestExitErrorUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("token stage: %w", fmt.Errorf("%w: run fetch-new-token", authflow.ErrTokenMissing))
	assert.Equal(t, exitTokenMissing, exitError(wrapped).ExitCode())
}

func TestExitErrorNil(t *testing.T) {
	assert.Nil(t, exitError(nil))
}
