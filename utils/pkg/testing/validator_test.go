package setuptesting

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetup_Validator_ConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &ValidatorConfig{}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "solanalabs/solana:v1.18.26", cfg.ContainerImage)
	require.Equal(t, 2*time.Minute, cfg.StartupTimeout)
}

func TestSetup_Validator_RetryableStartErrors(t *testing.T) {
	t.Parallel()

	require.True(t, isRetryableContainerStartErr(errors.New("wait until ready: mapped port: timeout")))
	require.True(t, isRetryableContainerStartErr(errors.New("context deadline exceeded")))
	require.False(t, isRetryableContainerStartErr(errors.New("pull access denied")))
	require.False(t, isRetryableContainerStartErr(nil))
}
