package setuptesting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/credebt/setup/utils/pkg/retry"
)

const validatorRPCPort = nat.Port("8899/tcp")

// ValidatorConfig holds the solana-test-validator container configuration.
type ValidatorConfig struct {
	ContainerImage string
	StartupTimeout time.Duration
}

func (cfg *ValidatorConfig) Validate() error {
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "solanalabs/solana:v1.18.26"
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 2 * time.Minute
	}
	return nil
}

// Validator is a local test validator running in a container.
type Validator struct {
	log       *slog.Logger
	rpcURL    string
	container *testcontainers.DockerContainer
}

// RPCURL returns the JSON-RPC endpoint of the validator.
func (v *Validator) RPCURL() string {
	return v.rpcURL
}

// Close terminates the validator container.
func (v *Validator) Close() {
	terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := v.container.Terminate(terminateCtx); err != nil {
		v.log.Error("failed to terminate validator container", "error", err)
	}
}

// NewValidator starts a solana-test-validator container. The ledger is
// throwaway, so every run starts from genesis with a permissive faucet.
func NewValidator(ctx context.Context, log *slog.Logger, cfg *ValidatorConfig) (*Validator, error) {
	if cfg == nil {
		cfg = &ValidatorConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate validator config: %w", err)
	}

	var container *testcontainers.DockerContainer
	retryCfg := retry.DefaultConfig()
	retryCfg.BaseBackoff = 750 * time.Millisecond
	retryCfg.Retryable = isRetryableContainerStartErr
	err := retry.Do(ctx, retryCfg, func() error {
		var runErr error
		container, runErr = testcontainers.Run(ctx,
			cfg.ContainerImage,
			testcontainers.WithEntrypoint("solana-test-validator"),
			testcontainers.WithCmd("--reset", "--quiet", "--ledger", "/tmp/test-ledger"),
			testcontainers.WithExposedPorts(string(validatorRPCPort)),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort(validatorRPCPort).WithStartupTimeout(cfg.StartupTimeout),
			),
		)
		if runErr != nil {
			log.Warn("validator container failed to start", "error", runErr)
			if container != nil {
				_ = container.Terminate(ctx)
				container = nil
			}
		}
		return runErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start validator container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, validatorRPCPort, "http")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get validator endpoint: %w", err)
	}

	return &Validator{
		log:       log,
		rpcURL:    endpoint,
		container: container,
	}, nil
}

// RequireIntegration skips the test unless SETUP_INTEGRATION=1 is set, since
// the end-to-end tests need a docker daemon and pull a large image.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("SETUP_INTEGRATION") != "1" {
		t.Skip("set SETUP_INTEGRATION=1 to run tests against a containerized validator")
	}
}

func isRetryableContainerStartErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "context deadline exceeded")
}
