package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/lending/pkg/platform"
	"github.com/credebt/setup/solana/pkg/anchor"
	"github.com/credebt/setup/solana/pkg/rpc"
)

// ErrMissingConfig is returned before any network call when the program or
// mint identity is absent.
var ErrMissingConfig = config.ErrMissingConfig

type Config struct {
	Logger    *slog.Logger
	Clock     clockwork.Clock
	RPC       rpc.Client
	Signer    solana.PrivateKey
	ProgramID solana.PublicKey
	Mint      solana.PublicKey
	IDL       *anchor.IDL
	Params    platform.Params
	Decimals  uint8
	DryRun    bool
	Out       io.Writer
}

func (cfg *Config) Validate() error {
	if cfg.ProgramID.IsZero() {
		return fmt.Errorf("%w: program id is required", ErrMissingConfig)
	}
	if cfg.Mint.IsZero() {
		return fmt.Errorf("%w: usdc mint is required", ErrMissingConfig)
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if len(cfg.Signer) == 0 {
		return errors.New("signer is required")
	}
	if cfg.IDL == nil {
		return errors.New("idl is required")
	}
	if cfg.Params == (platform.Params{}) {
		cfg.Params = platform.DefaultParams()
	}
	if err := cfg.Params.Validate(); err != nil {
		return fmt.Errorf("invalid platform parameters: %w", err)
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = platform.USDCDecimals
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return nil
}
