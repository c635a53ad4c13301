package provision

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/lending/pkg/platform"
	"github.com/credebt/setup/solana/pkg/rpc"
)

const (
	defaultMintAmount    = 1_000_000
	defaultMinBalance    = 1 * rpc.LamportsPerSOL
	defaultAirdropAmount = 2 * rpc.LamportsPerSOL
)

type Config struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	RPC    rpc.Client
	Payer  solana.PrivateKey

	// Decimals is the precision of the new mint.
	Decimals uint8
	// MintAmount is credited to the payer, in whole tokens.
	MintAmount uint64
	// MinBalance and AirdropAmount are in lamports. A payer below
	// MinBalance receives one airdrop of AirdropAmount.
	MinBalance    uint64
	AirdropAmount uint64

	EnvTargets []config.EnvTarget
	Out        io.Writer
	// NewMintKey generates the mint keypair.
	NewMintKey func() (solana.PrivateKey, error)
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if len(cfg.Payer) == 0 {
		return errors.New("payer is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = platform.USDCDecimals
	}
	if cfg.MintAmount == 0 {
		cfg.MintAmount = defaultMintAmount
	}
	if cfg.MinBalance == 0 {
		cfg.MinBalance = defaultMinBalance
	}
	if cfg.AirdropAmount == 0 {
		cfg.AirdropAmount = defaultAirdropAmount
	}
	if cfg.EnvTargets == nil {
		cfg.EnvTargets = config.DefaultEnvTargets()
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.NewMintKey == nil {
		cfg.NewMintKey = solana.NewRandomPrivateKey
	}
	return nil
}
