package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/lending/pkg/platform"
	"github.com/credebt/setup/solana/pkg/anchor"
	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/solana/pkg/wallet"
)

// Deps are the collaborators Execute does not build from settings.
type Deps struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	// Dial opens the RPC client. It defaults to rpc.Dial.
	Dial   func(url string) rpc.Client
	Out    io.Writer
	DryRun bool
}

// Execute runs the bootstrap flow from explicit settings. Settings are
// checked before the wallet, the IDL, or the network is touched.
func Execute(ctx context.Context, settings *config.Bootstrap, deps Deps) (*Result, error) {
	if settings == nil {
		return nil, errors.New("settings are required")
	}
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	fmt.Fprintln(deps.Out, "Initializing CRE-Debt-Solana platform configuration...")

	programID, mint, err := settings.RequireIdentities()
	if err != nil {
		return nil, err
	}

	signer, err := wallet.Load(settings.WalletPath)
	if err != nil {
		return nil, err
	}

	idl, err := anchor.LoadIDL(settings.IDLPath)
	if err != nil {
		return nil, err
	}

	dial := deps.Dial
	if dial == nil {
		dial = func(url string) rpc.Client { return rpc.Dial(url) }
	}
	deps.Logger.Debug("bootstrap: connecting", "rpc_url", settings.RPCURL, "commitment", string(rpc.Commitment))

	return Run(ctx, Config{
		Logger:    deps.Logger,
		Clock:     deps.Clock,
		RPC:       dial(settings.RPCURL),
		Signer:    signer,
		ProgramID: programID,
		Mint:      mint,
		IDL:       idl,
		Params:    platform.DefaultParams(),
		Decimals:  platform.USDCDecimals,
		DryRun:    deps.DryRun,
		Out:       deps.Out,
	})
}
