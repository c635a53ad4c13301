package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/solana/pkg/wallet"
)

// Deps are the collaborators Execute does not build from settings.
type Deps struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	// Dial opens the RPC client. It defaults to rpc.Dial.
	Dial       func(url string) rpc.Client
	Out        io.Writer
	NewMintKey func() (solana.PrivateKey, error)
}

// Execute loads the wallet named by settings and runs the provisioning flow
// against settings.RPCURL.
func Execute(ctx context.Context, settings *config.Provision, deps Deps) (*Result, error) {
	if settings == nil {
		return nil, errors.New("settings are required")
	}
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	fmt.Fprintln(deps.Out, "Creating test USDC token on local Solana validator...")

	payer, err := wallet.Load(settings.WalletPath)
	if err != nil {
		return nil, err
	}

	dial := deps.Dial
	if dial == nil {
		dial = func(url string) rpc.Client { return rpc.Dial(url) }
	}
	deps.Logger.Debug("provision: connecting", "rpc_url", settings.RPCURL, "commitment", string(rpc.Commitment))

	return Run(ctx, Config{
		Logger:     deps.Logger,
		Clock:      deps.Clock,
		RPC:        dial(settings.RPCURL),
		Payer:      payer,
		EnvTargets: settings.EnvTargets,
		Out:        deps.Out,
		NewMintKey: deps.NewMintKey,
	})
}
