package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"

	"github.com/credebt/setup/lending/pkg/platform"
	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/utils/pkg/metrics"
)

const flow = "provision"

type Result struct {
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	// Amount is the quantity minted, in smallest units.
	Amount     platform.Amount
	Airdropped bool
	EnvUpdates []EnvUpdate
	// EnvErrors are env file failures. They never fail the run.
	EnvErrors []error
}

// Provisioner creates a test token mint funded to the payer. Every run
// creates a new mint.
type Provisioner struct {
	log    *slog.Logger
	cfg    Config
	sender *rpc.Sender
	out    io.Writer
}

func New(cfg Config) (*Provisioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sender, err := rpc.NewSender(rpc.SenderConfig{
		Logger: cfg.Logger,
		Clock:  cfg.Clock,
		RPC:    cfg.RPC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}
	return &Provisioner{log: cfg.Logger, cfg: cfg, sender: sender, out: cfg.Out}, nil
}

// Run funds the payer if needed, creates the mint, credits the payer and
// rewrites the env files. Only the env file step is allowed to fail softly.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	payer := p.cfg.Payer.PublicKey()
	fmt.Fprintf(p.out, "Using wallet: %s\n", payer)

	if res.Airdropped, err = p.EnsureFunded(ctx); err != nil {
		return nil, err
	}
	if res.Mint, err = p.CreateMint(ctx); err != nil {
		return nil, err
	}
	if res.TokenAccount, res.Amount, err = p.MintToOwner(ctx, res.Mint); err != nil {
		return nil, err
	}

	units := res.Amount.Units(p.cfg.Decimals)
	fmt.Fprintln(p.out, "\nTest USDC token created successfully!")
	fmt.Fprintf(p.out, "Token Mint Address: %s\n", res.Mint)
	fmt.Fprintf(p.out, "Token Account: %s\n", res.TokenAccount)
	fmt.Fprintf(p.out, "Balance: %s USDC\n", units)

	res.EnvUpdates, res.EnvErrors = p.PropagateMint(res.Mint)

	fmt.Fprintln(p.out, "\nRemember: This is a test token for development purposes only!")
	metrics.RunOutcomeTotal.WithLabelValues(flow, "provisioned").Inc()
	return res, nil
}

// EnsureFunded airdrops once when the payer balance is below MinBalance. It
// reports whether an airdrop was made.
func (p *Provisioner) EnsureFunded(ctx context.Context) (airdropped bool, err error) {
	defer metrics.ObserveStep(flow, "ensure_funded", time.Now(), &err)

	payer := p.cfg.Payer.PublicKey()
	balance, err := p.cfg.RPC.GetBalance(ctx, payer, rpc.Commitment)
	if err != nil {
		return false, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	fmt.Fprintf(p.out, "Wallet balance: %s SOL\n", rpc.LamportsToSOL(balance.Value))
	if balance.Value >= p.cfg.MinBalance {
		return false, nil
	}

	p.log.Warn("provision: wallet balance is low, requesting airdrop",
		"balance_lamports", balance.Value, "airdrop_lamports", p.cfg.AirdropAmount)
	fmt.Fprintln(p.out, "Warning: Wallet balance is low. Airdropping SOL...")
	sig, err := p.sender.Airdrop(ctx, payer, p.cfg.AirdropAmount)
	if err != nil {
		return false, err
	}
	p.log.Info("provision: airdrop confirmed", "signature", sig.String())
	fmt.Fprintln(p.out, "Airdrop successful!")
	return true, nil
}

// CreateMint allocates and initializes a new mint with the payer as mint
// and freeze authority.
func (p *Provisioner) CreateMint(ctx context.Context) (mint solana.PublicKey, err error) {
	defer metrics.ObserveStep(flow, "create_mint", time.Now(), &err)

	mintKey, err := p.cfg.NewMintKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	mint = mintKey.PublicKey()
	payer := p.cfg.Payer.PublicKey()
	fmt.Fprintf(p.out, "Creating mint: %s\n", mint)

	rent, err := p.cfg.RPC.GetMinimumBalanceForRentExemption(ctx, token.MINT_SIZE, rpc.Commitment)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to get mint rent: %w", err)
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(rent, token.MINT_SIZE, solana.TokenProgramID, payer, mint).Build(),
		token.NewInitializeMint2Instruction(p.cfg.Decimals, payer, payer, mint).Build(),
	}
	sig, err := p.sender.Send(ctx, p.cfg.Payer, instructions, mintKey)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create mint: %w", err)
	}
	p.log.Info("provision: mint created", "mint", mint.String(), "signature", sig.String())
	fmt.Fprintf(p.out, "Token mint created: %s\n", mint)
	return mint, nil
}

// MintToOwner credits MintAmount to the payer's associated token account,
// creating the account first when it does not exist.
func (p *Provisioner) MintToOwner(ctx context.Context, mint solana.PublicKey) (ata solana.PublicKey, amount platform.Amount, err error) {
	defer metrics.ObserveStep(flow, "mint_to_owner", time.Now(), &err)

	owner := p.cfg.Payer.PublicKey()
	ata, _, err = solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive token account: %w", err)
	}

	exists, err := rpc.AccountExists(ctx, p.cfg.RPC, ata)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	if !exists {
		ix := associatedtokenaccount.NewCreateInstruction(owner, owner, mint).Build()
		if _, err := p.sender.Send(ctx, p.cfg.Payer, []solana.Instruction{ix}); err != nil {
			return solana.PublicKey{}, 0, fmt.Errorf("failed to create token account: %w", err)
		}
	}
	fmt.Fprintf(p.out, "Token account created: %s\n", ata)

	amount, err = platform.AmountFromUnits(decimal.NewFromUint64(p.cfg.MintAmount), p.cfg.Decimals)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	ix := token.NewMintToInstruction(uint64(amount), mint, ata, owner, nil).Build()
	sig, err := p.sender.Send(ctx, p.cfg.Payer, []solana.Instruction{ix})
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to mint tokens: %w", err)
	}
	p.log.Info("provision: tokens minted", "token_account", ata.String(), "amount", uint64(amount), "signature", sig.String())
	fmt.Fprintf(p.out, "Minted %s tokens to %s\n", amount.Units(p.cfg.Decimals), ata)
	return ata, amount, nil
}
