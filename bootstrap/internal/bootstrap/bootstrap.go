package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/credebt/setup/lending/pkg/platform"
	"github.com/credebt/setup/solana/pkg/anchor"
	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/utils/pkg/metrics"
)

const flow = "bootstrap"

// Outcome is how a bootstrap run ended. Every outcome maps to exit code 0.
type Outcome string

const (
	OutcomeInitialized             Outcome = "initialized"
	OutcomeAlreadyConfigured       Outcome = "already_configured"
	OutcomeConcurrentlyInitialized Outcome = "concurrently_initialized"
	OutcomeDryRun                  Outcome = "dry_run"
)

type Result struct {
	Outcome              Outcome
	ConfigAddress        solana.PublicKey
	TreasuryTokenAccount solana.PublicKey
	// Signature is set only for OutcomeInitialized.
	Signature solana.Signature
	// Config is the record as written, or as found on chain.
	Config *platform.Config
}

type runner struct {
	log     *slog.Logger
	cfg     Config
	program *anchor.Program
	sender  *rpc.Sender
	out     io.Writer
}

// Run creates the platform configuration account unless it already exists.
// An existing record is reported and left untouched.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	program, err := anchor.Bind(cfg.IDL, cfg.ProgramID, cfg.Signer)
	if err != nil {
		return nil, fmt.Errorf("failed to bind program: %w", err)
	}
	sender, err := rpc.NewSender(rpc.SenderConfig{
		Logger: cfg.Logger,
		Clock:  cfg.Clock,
		RPC:    cfg.RPC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}

	r := &runner{
		log:     cfg.Logger,
		cfg:     cfg,
		program: program,
		sender:  sender,
		out:     cfg.Out,
	}
	res, err := r.run(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RunOutcomeTotal.WithLabelValues(flow, string(res.Outcome)).Inc()
	return res, nil
}

func (r *runner) run(ctx context.Context) (*Result, error) {
	authority := r.cfg.Signer.PublicKey()
	fmt.Fprintf(r.out, "Loan Core Program: %s\n", r.program.ID())
	fmt.Fprintf(r.out, "Admin Wallet: %s\n", authority)
	fmt.Fprintf(r.out, "USDC Mint: %s\n", r.cfg.Mint)

	treasuryATA, _, err := solana.FindAssociatedTokenAddress(authority, r.cfg.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive treasury token account: %w", err)
	}
	fmt.Fprintf(r.out, "Treasury Token Account: %s\n", treasuryATA)

	configPDA, _, err := r.program.FindAddress([]byte(platform.ConfigSeed))
	if err != nil {
		return nil, fmt.Errorf("failed to derive platform config address: %w", err)
	}
	fmt.Fprintf(r.out, "Platform Config PDA: %s\n", configPDA)

	res := &Result{ConfigAddress: configPDA, TreasuryTokenAccount: treasuryATA}

	account, err := r.lookup(ctx, configPDA)
	if err != nil {
		return nil, err
	}
	if account != nil {
		r.log.Info("bootstrap: platform config exists", "address", configPDA.String())
		fmt.Fprintln(r.out, "Platform configuration already exists!")
		fmt.Fprintln(r.out, "If you want to re-initialize, consider updating instead.")
		existing, err := r.reportExisting(account)
		if err != nil {
			return nil, err
		}
		res.Outcome = OutcomeAlreadyConfigured
		res.Config = existing
		return res, nil
	}

	applied := platform.NewConfig(authority, authority, treasuryATA, r.cfg.Params)
	if r.cfg.DryRun {
		r.log.Info("bootstrap: dry run, not submitting", "address", configPDA.String())
		fmt.Fprintln(r.out, "\nDry run: would initialize with:")
		if err := platform.Report(r.out, r.cfg.Params, r.cfg.Decimals); err != nil {
			return nil, err
		}
		res.Outcome = OutcomeDryRun
		res.Config = applied
		return res, nil
	}

	sig, err := r.initialize(ctx, authority, treasuryATA, configPDA)
	if err != nil {
		// The program rejects a second initialize. If the record appeared
		// meanwhile another process won the race.
		account, lookupErr := r.lookup(ctx, configPDA)
		if lookupErr != nil || account == nil {
			return nil, fmt.Errorf("failed to initialize platform configuration: %w", err)
		}
		r.log.Warn("bootstrap: platform config created concurrently", "address", configPDA.String(), "error", err)
		fmt.Fprintln(r.out, "Platform configuration was initialized by another process.")
		existing, err := r.reportExisting(account)
		if err != nil {
			return nil, err
		}
		res.Outcome = OutcomeConcurrentlyInitialized
		res.Config = existing
		return res, nil
	}

	r.log.Info("bootstrap: platform config initialized", "address", configPDA.String(), "signature", sig.String())
	fmt.Fprintf(r.out, "Transaction signature: %s\n", sig)
	fmt.Fprintln(r.out, "Platform configuration initialized successfully!")
	fmt.Fprintln(r.out, "\nConfiguration:")
	if err := platform.Report(r.out, r.cfg.Params, r.cfg.Decimals); err != nil {
		return nil, err
	}
	res.Outcome = OutcomeInitialized
	res.Signature = sig
	res.Config = applied
	return res, nil
}

func (r *runner) lookup(ctx context.Context, address solana.PublicKey) (account *solanarpc.Account, err error) {
	defer metrics.ObserveStep(flow, "existence_check", time.Now(), &err)
	account, err = rpc.GetAccount(ctx, r.cfg.RPC, address)
	if err != nil {
		return nil, fmt.Errorf("failed to check platform config: %w", err)
	}
	return account, nil
}

func (r *runner) initialize(ctx context.Context, authority, treasuryATA, configPDA solana.PublicKey) (sig solana.Signature, err error) {
	defer metrics.ObserveStep(flow, "initialize", time.Now(), &err)

	ix, err := r.program.Instruction(platform.InitializeInstruction, map[string]solana.PublicKey{
		"authority":            authority,
		"treasury":             authority,
		"treasuryTokenAccount": treasuryATA,
		"platformConfig":       configPDA,
		"systemProgram":        solana.SystemProgramID,
	}, r.cfg.Params.Args()...)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build initialize instruction: %w", err)
	}

	fmt.Fprintln(r.out, "Initializing platform configuration...")
	r.log.Debug("bootstrap: submitting initialize", "address", configPDA.String())
	return r.sender.Send(ctx, r.cfg.Signer, []solana.Instruction{ix})
}

func (r *runner) reportExisting(account *solanarpc.Account) (*platform.Config, error) {
	var existing platform.Config
	if err := r.program.DecodeAccount(platform.ConfigAccount, account.Data.GetBinary(), &existing); err != nil {
		return nil, fmt.Errorf("failed to fetch platform config: %w", err)
	}
	fmt.Fprintln(r.out, "\nCurrent Configuration:")
	if err := platform.ReportConfig(r.out, &existing, r.cfg.Decimals); err != nil {
		return nil, err
	}
	return &existing, nil
}
