package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/credebt/setup/utils/pkg/metrics"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
)

const defaultPollInterval = 500 * time.Millisecond

var (
	// ErrTransactionFailed is returned when a transaction lands with an error.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrAirdropFailed is returned when the faucet rejects or never settles a top-up.
	ErrAirdropFailed = errors.New("airdrop failed")
)

type SenderConfig struct {
	Logger       *slog.Logger
	Clock        clockwork.Clock
	RPC          Client
	PollInterval time.Duration
}

func (cfg *SenderConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return nil
}

// Sender builds, signs, submits and confirms transactions one at a time.
type Sender struct {
	log *slog.Logger
	cfg SenderConfig
}

func NewSender(cfg SenderConfig) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sender{log: cfg.Logger, cfg: cfg}, nil
}

// Send submits instructions in a single transaction paid for by payer and
// blocks until it reaches the confirmed level. Every key in signers must
// cover a signer account of the instructions; payer is always a signer.
func (s *Sender) Send(ctx context.Context, payer solana.PrivateKey, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := s.cfg.RPC.GetLatestBlockhash(ctx, Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if blockhash == nil || blockhash.Value == nil {
		return solana.Signature{}, errors.New("failed to get latest blockhash: empty response")
	}

	tx, err := solana.NewTransaction(instructions, blockhash.Value.Blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	keys := append([]solana.PrivateKey{payer}, signers...)
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.cfg.RPC.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
		PreflightCommitment: Commitment,
	})
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("rejected").Inc()
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	s.log.Debug("transaction submitted", "signature", sig.String())

	if err := s.WaitForConfirmation(ctx, sig); err != nil {
		metrics.TransactionsTotal.WithLabelValues("failed").Inc()
		return sig, err
	}
	metrics.TransactionsTotal.WithLabelValues("confirmed").Inc()
	return sig, nil
}

// WaitForConfirmation polls the signature status until it is confirmed or
// finalized. There is no deadline other than ctx.
func (s *Sender) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	for {
		done, err := s.checkStatus(ctx, sig)
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for confirmation of %s: %w", sig, ctx.Err())
		case <-s.cfg.Clock.After(s.cfg.PollInterval):
		}
	}
}

func (s *Sender) checkStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	out, err := s.cfg.RPC.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}
	status := out.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err)
	}
	switch status.ConfirmationStatus {
	case solanarpc.ConfirmationStatusConfirmed, solanarpc.ConfirmationStatusFinalized:
		return true, nil
	}
	s.log.Debug("waiting for confirmation", "signature", sig.String(), "status", string(status.ConfirmationStatus))
	return false, nil
}

// Airdrop requests lamports from the endpoint's faucet and waits for the
// top-up to be confirmed.
func (s *Sender) Airdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := s.cfg.RPC.RequestAirdrop(ctx, account, lamports, Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %w", ErrAirdropFailed, err)
	}
	if err := s.WaitForConfirmation(ctx, sig); err != nil {
		return sig, fmt.Errorf("%w: %w", ErrAirdropFailed, err)
	}
	return sig, nil
}
