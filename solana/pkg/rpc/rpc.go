package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// DefaultRPCURL is the local solana-test-validator endpoint.
const DefaultRPCURL = "http://localhost:8899"

// Commitment is the confirmation level used for every call.
const Commitment = solanarpc.CommitmentConfirmed

// LamportsPerSOL is the native-unit scaling (9 decimals).
const LamportsPerSOL = 1_000_000_000

// Client is the subset of the solana-go RPC client used by the setup flows.
type Client interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment solanarpc.CommitmentType) (solana.Signature, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment solanarpc.CommitmentType) (uint64, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
}

var _ Client = (*solanarpc.Client)(nil)

// Dial returns a client for url. No request is made until first use.
func Dial(url string) *solanarpc.Client {
	return solanarpc.New(url)
}

// GetAccount fetches an account at the confirmed level. A missing account is
// reported as (nil, nil).
func GetAccount(ctx context.Context, client Client, address solana.PublicKey) (*solanarpc.Account, error) {
	out, err := client.GetAccountInfoWithOpts(ctx, address, &solanarpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: Commitment,
	})
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	return out.Value, nil
}

// AccountExists reports whether an account is present at address.
func AccountExists(ctx context.Context, client Client, address solana.PublicKey) (bool, error) {
	account, err := GetAccount(ctx, client, address)
	if err != nil {
		return false, err
	}
	return account != nil, nil
}

// LamportsToSOL converts lamports to SOL
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-9)
}

// SOLToLamports converts SOL to lamports, truncating sub-lamport precision.
func SOLToLamports(sol decimal.Decimal) uint64 {
	return sol.Shift(9).BigInt().Uint64()
}
