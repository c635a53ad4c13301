// Package rpctest provides an in-memory stand-in for the Solana RPC client.
package rpctest

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// MockClient implements rpc.Client. Unset funcs fall back to a benign
// default: empty balances, missing accounts, confirmed signatures.
type MockClient struct {
	GetBalanceFunc                        func(ctx context.Context, account solana.PublicKey) (uint64, error)
	RequestAirdropFunc                    func(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)
	GetMinimumBalanceForRentExemptionFunc func(ctx context.Context, dataSize uint64) (uint64, error)
	GetAccountInfoFunc                    func(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error)
	SendTransactionFunc                   func(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatusesFunc              func(ctx context.Context, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)

	mu    sync.Mutex
	calls map[string]int
	sent  []*solana.Transaction
}

func (m *MockClient) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of RPC calls of any kind.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Sent returns the transactions passed to SendTransactionWithOpts.
func (m *MockClient) Sent() []*solana.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*solana.Transaction(nil), m.sent...)
}

func (m *MockClient) GetBalance(ctx context.Context, account solana.PublicKey, _ solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error) {
	m.record("GetBalance")
	var lamports uint64
	if m.GetBalanceFunc != nil {
		var err error
		lamports, err = m.GetBalanceFunc(ctx, account)
		if err != nil {
			return nil, err
		}
	}
	return &solanarpc.GetBalanceResult{Value: lamports}, nil
}

func (m *MockClient) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, _ solanarpc.CommitmentType) (solana.Signature, error) {
	m.record("RequestAirdrop")
	if m.RequestAirdropFunc != nil {
		return m.RequestAirdropFunc(ctx, account, lamports)
	}
	return solana.Signature{1}, nil
}

func (m *MockClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, _ solanarpc.CommitmentType) (uint64, error) {
	m.record("GetMinimumBalanceForRentExemption")
	if m.GetMinimumBalanceForRentExemptionFunc != nil {
		return m.GetMinimumBalanceForRentExemptionFunc(ctx, dataSize)
	}
	return 1_461_600, nil
}

func (m *MockClient) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, _ *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error) {
	m.record("GetAccountInfo")
	if m.GetAccountInfoFunc != nil {
		return m.GetAccountInfoFunc(ctx, account)
	}
	return nil, solanarpc.ErrNotFound
}

func (m *MockClient) GetLatestBlockhash(_ context.Context, _ solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error) {
	m.record("GetLatestBlockhash")
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{Blockhash: solana.Hash{7}},
	}, nil
}

func (m *MockClient) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, _ solanarpc.TransactionOpts) (solana.Signature, error) {
	m.record("SendTransaction")
	m.mu.Lock()
	m.sent = append(m.sent, tx)
	m.mu.Unlock()
	if m.SendTransactionFunc != nil {
		return m.SendTransactionFunc(ctx, tx)
	}
	if len(tx.Signatures) > 0 {
		return tx.Signatures[0], nil
	}
	return solana.Signature{2}, nil
}

func (m *MockClient) GetSignatureStatuses(ctx context.Context, _ bool, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	m.record("GetSignatureStatuses")
	if m.GetSignatureStatusesFunc != nil {
		return m.GetSignatureStatusesFunc(ctx, sigs...)
	}
	out := &solanarpc.GetSignatureStatusesResult{}
	for range sigs {
		out.Value = append(out.Value, &solanarpc.SignatureStatusesResult{
			ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed,
		})
	}
	return out, nil
}

// AccountWithData wraps raw account bytes the way GetAccountInfo returns them.
func AccountWithData(owner solana.PublicKey, data []byte) *solanarpc.GetAccountInfoResult {
	return &solanarpc.GetAccountInfoResult{
		Value: &solanarpc.Account{
			Lamports: 1,
			Owner:    owner,
			Data:     solanarpc.DataBytesOrJSONFromBytes(data),
		},
	}
}
