package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/credebt/setup/solana/pkg/rpc/rpctest"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSetup_RPC_LamportConversions(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1", LamportsToSOL(LamportsPerSOL).String())
	require.Equal(t, "0.5", LamportsToSOL(500_000_000).String())
	require.Equal(t, "0.000000001", LamportsToSOL(1).String())
	require.Equal(t, uint64(2*LamportsPerSOL), SOLToLamports(decimal.NewFromInt(2)))

	for _, lamports := range []uint64{0, 1, 999, LamportsPerSOL, 2 * LamportsPerSOL, 123_456_789_012} {
		require.Equal(t, lamports, SOLToLamports(LamportsToSOL(lamports)))
	}
}

func TestSetup_RPC_AccountExists(t *testing.T) {
	t.Parallel()

	t.Run("not found maps to false", func(t *testing.T) {
		t.Parallel()

		exists, err := AccountExists(context.Background(), &rpctest.MockClient{}, solana.PublicKey{1})
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("present account maps to true", func(t *testing.T) {
		t.Parallel()

		client := &rpctest.MockClient{
			GetAccountInfoFunc: func(context.Context, solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
				return rpctest.AccountWithData(solana.SystemProgramID, []byte{1}), nil
			},
		}
		exists, err := AccountExists(context.Background(), client, solana.PublicKey{1})
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("transport errors propagate", func(t *testing.T) {
		t.Parallel()

		client := &rpctest.MockClient{
			GetAccountInfoFunc: func(context.Context, solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
				return nil, errors.New("connection refused")
			},
		}
		_, err := AccountExists(context.Background(), client, solana.PublicKey{1})
		require.Error(t, err)
		require.Contains(t, err.Error(), "connection refused")
	})
}
