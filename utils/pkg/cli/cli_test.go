package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/solana/pkg/anchor"
	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/solana/pkg/wallet"
)

func TestSetup_CLI_Exit(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.Equal(t, 0, Exit(&buf, nil))
		require.Empty(t, buf.String())
	})

	tests := []struct {
		name string
		err  error
		hint string
	}{
		{"missing wallet", fmt.Errorf("%w at /home/dev/.config/solana/id.json", wallet.ErrCredentialNotFound), "solana-keygen new --no-bip39-passphrase -o ~/.config/solana/id.json"},
		{"unreadable idl", fmt.Errorf("%w: open target/idl/loan_core.json: no such file", anchor.ErrIDLUnreadable), `"anchor build"`},
		{"missing config", fmt.Errorf("%w: LOAN_CORE_PROGRAM_ID is not defined in api/.env", config.ErrMissingConfig), "api/.env"},
		{"airdrop", fmt.Errorf("%w: rate limited", rpc.ErrAirdropFailed), "local or test validator"},
		{"remote rejection", fmt.Errorf("failed to initialize platform configuration: %w", rpc.ErrTransactionFailed), ""},
		{"plain", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.Equal(t, 1, Exit(&buf, tt.err))
			require.Contains(t, buf.String(), "Error: "+tt.err.Error())
			if tt.hint != "" {
				require.Contains(t, buf.String(), tt.hint)
			} else {
				require.Empty(t, Hint(tt.err))
			}
		})
	}

	t.Run("missing wallet names the path", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := wallet.Load("/nonexistent/id.json")
		require.Equal(t, 1, Exit(&buf, err))
		require.Contains(t, buf.String(), "/nonexistent/id.json")
	})
}
