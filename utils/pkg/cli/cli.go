package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/solana/pkg/anchor"
	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/solana/pkg/wallet"
)

const (
	ExitOK    = 0
	ExitFatal = 1
)

var hints = []struct {
	err  error
	hint string
}{
	{wallet.ErrCredentialNotFound, "Create a wallet using: " + wallet.KeygenHint},
	{anchor.ErrIDLUnreadable, `Make sure you have built the program with "` + anchor.BuildHint + `"`},
	{config.ErrMissingConfig, "Set it in api/.env or export it in the environment"},
	{rpc.ErrAirdropFailed, "Airdrops are only available on a local or test validator"},
}

// Exit prints err with any known remediation to w and returns the process
// exit code. A nil error is success.
func Exit(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(w, hint)
	}
	return ExitFatal
}

// Hint returns the remediation for err, or "" when none is known.
func Hint(err error) string {
	for _, h := range hints {
		if errors.Is(err, h.err) {
			return h.hint
		}
	}
	return ""
}
