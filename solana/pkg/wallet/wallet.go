package wallet

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// KeygenHint is the command that creates the default keypair file.
const KeygenHint = "solana-keygen new --no-bip39-passphrase -o ~/.config/solana/id.json"

var (
	// ErrCredentialNotFound is returned when the keypair file does not exist.
	ErrCredentialNotFound = errors.New("wallet keypair not found")
	// ErrInvalidCredential is returned when the keypair file cannot be decoded.
	ErrInvalidCredential = errors.New("invalid wallet keypair")
)

// DefaultPath returns the solana CLI's default keypair location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// Load reads a signing keypair from path. The file is either the JSON byte
// array written by solana-keygen or a base58 encoded 64-byte secret key.
func Load(path string) (solana.PrivateKey, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrCredentialNotFound, path)
		}
		return nil, fmt.Errorf("failed to read wallet keypair %s: %w", path, err)
	}

	content = bytes.TrimSpace(content)
	if len(content) > 0 && content[0] == '[' {
		key, err := solana.PrivateKeyFromSolanaKeygenFileBytes(content)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %w", ErrInvalidCredential, path, err)
		}
		return key, nil
	}

	raw, err := base58.Decode(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w at %s: not a JSON byte array or base58 key", ErrInvalidCredential, path)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w at %s: expected %d bytes, got %d", ErrInvalidCredential, path, ed25519.PrivateKeySize, len(raw))
	}
	key := solana.PrivateKey(raw)
	if _, err := solana.ValidatePrivateKey(key); err != nil {
		return nil, fmt.Errorf("%w at %s: %w", ErrInvalidCredential, path, err)
	}
	return key, nil
}
