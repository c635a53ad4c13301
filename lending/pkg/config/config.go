package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"

	"github.com/credebt/setup/solana/pkg/rpc"
	"github.com/credebt/setup/solana/pkg/wallet"
)

const (
	EnvRPCURL    = "SOLANA_RPC_URL"
	EnvProgramID = "LOAN_CORE_PROGRAM_ID"
	EnvUSDCMint  = "USDC_MINT"
	EnvWallet    = "SOLANA_WALLET"
)

var (
	// ErrMissingConfig is returned when a required setting is absent.
	ErrMissingConfig = errors.New("missing required configuration")
	// ErrInvalidConfig is returned when a setting is present but malformed.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// LookupFunc reads a process environment variable.
type LookupFunc func(key string) (string, bool)

// DefaultAPIEnvFile is the backend env file, relative to the repository root.
func DefaultAPIEnvFile() string { return filepath.Join("api", ".env") }

// DefaultAppEnvFile is the frontend env file, relative to the repository root.
func DefaultAppEnvFile() string { return filepath.Join("app", ".env") }

// DefaultIDLPath is where anchor build writes the loan-core IDL.
func DefaultIDLPath() string { return filepath.Join("target", "idl", "loan_core.json") }

// Bootstrap holds the settings of the platform bootstrap flow.
type Bootstrap struct {
	RPCURL     string
	ProgramID  string
	USDCMint   string
	WalletPath string
	IDLPath    string
	EnvFile    string
}

// LoadBootstrap reads envFile and overlays the process environment. A
// missing envFile is not an error; process variables win over file values.
func LoadBootstrap(envFile string, lookup LookupFunc) (*Bootstrap, error) {
	file, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	get := func(key string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return file[key]
	}

	cfg := &Bootstrap{
		RPCURL:     get(EnvRPCURL),
		ProgramID:  get(EnvProgramID),
		USDCMint:   get(EnvUSDCMint),
		WalletPath: get(EnvWallet),
		IDLPath:    DefaultIDLPath(),
		EnvFile:    envFile,
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = rpc.DefaultRPCURL
	}
	if cfg.WalletPath == "" {
		cfg.WalletPath = wallet.DefaultPath()
	}
	return cfg, nil
}

// RequireIdentities parses the program and mint identities, failing with
// ErrMissingConfig naming the first absent variable.
func (c *Bootstrap) RequireIdentities() (programID, mint solana.PublicKey, err error) {
	programID, err = parseKey(EnvProgramID, c.ProgramID, c.EnvFile)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	mint, err = parseKey(EnvUSDCMint, c.USDCMint, c.EnvFile)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return programID, mint, nil
}

func parseKey(name, value, envFile string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: %s is not defined in %s", ErrMissingConfig, name, envFile)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, name, value, err)
	}
	return key, nil
}

// EnvTarget is a KEY=value line to rewrite in an env file.
type EnvTarget struct {
	Path string
	Key  string
}

// Provision holds the settings of the token provisioning flow.
type Provision struct {
	RPCURL     string
	WalletPath string
	EnvTargets []EnvTarget
}

// LoadProvision returns the provisioning settings from the process
// environment. No env file is read: this flow writes those files.
func LoadProvision(lookup LookupFunc) *Provision {
	cfg := &Provision{
		RPCURL:     rpc.DefaultRPCURL,
		WalletPath: wallet.DefaultPath(),
		EnvTargets: DefaultEnvTargets(),
	}
	if v, ok := lookup(EnvRPCURL); ok && v != "" {
		cfg.RPCURL = v
	}
	if v, ok := lookup(EnvWallet); ok && v != "" {
		cfg.WalletPath = v
	}
	return cfg
}

// DefaultEnvTargets are the files that receive a new mint address.
func DefaultEnvTargets() []EnvTarget {
	return []EnvTarget{
		{Path: DefaultAPIEnvFile(), Key: "USDC_MINT"},
		{Path: DefaultAppEnvFile(), Key: "REACT_APP_USDC_MINT"},
	}
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return env, nil
}
