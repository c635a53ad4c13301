package platform

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// ConfigSeed is the PDA seed of the platform configuration account.
	ConfigSeed = "platform-config"
	// ConfigAccount is the account type name in the program IDL.
	ConfigAccount = "PlatformConfig"
	// InitializeInstruction creates the configuration account.
	InitializeInstruction = "initialize"
)

// Config is the on-chain PlatformConfig account, without its discriminator.
// Field order is the borsh layout.
type Config struct {
	Authority            solana.PublicKey
	Treasury             solana.PublicKey
	MaxLTV               BasisPoints
	MinLoanAmount        Amount
	MaxLoanAmount        Amount
	OriginationFee       BasisPoints
	ServicingFee         BasisPoints
	MinInterestRate      BasisPoints
	DefaultInterestRate  BasisPoints
	LateFeeRate          BasisPoints
	GracePeriodDays      uint8
	TreasuryTokenAccount solana.PublicKey
	Paused               bool
}

func (c *Config) Params() Params {
	return Params{
		MaxLTV:              c.MaxLTV,
		MinLoanAmount:       c.MinLoanAmount,
		MaxLoanAmount:       c.MaxLoanAmount,
		OriginationFee:      c.OriginationFee,
		ServicingFee:        c.ServicingFee,
		MinInterestRate:     c.MinInterestRate,
		DefaultInterestRate: c.DefaultInterestRate,
		LateFeeRate:         c.LateFeeRate,
		GracePeriodDays:     c.GracePeriodDays,
	}
}

// NewConfig returns the record the program writes for an initialize call.
func NewConfig(authority, treasury, treasuryTokenAccount solana.PublicKey, p Params) *Config {
	return &Config{
		Authority:            authority,
		Treasury:             treasury,
		MaxLTV:               p.MaxLTV,
		MinLoanAmount:        p.MinLoanAmount,
		MaxLoanAmount:        p.MaxLoanAmount,
		OriginationFee:       p.OriginationFee,
		ServicingFee:         p.ServicingFee,
		MinInterestRate:      p.MinInterestRate,
		DefaultInterestRate:  p.DefaultInterestRate,
		LateFeeRate:          p.LateFeeRate,
		GracePeriodDays:      p.GracePeriodDays,
		TreasuryTokenAccount: treasuryTokenAccount,
	}
}

// MarshalAccount encodes the record as account data, discriminator first.
func (c *Config) MarshalAccount() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(bin.SighashAccount(ConfigAccount))
	if err := bin.NewBorshEncoder(buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ConfigAccount, err)
	}
	return buf.Bytes(), nil
}

// FindConfigAddress derives the configuration account of a program.
func FindConfigAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(ConfigSeed)}, programID)
}

// Report prints the parameter set in human units, one line per field.
func Report(w io.Writer, p Params, decimals uint8) error {
	var sb strings.Builder
	pct := func(label string, v BasisPoints) {
		fmt.Fprintf(&sb, "%s: %s%%\n", label, v.Percent())
	}
	usdc := func(label string, v Amount) {
		fmt.Fprintf(&sb, "%s: %s USDC\n", label, v.Units(decimals))
	}
	pct("Max LTV", p.MaxLTV)
	usdc("Min Loan Amount", p.MinLoanAmount)
	usdc("Max Loan Amount", p.MaxLoanAmount)
	pct("Origination Fee", p.OriginationFee)
	pct("Servicing Fee", p.ServicingFee)
	pct("Min Interest Rate", p.MinInterestRate)
	pct("Default Interest Rate", p.DefaultInterestRate)
	pct("Late Fee Rate", p.LateFeeRate)
	fmt.Fprintf(&sb, "Grace Period: %d days\n", p.GracePeriodDays)
	_, err := io.WriteString(w, sb.String())
	return err
}

// ReportConfig prints an existing record: its accounts and pause state
// followed by the parameter set.
func ReportConfig(w io.Writer, c *Config, decimals uint8) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Authority: %s\n", c.Authority)
	fmt.Fprintf(&sb, "Treasury: %s\n", c.Treasury)
	fmt.Fprintf(&sb, "Treasury Token Account: %s\n", c.TreasuryTokenAccount)
	fmt.Fprintf(&sb, "Paused: %t\n", c.Paused)
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	return Report(w, c.Params(), decimals)
}
