package platform

import (
	"bytes"
	"strings"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSetup_Platform_BasisPoints(t *testing.T) {
	t.Parallel()

	require.Equal(t, "90", BasisPoints(9000).Percent().String())
	require.Equal(t, "0.25", BasisPoints(25).Percent().String())
	require.Equal(t, "0", BasisPoints(0).Percent().String())
	require.Equal(t, "100", BasisPoints(MaxBasisPoints).Percent().String())

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		for v := 0; v <= MaxBasisPoints; v++ {
			bp := BasisPoints(v)
			got, err := BasisPointsFromPercent(bp.Percent())
			require.NoError(t, err)
			require.Equal(t, bp, got)
		}
	})

	t.Run("rejects fractional basis points", func(t *testing.T) {
		t.Parallel()

		_, err := BasisPointsFromPercent(decimal.RequireFromString("1.005"))
		require.ErrorContains(t, err, "more than two decimal places")
	})

	t.Run("rejects out of range", func(t *testing.T) {
		t.Parallel()

		_, err := BasisPointsFromPercent(decimal.NewFromInt(101))
		require.ErrorContains(t, err, "out of range")
		_, err = BasisPointsFromPercent(decimal.NewFromInt(-1))
		require.ErrorContains(t, err, "out of range")
	})
}

func TestSetup_Platform_Amount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1000", Amount(1_000_000_000).Units(USDCDecimals).String())
	require.Equal(t, "0.000001", Amount(1).Units(USDCDecimals).String())
	require.Equal(t, "1.5", Amount(1_500_000_000).Units(9).String())

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		for _, v := range []uint64{0, 1, 999_999, 1_000_000, 1_000_000_000_000, 1<<64 - 1} {
			for _, decimals := range []uint8{0, 6, 9} {
				got, err := AmountFromUnits(Amount(v).Units(decimals), decimals)
				require.NoError(t, err)
				require.Equal(t, Amount(v), got)
			}
		}
	})

	t.Run("rejects sub-unit precision", func(t *testing.T) {
		t.Parallel()

		_, err := AmountFromUnits(decimal.RequireFromString("0.0000001"), USDCDecimals)
		require.ErrorContains(t, err, "more than 6 decimal places")
	})

	t.Run("rejects negative", func(t *testing.T) {
		t.Parallel()

		_, err := AmountFromUnits(decimal.NewFromInt(-5), USDCDecimals)
		require.ErrorContains(t, err, "negative")
	})

	t.Run("rejects overflow", func(t *testing.T) {
		t.Parallel()

		_, err := AmountFromUnits(decimal.RequireFromString("18446744073709551616"), 0)
		require.ErrorContains(t, err, "overflows")
	})
}

func TestSetup_Platform_Params(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()

		p := DefaultParams()
		require.NoError(t, p.Validate())
		require.Equal(t, BasisPoints(9000), p.MaxLTV)
		require.Equal(t, Amount(1_000_000_000), p.MinLoanAmount)
		require.Equal(t, Amount(1_000_000_000_000), p.MaxLoanAmount)
		require.Equal(t, uint8(10), p.GracePeriodDays)
	})

	t.Run("rate above 100 percent", func(t *testing.T) {
		t.Parallel()

		p := DefaultParams()
		p.LateFeeRate = 10_001
		require.ErrorContains(t, p.Validate(), "late fee rate 10001 exceeds 10000 basis points")
	})

	t.Run("min above max", func(t *testing.T) {
		t.Parallel()

		p := DefaultParams()
		p.MinLoanAmount = p.MaxLoanAmount + 1
		require.ErrorContains(t, p.Validate(), "min loan amount")
	})

	t.Run("args in instruction order", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, []any{
			uint16(9000), uint64(1_000_000_000), uint64(1_000_000_000_000),
			uint16(100), uint16(25), uint16(800), uint16(1000), uint16(500), uint8(10),
		}, DefaultParams().Args())
	})
}

func TestSetup_Platform_Report(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Report(&buf, DefaultParams(), USDCDecimals))

	require.Equal(t, strings.Join([]string{
		"Max LTV: 90%",
		"Min Loan Amount: 1000 USDC",
		"Max Loan Amount: 1000000 USDC",
		"Origination Fee: 1%",
		"Servicing Fee: 0.25%",
		"Min Interest Rate: 8%",
		"Default Interest Rate: 10%",
		"Late Fee Rate: 5%",
		"Grace Period: 10 days",
	}, "\n")+"\n", buf.String())
}

func TestSetup_Platform_ReportConfig(t *testing.T) {
	t.Parallel()

	authority := solana.NewWallet().PublicKey()
	ata := solana.PublicKey{9}
	cfg := NewConfig(authority, authority, ata, DefaultParams())
	cfg.Paused = true

	var buf bytes.Buffer
	require.NoError(t, ReportConfig(&buf, cfg, USDCDecimals))
	out := buf.String()
	require.Contains(t, out, "Authority: "+authority.String())
	require.Contains(t, out, "Treasury Token Account: "+ata.String())
	require.Contains(t, out, "Paused: true")
	require.Contains(t, out, "Max LTV: 90%")
	require.Contains(t, out, "Grace Period: 10 days")
}

func TestSetup_Platform_Config_MarshalAccount(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(solana.PublicKey{1}, solana.PublicKey{2}, solana.PublicKey{3}, DefaultParams())
	data, err := cfg.MarshalAccount()
	require.NoError(t, err)
	require.Len(t, data, 8+32+32+2+8+8+2*5+1+32+1)
	require.Equal(t, []byte{160, 78, 128, 0, 248, 83, 230, 160}, data[:8])

	var got Config
	require.NoError(t, bin.NewBorshDecoder(data[8:]).Decode(&got))
	require.Equal(t, *cfg, got)
	require.Equal(t, DefaultParams(), got.Params())
}

func TestSetup_Platform_FindConfigAddress(t *testing.T) {
	t.Parallel()

	programID := solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")
	a, bumpA, err := FindConfigAddress(programID)
	require.NoError(t, err)
	b, bumpB, err := FindConfigAddress(programID)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, bumpA, bumpB)
	require.False(t, a.IsOnCurve())

	other, _, err := FindConfigAddress(solana.SystemProgramID)
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}
