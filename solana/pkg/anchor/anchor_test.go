package anchor

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

var (
	initializeDiscriminator     = []byte{175, 175, 109, 31, 13, 152, 155, 237}
	platformConfigDiscriminator = []byte{160, 78, 128, 0, 248, 83, 230, 160}
)

func loadFixture(t *testing.T, name string) *IDL {
	t.Helper()
	idl, err := LoadIDL(filepath.Join("testdata", name))
	require.NoError(t, err)
	return idl
}

func TestSetup_Anchor_LoadIDL(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadIDL(filepath.Join(t.TempDir(), "loan_core.json"))
		require.ErrorIs(t, err, ErrIDLUnreadable)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "loan_core.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := LoadIDL(path)
		require.ErrorIs(t, err, ErrIDLUnreadable)
	})

	t.Run("no instructions", func(t *testing.T) {
		t.Parallel()

		_, err := ParseIDL([]byte(`{"name":"empty","instructions":[]}`))
		require.ErrorIs(t, err, ErrIDLUnreadable)
	})

	t.Run("bad discriminator length", func(t *testing.T) {
		t.Parallel()

		_, err := ParseIDL([]byte(`{"instructions":[{"name":"x","discriminator":[1,2],"accounts":[],"args":[]}]}`))
		require.ErrorIs(t, err, ErrIDLUnreadable)
	})

	for _, fixture := range []string{"loan_core.json", "loan_core_legacy.json"} {
		t.Run(fixture, func(t *testing.T) {
			t.Parallel()

			idl := loadFixture(t, fixture)
			require.Equal(t, "loan_core", idl.ProgramName())

			ix, ok := idl.Instruction("initialize")
			require.True(t, ok)
			require.Equal(t, initializeDiscriminator, ix.Discriminator)
			require.Len(t, ix.Accounts, 5)
			require.True(t, ix.Accounts[0].Writable)
			require.True(t, ix.Accounts[0].Signer)
			require.False(t, ix.Accounts[1].Writable)
			require.True(t, ix.Accounts[3].Writable)
			require.Len(t, ix.Args, 9)

			acc, ok := idl.Account("PlatformConfig")
			require.True(t, ok)
			require.Equal(t, platformConfigDiscriminator, acc.Discriminator)
		})
	}

	t.Run("lookup is case-style insensitive", func(t *testing.T) {
		t.Parallel()

		idl := loadFixture(t, "loan_core_legacy.json")
		_, ok := idl.Instruction("emergency_pause")
		require.True(t, ok)
		_, ok = idl.Instruction("emergencyPause")
		require.True(t, ok)
		_, ok = idl.Instruction("liquidate")
		require.False(t, ok)
	})
}

func TestSetup_Anchor_Bind(t *testing.T) {
	t.Parallel()

	idl := loadFixture(t, "loan_core.json")
	signer := solana.NewWallet().PrivateKey

	_, err := Bind(nil, solana.PublicKey{1}, signer)
	require.Error(t, err)
	_, err = Bind(idl, solana.PublicKey{}, signer)
	require.ErrorContains(t, err, "program id is required")
	_, err = Bind(idl, solana.PublicKey{1}, nil)
	require.ErrorContains(t, err, "signer is required")

	program, err := Bind(idl, solana.PublicKey{1}, signer)
	require.NoError(t, err)
	require.Equal(t, solana.PublicKey{1}, program.ID())
	require.Equal(t, signer.PublicKey(), program.Signer().PublicKey())
}

func initializeArgs() []any {
	return []any{
		uint16(9000), uint64(1_000_000_000), uint64(1_000_000_000_000),
		uint16(100), uint16(25), uint16(800), uint16(1000), uint16(500), uint8(10),
	}
}

func TestSetup_Anchor_Program_Instruction(t *testing.T) {
	t.Parallel()

	programID := solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")
	authority := solana.NewWallet().PrivateKey
	treasuryATA := solana.PublicKey{3}
	configPDA := solana.PublicKey{4}

	for _, fixture := range []string{"loan_core.json", "loan_core_legacy.json"} {
		t.Run(fixture, func(t *testing.T) {
			t.Parallel()

			program, err := Bind(loadFixture(t, fixture), programID, authority)
			require.NoError(t, err)

			ix, err := program.Instruction("initialize", map[string]solana.PublicKey{
				"authority":            authority.PublicKey(),
				"treasury":             authority.PublicKey(),
				"treasuryTokenAccount": treasuryATA,
				"platform_config":      configPDA,
			}, initializeArgs()...)
			require.NoError(t, err)
			require.Equal(t, programID, ix.ProgramID())

			metas := ix.Accounts()
			require.Len(t, metas, 5)
			require.Equal(t, authority.PublicKey(), metas[0].PublicKey)
			require.True(t, metas[0].IsSigner)
			require.True(t, metas[0].IsWritable)
			require.Equal(t, treasuryATA, metas[2].PublicKey)
			require.Equal(t, configPDA, metas[3].PublicKey)
			require.True(t, metas[3].IsWritable)
			require.Equal(t, solana.SystemProgramID, metas[4].PublicKey)

			data, err := ix.Data()
			require.NoError(t, err)
			require.Len(t, data, 8+2+8+8+2*5+1)
			require.Equal(t, initializeDiscriminator, data[:8])
			require.Equal(t, uint16(9000), binary.LittleEndian.Uint16(data[8:10]))
			require.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(data[10:18]))
			require.Equal(t, uint64(1_000_000_000_000), binary.LittleEndian.Uint64(data[18:26]))
			require.Equal(t, uint16(25), binary.LittleEndian.Uint16(data[28:30]))
			require.Equal(t, byte(10), data[len(data)-1])
		})
	}

	t.Run("missing account", func(t *testing.T) {
		t.Parallel()

		program, err := Bind(loadFixture(t, "loan_core.json"), programID, authority)
		require.NoError(t, err)

		_, err = program.Instruction("initialize", map[string]solana.PublicKey{
			"authority": authority.PublicKey(),
		}, initializeArgs()...)
		require.ErrorContains(t, err, `account "treasury" not supplied`)
	})

	t.Run("wrong arg count", func(t *testing.T) {
		t.Parallel()

		program, err := Bind(loadFixture(t, "loan_core.json"), programID, authority)
		require.NoError(t, err)

		_, err = program.Instruction("initialize", map[string]solana.PublicKey{
			"authority":              authority.PublicKey(),
			"treasury":               authority.PublicKey(),
			"treasury_token_account": treasuryATA,
			"platform_config":        configPDA,
		}, uint16(1))
		require.ErrorContains(t, err, "expected 9 args, got 1")
	})

	t.Run("wrong arg type", func(t *testing.T) {
		t.Parallel()

		program, err := Bind(loadFixture(t, "loan_core.json"), programID, authority)
		require.NoError(t, err)

		args := initializeArgs()
		args[0] = 9000
		_, err = program.Instruction("initialize", map[string]solana.PublicKey{
			"authority":              authority.PublicKey(),
			"treasury":               authority.PublicKey(),
			"treasury_token_account": treasuryATA,
			"platform_config":        configPDA,
		}, args...)
		require.ErrorContains(t, err, "IDL type u16 does not accept int")
	})

	t.Run("unknown instruction", func(t *testing.T) {
		t.Parallel()

		program, err := Bind(loadFixture(t, "loan_core.json"), programID, authority)
		require.NoError(t, err)

		_, err = program.Instruction("liquidate", nil)
		require.ErrorContains(t, err, `instruction "liquidate" not found`)
	})
}

type testRecord struct {
	Authority solana.PublicKey
	MaxLTV    uint16
	Paused    bool
}

func TestSetup_Anchor_Program_DecodeAccount(t *testing.T) {
	t.Parallel()

	program, err := Bind(loadFixture(t, "loan_core.json"), solana.PublicKey{1}, solana.NewWallet().PrivateKey)
	require.NoError(t, err)

	authority := solana.PublicKey{8, 8, 8}
	var buf bytes.Buffer
	buf.Write(platformConfigDiscriminator)
	buf.Write(authority[:])
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(9000)))
	buf.WriteByte(1)

	t.Run("decodes fields", func(t *testing.T) {
		t.Parallel()

		var rec testRecord
		require.NoError(t, program.DecodeAccount("PlatformConfig", buf.Bytes(), &rec))
		require.Equal(t, authority, rec.Authority)
		require.Equal(t, uint16(9000), rec.MaxLTV)
		require.True(t, rec.Paused)
	})

	t.Run("rejects foreign discriminator", func(t *testing.T) {
		t.Parallel()

		data := append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, buf.Bytes()[8:]...)
		var rec testRecord
		require.ErrorIs(t, program.DecodeAccount("PlatformConfig", data, &rec), ErrAccountDiscriminator)
	})

	t.Run("rejects short data", func(t *testing.T) {
		t.Parallel()

		var rec testRecord
		require.ErrorIs(t, program.DecodeAccount("PlatformConfig", []byte{1, 2}, &rec), ErrAccountDiscriminator)
	})

	t.Run("unknown account type", func(t *testing.T) {
		t.Parallel()

		var rec testRecord
		require.ErrorContains(t, program.DecodeAccount("Loan", buf.Bytes(), &rec), `account "Loan" not found`)
	})
}

func TestSetup_Anchor_Program_FindAddress(t *testing.T) {
	t.Parallel()

	programID := solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")
	program, err := Bind(loadFixture(t, "loan_core.json"), programID, solana.NewWallet().PrivateKey)
	require.NoError(t, err)

	got, bump, err := program.FindAddress([]byte("platform-config"))
	require.NoError(t, err)

	want, wantBump, err := solana.FindProgramAddress([][]byte{[]byte("platform-config")}, programID)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, wantBump, bump)
}
