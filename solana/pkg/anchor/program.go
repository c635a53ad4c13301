package anchor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrAccountDiscriminator is returned when account data does not start with
// the expected discriminator.
var ErrAccountDiscriminator = errors.New("account discriminator mismatch")

// Program binds an IDL to a deployed program id and the wallet that signs
// for it.
type Program struct {
	idl    *IDL
	id     solana.PublicKey
	signer solana.PrivateKey
}

// Bind returns a callable handle for the program.
func Bind(idl *IDL, programID solana.PublicKey, signer solana.PrivateKey) (*Program, error) {
	if idl == nil {
		return nil, errors.New("idl is required")
	}
	if programID.IsZero() {
		return nil, errors.New("program id is required")
	}
	if len(signer) == 0 {
		return nil, errors.New("signer is required")
	}
	return &Program{idl: idl, id: programID, signer: signer}, nil
}

func (p *Program) ID() solana.PublicKey { return p.id }

func (p *Program) Signer() solana.PrivateKey { return p.signer }

func (p *Program) IDL() *IDL { return p.idl }

// FindAddress derives a program address from seeds.
func (p *Program) FindAddress(seeds ...[]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(seeds, p.id)
}

// Instruction encodes a call to the named instruction. Accounts are keyed by
// IDL name in either camelCase or snake_case; args are given in IDL order.
func (p *Program) Instruction(name string, accounts map[string]solana.PublicKey, args ...any) (solana.Instruction, error) {
	ix, ok := p.idl.Instruction(name)
	if !ok {
		return nil, fmt.Errorf("instruction %q not found in IDL", name)
	}

	supplied := make(map[string]solana.PublicKey, len(accounts))
	for k, v := range accounts {
		supplied[normalize(k)] = v
	}

	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, acc := range ix.Accounts {
		key, ok := supplied[normalize(acc.Name)]
		if !ok {
			key, ok = defaultAddress(acc)
		}
		if !ok {
			return nil, fmt.Errorf("instruction %q: account %q not supplied", ix.Name, acc.Name)
		}
		metas = append(metas, solana.NewAccountMeta(key, acc.Writable, acc.Signer))
	}

	if len(args) != len(ix.Args) {
		return nil, fmt.Errorf("instruction %q: expected %d args, got %d", ix.Name, len(ix.Args), len(args))
	}

	buf := new(bytes.Buffer)
	buf.Write(ix.Discriminator)
	enc := bin.NewBorshEncoder(buf)
	for i, field := range ix.Args {
		if err := encodeArg(enc, field, args[i]); err != nil {
			return nil, fmt.Errorf("instruction %q: arg %q: %w", ix.Name, field.Name, err)
		}
	}

	return solana.NewInstruction(p.id, metas, buf.Bytes()), nil
}

// DecodeAccount checks the discriminator of the named account type and
// borsh-decodes the remaining bytes into v.
func (p *Program) DecodeAccount(name string, data []byte, v any) error {
	acc, ok := p.idl.Account(name)
	if !ok {
		return fmt.Errorf("account %q not found in IDL", name)
	}
	if len(data) < 8 || !bytes.Equal(data[:8], acc.Discriminator) {
		return fmt.Errorf("%w: %s", ErrAccountDiscriminator, acc.Name)
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", acc.Name, err)
	}
	return nil
}

func defaultAddress(acc IDLAccount) (solana.PublicKey, bool) {
	if acc.Address != "" {
		key, err := solana.PublicKeyFromBase58(acc.Address)
		return key, err == nil
	}
	switch normalize(acc.Name) {
	case "system_program":
		return solana.SystemProgramID, true
	case "token_program":
		return solana.TokenProgramID, true
	case "associated_token_program":
		return solana.SPLAssociatedTokenAccountProgramID, true
	case "rent":
		return solana.SysVarRentPubkey, true
	}
	return solana.PublicKey{}, false
}

func encodeArg(enc *bin.Encoder, field IDLField, v any) error {
	var typ string
	if err := json.Unmarshal(field.Type, &typ); err != nil {
		return fmt.Errorf("unsupported type %s", string(field.Type))
	}
	mismatch := func() error {
		return fmt.Errorf("IDL type %s does not accept %T", typ, v)
	}
	switch typ {
	case "u8":
		n, ok := v.(uint8)
		if !ok {
			return mismatch()
		}
		return enc.WriteUint8(n)
	case "u16":
		n, ok := v.(uint16)
		if !ok {
			return mismatch()
		}
		return enc.WriteUint16(n, bin.LE)
	case "u32":
		n, ok := v.(uint32)
		if !ok {
			return mismatch()
		}
		return enc.WriteUint32(n, bin.LE)
	case "u64":
		n, ok := v.(uint64)
		if !ok {
			return mismatch()
		}
		return enc.WriteUint64(n, bin.LE)
	case "i64":
		n, ok := v.(int64)
		if !ok {
			return mismatch()
		}
		return enc.WriteInt64(n, bin.LE)
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		return enc.WriteBool(b)
	case "pubkey", "publicKey":
		key, ok := v.(solana.PublicKey)
		if !ok {
			return mismatch()
		}
		return enc.WriteBytes(key[:], false)
	case "string":
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		return enc.WriteString(s)
	}
	return fmt.Errorf("unsupported type %s", typ)
}
