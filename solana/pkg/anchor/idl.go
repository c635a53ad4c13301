package anchor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	bin "github.com/gagliardetto/binary"
)

// BuildHint is the command that regenerates the interface description.
const BuildHint = `anchor build`

// ErrIDLUnreadable is returned when the interface description cannot be
// read or parsed.
var ErrIDLUnreadable = errors.New("failed to load IDL")

// IDL is the subset of an Anchor interface description needed to encode
// instructions and decode accounts. Both the legacy (< 0.30) and current
// layouts are accepted.
type IDL struct {
	Address      string           `json:"address,omitempty"`
	Name         string           `json:"name,omitempty"`
	Metadata     *IDLMetadata     `json:"metadata,omitempty"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccountType `json:"accounts,omitempty"`
}

type IDLMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type IDLInstruction struct {
	Name          string       `json:"name"`
	Discriminator []byte       `json:"discriminator,omitempty"`
	Accounts      []IDLAccount `json:"accounts"`
	Args          []IDLField   `json:"args"`
}

// IDLAccount is an account slot of an instruction. Writable and Signer are
// resolved from either spelling at load time.
type IDLAccount struct {
	Name     string `json:"name"`
	Writable bool   `json:"writable,omitempty"`
	Signer   bool   `json:"signer,omitempty"`
	IsMut    bool   `json:"isMut,omitempty"`
	IsSigner bool   `json:"isSigner,omitempty"`
	Address  string `json:"address,omitempty"`
}

type IDLField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type IDLAccountType struct {
	Name          string `json:"name"`
	Discriminator []byte `json:"discriminator,omitempty"`
}

// UnmarshalJSON accepts discriminators written as JSON number arrays, which
// encoding/json would otherwise expect as base64 strings for []byte.
func (ix *IDLInstruction) UnmarshalJSON(data []byte) error {
	type plain IDLInstruction
	aux := struct {
		*plain
		Discriminator []int `json:"discriminator,omitempty"`
	}{plain: (*plain)(ix)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	disc, err := bytesFromInts(aux.Discriminator)
	if err != nil {
		return fmt.Errorf("instruction %q: %w", ix.Name, err)
	}
	ix.Discriminator = disc
	return nil
}

func (a *IDLAccountType) UnmarshalJSON(data []byte) error {
	type plain IDLAccountType
	aux := struct {
		*plain
		Discriminator []int `json:"discriminator,omitempty"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	disc, err := bytesFromInts(aux.Discriminator)
	if err != nil {
		return fmt.Errorf("account %q: %w", a.Name, err)
	}
	a.Discriminator = disc
	return nil
}

func bytesFromInts(in []int) ([]byte, error) {
	if len(in) == 0 {
		return nil, nil
	}
	if len(in) != 8 {
		return nil, fmt.Errorf("discriminator must be 8 bytes, got %d", len(in))
	}
	out := make([]byte, len(in))
	for i, v := range in {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("discriminator byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// LoadIDL reads and parses the interface description at path.
func LoadIDL(path string) (*IDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIDLUnreadable, err)
	}
	return ParseIDL(data)
}

// ParseIDL parses an interface description document.
func ParseIDL(data []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(data, &idl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIDLUnreadable, err)
	}
	if len(idl.Instructions) == 0 {
		return nil, fmt.Errorf("%w: no instructions defined", ErrIDLUnreadable)
	}
	for i := range idl.Instructions {
		ix := &idl.Instructions[i]
		if len(ix.Discriminator) == 0 {
			ix.Discriminator = bin.SighashInstruction(ix.Name)
		}
		for j := range ix.Accounts {
			acc := &ix.Accounts[j]
			acc.Writable = acc.Writable || acc.IsMut
			acc.Signer = acc.Signer || acc.IsSigner
		}
	}
	for i := range idl.Accounts {
		acc := &idl.Accounts[i]
		if len(acc.Discriminator) == 0 {
			acc.Discriminator = bin.SighashAccount(acc.Name)
		}
	}
	return &idl, nil
}

// ProgramName returns the program name from either layout.
func (idl *IDL) ProgramName() string {
	if idl.Metadata != nil && idl.Metadata.Name != "" {
		return idl.Metadata.Name
	}
	return idl.Name
}

// Instruction looks up an instruction by name. Names are compared in
// snake_case so "treasuryTokenAccount" and "treasury_token_account" match.
func (idl *IDL) Instruction(name string) (*IDLInstruction, bool) {
	key := normalize(name)
	for i := range idl.Instructions {
		if normalize(idl.Instructions[i].Name) == key {
			return &idl.Instructions[i], true
		}
	}
	return nil, false
}

// Account looks up an account type by name.
func (idl *IDL) Account(name string) (*IDLAccountType, bool) {
	key := normalize(name)
	for i := range idl.Accounts {
		if normalize(idl.Accounts[i].Name) == key {
			return &idl.Accounts[i], true
		}
	}
	return nil, false
}

func normalize(name string) string {
	return bin.ToSnakeForSighash(name)
}
