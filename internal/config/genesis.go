package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Mohsinsiddi/qbx/internal/crowdsale"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// MaxDecimals keeps 10^decimals inside 256 bits.
const MaxDecimals = 77

// DefaultGenesis reproduces the reference crowdsale: six accounts, the QBX
// token and a 40/30/20/10/0 purchase split.
func DefaultGenesis() *Genesis {
	p := crowdsale.DefaultParams()
	return &Genesis{
		Token: GenesisToken{
			Name:     token.Name,
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
		},
		Accounts:         len(p.Split) + 1,
		Rate:             crowdsale.DefaultRate,
		PreferentialRate: crowdsale.DefaultPreferentialRate,
		Goal:             crowdsale.DefaultGoal,
		Cap:              crowdsale.DefaultCap,
		Split:            append([]uint64(nil), p.Split...),
	}
}

// LoadGenesis reads a YAML genesis file. Keys it does not know are an error;
// keys it omits keep their default.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g := DefaultGenesis()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(g); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// SaveGenesis writes g as YAML.
func SaveGenesis(path string, g *Genesis) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the parts the crowdsale itself does not.
func (g *Genesis) Validate() error {
	if g.Token.Name == "" || g.Token.Symbol == "" {
		return errors.New("token name and symbol are required")
	}
	if g.Token.Decimals > MaxDecimals {
		return fmt.Errorf("decimals %d exceeds %d", g.Token.Decimals, MaxDecimals)
	}
	if g.Accounts < len(g.Split)+1 {
		return fmt.Errorf("%d accounts cannot cover an owner and %d buyers", g.Accounts, len(g.Split))
	}
	return nil
}

// Metadata returns the token metadata.
func (g *Genesis) Metadata() token.Metadata {
	return token.Metadata{Name: g.Token.Name, Symbol: g.Token.Symbol, Decimals: g.Token.Decimals}
}

// Params converts g into crowdsale parameters. resolve maps the entries of
// Preferential (names or addresses) to addresses.
func (g *Genesis) Params(resolve func(string) (common.Address, error)) (crowdsale.Params, error) {
	p := crowdsale.Params{
		Rate:             g.Rate,
		PreferentialRate: g.PreferentialRate,
		Goal:             crowdsale.ToAtto(g.Goal),
		Cap:              crowdsale.ToAtto(g.Cap),
		Split:            g.Split,
		Decimals:         g.Token.Decimals,
	}
	for _, ref := range g.Preferential {
		a, err := resolve(ref)
		if err != nil {
			return crowdsale.Params{}, fmt.Errorf("preferential buyer %q: %w", ref, err)
		}
		p.Preferential = append(p.Preferential, a)
	}
	return p, nil
}
