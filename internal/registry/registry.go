// Package registry implements the contract registry: a vt_symbol-keyed
// in-memory store of contract metadata that the engine depends on through
// an interface rather than a runtime-patched attribute.
package registry

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// ContractData is the subset of exchange contract metadata this core needs.
type ContractData struct {
	VtSymbol         string
	Symbol           string
	Exchange         string
	Product          string
	Size             float64
	PriceTick        float64
	MinVolume        int
	OptionStrike     float64
	OptionUnderlying string
	OptionType       string
	OptionExpiry     string
	GatewayName      string
}

// Factory builds a ContractData from a bare vt_symbol. DefaultFactory (used
// when New is given nil) parses only the symbol/exchange split; a richer
// implementation can be injected for callers with access to instrument
// master data.
type Factory func(vtSymbol string) (ContractData, bool)

// DefaultFactory splits "SYMBOL.EXCHANGE" and leaves option fields zero.
// It reports false for any vt_symbol without exactly one '.'.
func DefaultFactory(vtSymbol string) (ContractData, bool) {
	parts := strings.Split(vtSymbol, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ContractData{}, false
	}
	return ContractData{
		VtSymbol: vtSymbol,
		Symbol:   parts[0],
		Exchange: parts[1],
	}, true
}

// Registry is the interface the engine depends on for contract lookup — the
// Go counterpart of the original's inject_into_engine monkey-patch, now a
// constructor-injected dependency instead of a runtime attribute assignment.
type Registry interface {
	Register(contract ContractData)
	Get(vtSymbol string) (ContractData, bool)
	GetAll() []ContractData
	RegisterMany(vtSymbols []string) int
}

// MapRegistry is the default in-memory Registry implementation, keyed by
// vt_symbol.
type MapRegistry struct {
	contracts map[string]ContractData
	factory   Factory
}

// New constructs an empty MapRegistry. factory is used by RegisterMany; pass
// nil to use DefaultFactory.
func New(factory Factory) *MapRegistry {
	if factory == nil {
		factory = DefaultFactory
	}
	return &MapRegistry{contracts: make(map[string]ContractData), factory: factory}
}

// Register stores contract keyed by its VtSymbol, overwriting any existing
// entry for the same key.
func (r *MapRegistry) Register(contract ContractData) {
	r.contracts[contract.VtSymbol] = contract
}

// Get looks up a contract by vt_symbol.
func (r *MapRegistry) Get(vtSymbol string) (ContractData, bool) {
	c, ok := r.contracts[vtSymbol]
	return c, ok
}

// GetAll returns every registered contract, in no particular order.
func (r *MapRegistry) GetAll() []ContractData {
	all := make([]ContractData, 0, len(r.contracts))
	for _, c := range r.contracts {
		all = append(all, c)
	}
	return all
}

// RegisterMany builds and registers a contract for each vt_symbol via the
// registry's factory, skipping (and logging) any that fail to build. It
// returns the number successfully registered.
func (r *MapRegistry) RegisterMany(vtSymbols []string) int {
	count := 0
	for _, vtSymbol := range vtSymbols {
		contract, ok := r.factory(vtSymbol)
		if !ok {
			log.Warn().Str("vt_symbol", vtSymbol).Msg("无法构建合约，跳过")
			continue
		}
		r.Register(contract)
		count++
	}
	return count
}
