// Package discovery finds option contracts associated with a set of
// underlying futures by matching symbol prefixes against recorded
// one-minute bar data.
package discovery

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// FutureOptionMap maps a stock-index future's product code to its option
// product code (config.py behind this table was not retrieved into the
// pack; these three entries are the ones spec §6 names explicitly).
var FutureOptionMap = map[string]string{
	"IF": "IO",
	"IM": "MO",
	"IH": "HO",
}

// ExchangeMap resolves a product code to the exchange it trades on
// (config.py's EXCHANGE_MAP was not retrieved into the pack; populated with
// the product codes spec §6 and this package otherwise reference).
var ExchangeMap = map[string]string{
	"IF": "CFFEX",
	"IH": "CFFEX",
	"IM": "CFFEX",
	"IO": "CFFEX",
	"HO": "CFFEX",
	"MO": "CFFEX",
	"T":  "CFFEX",
	"TF": "CFFEX",
	"TS": "CFFEX",
	"rb": "SHFE",
	"cu": "SHFE",
	"au": "SHFE",
	"m":  "DCE",
	"i":  "DCE",
	"SR": "CZCE",
	"CF": "CZCE",
}

// ExchangeResolver resolves a product code to its exchange via ExchangeMap.
// It is the Go counterpart of the original's ExchangeResolver.resolve
// classmethod.
type ExchangeResolver struct{}

// Resolve returns the exchange code registered for productCode in
// ExchangeMap, and false if the product code is unknown.
func (ExchangeResolver) Resolve(productCode string) (string, bool) {
	exchange, ok := ExchangeMap[productCode]
	return exchange, ok
}

// SymbolGenerator builds near-term vt_symbols for a product code using an
// ExchangeResolver for the exchange suffix.
type SymbolGenerator struct {
	Resolver ExchangeResolver
}

// NearTermSymbols returns the vt_symbols "{code}{YYMM}.{exchange}" for the
// monthCodes given (e.g. "2501", "2502", "2503"), in the order supplied. A
// product code unknown to the resolver yields no symbols.
func (g SymbolGenerator) NearTermSymbols(productCode string, monthCodes []string) []string {
	exchange, ok := g.Resolver.Resolve(productCode)
	if !ok {
		return nil
	}
	symbols := make([]string, 0, len(monthCodes))
	for _, month := range monthCodes {
		symbols = append(symbols, productCode+month+"."+exchange)
	}
	return symbols
}

// BarOverview is one row of the backing store's bar-overview table —
// the collaborator OptionDiscoveryService reads from, never writes to.
type BarOverview struct {
	Symbol   string
	Exchange string
	Interval string
}

const minuteInterval = "1m"

// Store is the read-only backing store collaborator. A failure here is
// reported as an error; the caller turns it into an empty result rather
// than propagating it, per spec §7's ExternalUnavailable policy.
type Store interface {
	GetBarOverview() ([]BarOverview, error)
}

var symbolPrefixPattern = regexp.MustCompile(`^([a-zA-Z]+)(\d+)`)

// Service discovers option vt_symbols associated with a set of underlying
// future vt_symbols.
type Service struct {
	store Store
}

// New constructs a Service backed by store.
func New(store Store) *Service {
	return &Service{store: store}
}

// Discover returns the vt_symbols of options with recorded one-minute bars
// matching any of underlyingVtSymbols. A backing-store failure is logged
// and yields an empty result rather than propagating.
func (s *Service) Discover(underlyingVtSymbols []string) []string {
	if len(underlyingVtSymbols) == 0 {
		return nil
	}

	targets := buildTargetMap(underlyingVtSymbols)
	if len(targets) == 0 {
		return nil
	}

	overviews, err := s.store.GetBarOverview()
	if err != nil {
		log.Error().Err(err).Msg("查询数据库失败")
		return nil
	}

	return matchOptions(overviews, targets)
}

type target struct {
	exchange string
	prefixes []string
}

// buildTargetMap parses each future vt_symbol into its product code and
// contract suffix, and builds the set of option-symbol prefixes it could
// match: its own prefix (commodity options share the future's prefix) plus,
// when FutureOptionMap has an entry, the mapped option product's prefix.
func buildTargetMap(underlyingVtSymbols []string) map[string]target {
	targets := make(map[string]target)

	for _, vtSymbol := range underlyingVtSymbols {
		parts := strings.SplitN(vtSymbol, ".", 2)
		if len(parts) != 2 {
			continue
		}
		symbol, exchange := parts[0], parts[1]

		match := symbolPrefixPattern.FindStringSubmatch(symbol)
		if match == nil {
			targets[symbol] = target{exchange: exchange, prefixes: []string{symbol}}
			continue
		}

		productCode := strings.ToUpper(match[1])
		contractSuffix := match[2]

		prefixes := []string{symbol}
		if optionProduct, ok := FutureOptionMap[productCode]; ok {
			prefixes = append(prefixes, optionProduct+contractSuffix)
		}
		targets[symbol] = target{exchange: exchange, prefixes: prefixes}
	}

	return targets
}

// matchOptions keeps only one-minute bars whose exchange matches a target
// and whose symbol starts with one of the target's prefixes with a non-empty
// remainder containing "C" or "P" — excluding the future contract itself.
func matchOptions(overviews []BarOverview, targets map[string]target) []string {
	var matched []string

	for _, overview := range overviews {
		if overview.Interval != minuteInterval {
			continue
		}

		for _, t := range targets {
			if overview.Exchange != t.exchange {
				continue
			}

			matchedPrefix := ""
			for _, prefix := range t.prefixes {
				if strings.HasPrefix(overview.Symbol, prefix) && len(overview.Symbol) > len(prefix) {
					matchedPrefix = prefix
					break
				}
			}
			if matchedPrefix == "" {
				continue
			}

			suffix := overview.Symbol[len(matchedPrefix):]
			if strings.Contains(suffix, "C") || strings.Contains(suffix, "P") {
				matched = append(matched, overview.Symbol+"."+overview.Exchange)
			}
		}
	}

	return matched
}
