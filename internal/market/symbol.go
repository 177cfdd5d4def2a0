package market

import "strings"

// Symbol is a parsed instrument pair.
type Symbol struct {
	Base  string
	Quote string
}

// Exchange renders the concatenated form Binance expects (BTCUSDT).
func (s Symbol) Exchange() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// quoteCurrencies is checked longest-suffix-first when the pair carries no
// separator.
var quoteCurrencies = []string{"USDT", "BUSD", "USDC", "TUSD", "BTC", "ETH", "BNB"}

// ParseSymbol accepts "BTC/USDT", "BTCUSDT" and exchange-prefixed forms like
// "BINANCE:BTCUSDT". An unparseable input yields the zero Symbol.
func ParseSymbol(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[idx+1:]
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{Base: strings.TrimSpace(parts[0]), Quote: strings.TrimSpace(parts[1])}
	}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
		}
	}
	return Symbol{}
}

// ExchangeSymbol normalizes any accepted spelling to the exchange form, or ""
// when the input is not a recognizable pair.
func ExchangeSymbol(s string) string {
	return ParseSymbol(s).Exchange()
}

// ValidSymbol reports whether s parses to a full base/quote pair.
func ValidSymbol(s string) bool {
	sym := ParseSymbol(s)
	return sym.Base != "" && sym.Quote != ""
}
