// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{1,10}([.-][A-Z0-9]{1,5})?$`)
var exchangePattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// exchangeSuffixes are exchange codes accepted as a dotted suffix, as in
// BHP.AU. Single letters stay share classes (BRK.B).
var exchangeSuffixes = map[string]bool{
	"US": true, "AU": true, "LSE": true, "TO": true, "NEO": true, "HK": true,
	"XETRA": true, "PA": true, "AS": true, "SW": true, "MI": true, "MC": true,
	"BR": true, "LS": true, "VI": true, "IR": true, "CO": true, "HE": true,
	"ST": true, "OL": true, "NSE": true, "BSE": true, "SHG": true, "SHE": true,
	"KO": true, "KQ": true, "SA": true, "JSE": true, "NZ": true,
}

// SplitExchangeSuffix splits CODE.EXCHANGE when the suffix is a known
// exchange code. code must already be upper-cased.
func SplitExchangeSuffix(code string) (base, exchange string, ok bool) {
	idx := strings.LastIndex(code, ".")
	if idx <= 0 {
		return code, "", false
	}
	suffix := code[idx+1:]
	if !exchangeSuffixes[suffix] {
		return code, "", false
	}
	return code[:idx], suffix, true
}

// Ticker is a parsed, optionally exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "AU:BHP"), CODE.EXCHANGE (e.g., "BHP.AU")
// or a bare CODE (e.g., "AAPL").
type Ticker struct {
	Exchange string // empty when not qualified
	Code     string
}

// ParseTicker parses and validates a ticker string. Input is trimmed and upper-cased.
func ParseTicker(raw string) (Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Ticker{}, fmt.Errorf("empty ticker")
	}

	var t Ticker
	if idx := strings.Index(s, ":"); idx >= 0 {
		t.Exchange, t.Code = s[:idx], s[idx+1:]
		if !exchangePattern.MatchString(t.Exchange) {
			return Ticker{}, fmt.Errorf("invalid exchange in ticker %q", raw)
		}
	} else {
		t.Code = s
	}

	if !codePattern.MatchString(t.Code) {
		return Ticker{}, fmt.Errorf("invalid ticker %q", raw)
	}
	if base, exchange, ok := SplitExchangeSuffix(t.Code); ok {
		if t.Exchange != "" && t.Exchange != exchange {
			return Ticker{}, fmt.Errorf("conflicting exchanges in ticker %q", raw)
		}
		t.Exchange, t.Code = exchange, base
	}
	return t, nil
}

// String returns the canonical form, EXCHANGE:CODE or CODE
func (t Ticker) String() string {
	if t.Exchange == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// ValidateTicker validates raw and returns its canonical form
func ValidateTicker(raw string) (string, error) {
	t, err := ParseTicker(raw)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// NormalizeTickers validates a list, dropping duplicates. Order is preserved.
func NormalizeTickers(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		t, err := ValidateTicker(r)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
