package peers

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_peers.yaml
var defaultMappingYAML []byte

// Mapping assigns peer sets to subject tickers.
type Mapping struct {
	Default []string            `yaml:"default"`
	Peers   map[string][]string `yaml:"peers"`
}

// DefaultMapping returns the built-in peer mapping.
func DefaultMapping() (Mapping, error) {
	return ParseMapping(defaultMappingYAML)
}

// LoadMapping reads a YAML peer mapping. Entries in the file extend and
// override the built-in mapping.
func LoadMapping(path string) (Mapping, error) {
	base, err := DefaultMapping()
	if err != nil {
		return Mapping{}, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to read peer mapping %s: %w", path, err)
	}
	override, err := ParseMapping(data)
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to parse peer mapping %s: %w", path, err)
	}

	for ticker, peers := range override.Peers {
		base.Peers[ticker] = peers
	}
	if len(override.Default) > 0 {
		base.Default = override.Default
	}
	return base, nil
}

// ParseMapping decodes a YAML peer mapping and upper-cases its tickers.
func ParseMapping(data []byte) (Mapping, error) {
	var raw Mapping
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Mapping{}, err
	}

	m := Mapping{
		Default: normalizeTickers(raw.Default),
		Peers:   make(map[string][]string, len(raw.Peers)),
	}
	for ticker, peers := range raw.Peers {
		m.Peers[strings.ToUpper(strings.TrimSpace(ticker))] = normalizeTickers(peers)
	}
	return m, nil
}

// Lookup returns the peers configured for ticker, or the default set.
// The returned slice is a copy.
func (m Mapping) Lookup(ticker string) []string {
	peers, ok := m.Peers[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		peers = m.Default
	}
	out := make([]string, len(peers))
	copy(out, peers)
	return out
}

func normalizeTickers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
