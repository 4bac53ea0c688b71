// Package symbol maps free-form ticker spellings onto the exchange's pair codes.
package symbol

import (
	"fmt"
	"sort"
	"strings"

	"krakenWebhook/internal/domain"
)

// DefaultAliases is the substitution table used when none is configured.
// Kraken lists bitcoin under the XBT asset code.
var DefaultAliases = map[string]string{"BTC": "XBT"}

const separatorChars = "-_/ "

var separators = strings.NewReplacer("-", "", "_", "", "/", "", " ", "")

type substitution struct {
	from string
	to   string
}

// Normalizer is safe for concurrent use; it is immutable after construction.
type Normalizer struct {
	subs        []substitution
	defaultPair domain.NormalizedPair
}

// NewNormalizer builds a normalizer from an asset substitution table and a
// fallback pair. Replacements must not be longer than their source, must not
// contain a separator and must not contain any source token.
func NewNormalizer(aliases map[string]string, defaultPair string) (*Normalizer, error) {
	subs := make([]substitution, 0, len(aliases))
	for from, to := range aliases {
		f := strings.ToUpper(strings.TrimSpace(from))
		t := strings.ToUpper(strings.TrimSpace(to))
		if f == "" || t == "" {
			return nil, fmt.Errorf("asset alias %q=%q: both sides must be non-empty", from, to)
		}
		if strings.ContainsAny(f, separatorChars) || strings.ContainsAny(t, separatorChars) {
			return nil, fmt.Errorf("asset alias %s=%s: separators are stripped before substitution", f, t)
		}
		if len(t) > len(f) {
			return nil, fmt.Errorf("asset alias %s=%s: replacement is longer than its source", f, t)
		}
		subs = append(subs, substitution{from: f, to: t})
	}
	for _, a := range subs {
		for _, b := range subs {
			if strings.Contains(a.to, b.from) {
				return nil, fmt.Errorf("asset alias %s=%s: replacement contains source token %s", a.from, a.to, b.from)
			}
		}
	}
	// Longest source first, then lexical, so overlapping tokens resolve the same way every time.
	sort.Slice(subs, func(i, j int) bool {
		if len(subs[i].from) != len(subs[j].from) {
			return len(subs[i].from) > len(subs[j].from)
		}
		return subs[i].from < subs[j].from
	})

	n := &Normalizer{subs: subs}
	n.defaultPair = n.normalize(defaultPair)
	if n.defaultPair == "" {
		return nil, fmt.Errorf("default pair must not be empty")
	}
	return n, nil
}

// Normalize strips separators, uppercases and applies the substitution table.
// Empty input yields the default pair.
func (n *Normalizer) Normalize(raw string) domain.NormalizedPair {
	p := n.normalize(raw)
	if p == "" {
		return n.defaultPair
	}
	return p
}

// DefaultPair returns the configured fallback pair.
func (n *Normalizer) DefaultPair() domain.NormalizedPair {
	return n.defaultPair
}

// normalize rewrites until nothing changes. Substitutions never grow the
// string, so the walk visits finitely many states; if it revisits one, the
// smallest member of that cycle is returned, which rewrites back to itself.
func (n *Normalizer) normalize(raw string) domain.NormalizedPair {
	p := strings.ToUpper(strings.TrimSpace(separators.Replace(raw)))
	seen := map[string]struct{}{p: {}}
	for {
		next := n.pass(p)
		if next == p {
			return domain.NormalizedPair(p)
		}
		if _, ok := seen[next]; ok {
			return domain.NormalizedPair(n.cycleMin(next))
		}
		seen[next] = struct{}{}
		p = next
	}
}

func (n *Normalizer) pass(p string) string {
	for _, s := range n.subs {
		p = strings.ReplaceAll(p, s.from, s.to)
	}
	return p
}

func (n *Normalizer) cycleMin(start string) string {
	lowest := start
	for p := n.pass(start); p != start; p = n.pass(p) {
		if p < lowest {
			lowest = p
		}
	}
	return lowest
}
