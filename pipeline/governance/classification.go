// Package governance decides, per forecast entity scope, whether the
// adjustment layer may run. Decisions are pure functions of the aggregated
// diagnostics and an explicit policy value.
package governance

import "strings"

// ClassKind is the closed set of structural classification outcomes.
type ClassKind int

const (
	// Unknown means the label was absent or blank.
	Unknown ClassKind = iota
	// Admissible means a non-empty label matched no blocking token.
	Admissible
	// Blocked means the label contains at least one blocking token.
	Blocked
)

func (k ClassKind) String() string {
	switch k {
	case Admissible:
		return "admissible"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// BlockTokens are matched as substrings of the normalized label, not as words.
// "NOT_BLOCKED" and "NORMAL" therefore block: a known false-positive mode
// accepted as the conservative side of the rule.
var BlockTokens = []string{"BLOCK", "FAIL", "FAILED", "INCOMPATIBLE", "DENY", "NO"}

// Classification is a raw label parsed once into its outcome.
type Classification struct {
	Kind       ClassKind
	Raw        string
	Normalized string
	Tokens     []string // blocking tokens found, in BlockTokens order
}

// Classify normalizes a label (trim, upper-case) and matches blocking tokens.
func Classify(label *string) Classification {
	if label == nil {
		return Classification{Kind: Unknown}
	}
	c := Classification{Raw: *label, Normalized: strings.ToUpper(strings.TrimSpace(*label))}
	if c.Normalized == "" {
		c.Kind = Unknown
		return c
	}
	for _, tok := range BlockTokens {
		if strings.Contains(c.Normalized, tok) {
			c.Tokens = append(c.Tokens, tok)
		}
	}
	if len(c.Tokens) > 0 {
		c.Kind = Blocked
	} else {
		c.Kind = Admissible
	}
	return c
}
