package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestClassify_PassingLabels(t *testing.T) {
	tests := []struct {
		name  string
		label *string
		kind  ClassKind
	}{
		{"upper OK", strPtr("OK"), Admissible},
		{"lower ok", strPtr("ok"), Admissible},
		{"padded", strPtr("  compatible \t"), Admissible},
		{"empty", strPtr(""), Unknown},
		{"blank", strPtr("   "), Unknown},
		{"absent", nil, Unknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.label)
			assert.Equal(t, tc.kind, c.Kind)
			assert.Empty(t, c.Tokens)
		})
	}
}

func TestClassify_BlockingLabels(t *testing.T) {
	tests := []struct {
		label  string
		tokens []string
	}{
		{"blocked", []string{"BLOCK"}},
		{"INCOMPATIBLE_TYPE", []string{"INCOMPATIBLE"}},
		{"not_block_worthy", []string{"BLOCK", "NO"}},
		{"FAILED", []string{"FAIL", "FAILED"}},
		{"deny", []string{"DENY"}},
		// Substring matching: accepted false positives.
		{"NOT_BLOCKED", []string{"BLOCK", "NO"}},
		{"NORMAL", []string{"NO"}},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			c := Classify(strPtr(tc.label))
			assert.Equal(t, Blocked, c.Kind)
			assert.Equal(t, tc.tokens, c.Tokens)
			assert.Equal(t, tc.label, c.Raw)
		})
	}
}

func TestClassKind_String(t *testing.T) {
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "admissible", Admissible.String())
	assert.Equal(t, "blocked", Blocked.String())
}
