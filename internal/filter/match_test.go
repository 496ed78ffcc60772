package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSubstring(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		sf       SubstringFilter
		expected bool
	}{
		{"initial", "HelloWorld", SubstringFilter{Initial: "hello"}, true},
		{"final", "HelloWorld", SubstringFilter{Final: "WORLD"}, true},
		{"initial and final", "HelloWorld", SubstringFilter{Initial: "Hello", Final: "World"}, true},
		{"any", "HelloWorld", SubstringFilter{Any: []string{"loWo"}}, true},
		{"any in order", "a-b-c", SubstringFilter{Any: []string{"a", "b", "c"}}, true},
		{"any out of order", "a-b-c", SubstringFilter{Any: []string{"c", "a"}}, false},
		{"empty any ignored", "abc", SubstringFilter{Any: []string{""}}, true},
		{"initial mismatch", "HelloWorld", SubstringFilter{Initial: "World"}, false},
		{"final overlaps initial", "abc", SubstringFilter{Initial: "ab", Final: "bc"}, false},
		{"empty value", "", SubstringFilter{Initial: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchSubstring(tt.value, &tt.sf))
		})
	}
}

func TestCompareFold(t *testing.T) {
	assert.Equal(t, 0, compareFold("ABC", "abc"))
	assert.Equal(t, -1, compareFold("abc", "ABD"))
	assert.Equal(t, 1, compareFold("b", "A"))
}

func TestNormalizeForApprox(t *testing.T) {
	assert.Equal(t, "hello world", normalizeForApprox("  Hello \t\n World  "))
	assert.Equal(t, "", normalizeForApprox("   "))
	assert.True(t, matchApprox("John  Smith", "john smith"))
	assert.False(t, matchApprox("John Smith", "Jon Smith"))
}
