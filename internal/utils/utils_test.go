package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeAnswer("  Hello   WORLD "))
	assert.Equal(t, "", NormalizeAnswer("   "))
	assert.Equal(t, "a b c", NormalizeAnswer("a\tb\nc"))
}

func TestKeywordOverlap(t *testing.T) {
	assert.Equal(t, 1.0, KeywordOverlap("alpha beta", "beta alpha gamma"))
	assert.Equal(t, 0.5, KeywordOverlap("alpha beta", "alpha"))
	assert.Equal(t, 0.0, KeywordOverlap("alpha beta", "gamma"))
	assert.Equal(t, 0.0, KeywordOverlap("", "anything"))
}
