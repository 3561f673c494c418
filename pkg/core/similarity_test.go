package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialRatioExactAndWindow(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		text    string
		want    int
	}{
		{name: "identical strings", keyword: "hello world", text: "hello world", want: 100},
		{name: "keyword is a window of the text", keyword: "hello", text: "well hello there", want: 100},
		{name: "case insensitive", keyword: "HELLO", text: "say hello", want: 100},
		{name: "text is a window of the keyword", keyword: "hello world", text: "hello", want: 100},
		{name: "empty keyword", keyword: "", text: "hello", want: 0},
		{name: "empty text", keyword: "hello", text: "", want: 0},
		{name: "both empty", keyword: "", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartialRatio(tt.keyword, tt.text))
		})
	}
}

func TestPartialRatioRanking(t *testing.T) {
	// An abbreviated keyword should land between the default threshold and a
	// strict one against its expansion.
	score := PartialRatio("fzy srch tst", "fuzzy searching test")
	assert.GreaterOrEqual(t, score, DefaultThreshold)
	assert.Less(t, score, 95)

	// Unrelated text stays under the default threshold.
	assert.Less(t, PartialRatio("nonexistent", "hello world"), DefaultThreshold)
	assert.Less(t, PartialRatio("nonexistent", "fuzzy searching test"), DefaultThreshold)

	// A closer match outranks a weaker one.
	assert.Greater(t,
		PartialRatio("fuzzy search", "fuzzy searching test"),
		PartialRatio("fzy srch tst", "fuzzy searching test"))
}

func TestPartialRatioUnicode(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("你好", "你好，世界"))
	assert.Equal(t, 0, PartialRatio("你好", ""))
}
