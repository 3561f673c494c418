package core

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// ScoreFunc computes a similarity score in [0, 100] between a search keyword
// and a stored text. Implementations must score an exact substring match as
// 100 and be monotonic enough to serve as a ranking key (higher is more
// similar). The zero score is returned when either input is empty.
type ScoreFunc func(keyword, text string) int

// PartialRatio is the default ScoreFunc: the best edit-similarity ratio
// between the keyword and any equal-length contiguous window of the text,
// scaled to 0-100. Matching is case-insensitive.
func PartialRatio(keyword, text string) int {
	if keyword == "" || text == "" {
		return 0
	}

	a := strings.ToLower(keyword)
	b := strings.ToLower(text)

	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	// Whole-string baseline, then slide a window of len(shorter) across
	// longer at every offset.
	best := fuzzy.Ratio(a, b)
	for idx := 0; idx+len(shorter) <= len(longer); idx++ {
		window := string(longer[idx : idx+len(shorter)])
		if r := fuzzy.Ratio(string(shorter), window); r > best {
			best = r
			if best >= 100 {
				break
			}
		}
	}

	return best
}
