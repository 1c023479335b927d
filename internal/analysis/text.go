package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches amounts like "$1.2M", "40%", "10,000 users", "3x"
var numberPattern = regexp.MustCompile(`(?i)(\$|€|£)?\s?(\d[\d,]*(?:\.\d+)?)(?:\s?(k|mm|m|bn|b|thousand|million|billion)\b)?(%|x\b)?`)

// amount is a number found in text, normalized by its magnitude suffix
type amount struct {
	Value   float64
	Percent bool
}

// extractAmounts returns the normalized amounts in s. Four-digit years are skipped.
func extractAmounts(s string) []amount {
	var out []amount
	for _, m := range numberPattern.FindAllStringSubmatch(s, -1) {
		digits := strings.ReplaceAll(m[2], ",", "")
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			continue
		}
		suffix := strings.ToLower(m[3])
		if m[1] == "" && suffix == "" && m[4] == "" && isYear(digits) {
			continue
		}
		switch suffix {
		case "k", "thousand":
			v *= 1e3
		case "m", "mm", "million":
			v *= 1e6
		case "b", "bn", "billion":
			v *= 1e9
		}
		out = append(out, amount{Value: v, Percent: m[4] == "%"})
	}
	return out
}

func isYear(digits string) bool {
	if len(digits) != 4 {
		return false
	}
	n, _ := strconv.Atoi(digits)
	return n >= 1900 && n <= 2100
}

// relativeDiff is |a-b| / max(|a|,|b|)
func relativeDiff(a, b float64) float64 {
	den := math.Max(math.Abs(a), math.Abs(b))
	if den == 0 {
		return 0
	}
	return math.Abs(a-b) / den
}

// closestAmount returns the smallest relative difference between any pair of
// comparable amounts, and false when no pair is comparable
func closestAmount(a, b []amount) (float64, bool) {
	best, found := math.Inf(1), false
	for _, x := range a {
		for _, y := range b {
			if x.Percent != y.Percent {
				continue
			}
			if d := relativeDiff(x.Value, y.Value); d < best {
				best, found = d, true
			}
		}
	}
	return best, found
}

func containsAny(lower string, words []string) (string, bool) {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

var stopwords = map[string]bool{
	"that": true, "with": true, "from": true, "this": true, "have": true, "they": true,
	"their": true, "were": true, "been": true, "which": true, "will": true, "into": true,
	"than": true, "over": true, "more": true, "about": true, "also": true, "each": true,
	"there": true, "what": true, "when": true, "your": true, "ours": true, "while": true,
}

var wordPattern = regexp.MustCompile(`[a-z][a-z0-9\-]{3,}`)

// significantWords returns distinct lower-case words of four or more letters
func significantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if !stopwords[w] {
			words[w] = true
		}
	}
	return words
}

// overlap is the share of claim words present in the candidate text
func overlap(claim, candidate map[string]bool) float64 {
	if len(claim) == 0 {
		return 0
	}
	hits := 0
	for w := range claim {
		if candidate[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(claim))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
