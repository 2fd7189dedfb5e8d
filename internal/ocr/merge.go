package ocr

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Fragment merge limits, in pixels.
const (
	sameLineMaxDY = 10
	mergeMaxGap   = 30
)

// DefaultMinTextLen is the shortest merged text kept by JoinText. Single
// characters are almost always stray marks recognized as glyphs.
const DefaultMinTextLen = 2

// MergeFragments joins words that sit on the same line and close together
// into single fragments.
//
// Two words are on the same line when their vertical centers differ by less
// than 10px; they are joined when the horizontal gap between them is under
// 30px. The merged confidence is the minimum of the parts. Output is in
// reading order.
func MergeFragments(words []Word) []Word {
	if len(words) == 0 {
		return nil
	}
	sorted := append([]Word(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Bounds.Center(), sorted[j].Bounds.Center()
		if absInt(ci.Y-cj.Y) >= sameLineMaxDY {
			return ci.Y < cj.Y
		}
		return sorted[i].Bounds.X1 < sorted[j].Bounds.X1
	})

	merged := []Word{sorted[0]}
	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		dy := absInt(last.Bounds.Center().Y - w.Bounds.Center().Y)
		gap := w.Bounds.X1 - last.Bounds.X2
		if dy < sameLineMaxDY && gap < mergeMaxGap {
			last.Text = last.Text + " " + w.Text
			last.Bounds = last.Bounds.Union(w.Bounds)
			last.Confidence = min(last.Confidence, w.Confidence)
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// JoinText merges fragments and joins them into one string, dropping
// fragments shorter than minLen runes.
func JoinText(words []Word, minLen int) string {
	var parts []string
	for _, w := range MergeFragments(words) {
		text := strings.TrimSpace(w.Text)
		if utf8.RuneCountInString(text) < minLen {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
