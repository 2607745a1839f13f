// Package textseg splits text into sentence fragments suitable for
// incremental speech synthesis.
package textseg

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

// terminators covers sentence-ending punctuation across Latin, CJK,
// Devanagari, Arabic and Urdu scripts.
const terminators = ".!?。！？।؟۔"

func isTerminator(r rune) bool {
	return strings.ContainsRune(terminators, r)
}

// Sentences returns a lazy sequence of trimmed, non-empty sentence
// fragments. Each fragment ends at a run of one or more terminator
// characters; a run of consecutive terminators ("?!") belongs to a
// single fragment. Trailing text without a terminator is emitted as
// the final fragment. Ranging over the result again restarts the
// segmentation from the beginning.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for rest != "" {
			i := strings.IndexFunc(rest, isTerminator)
			if i < 0 {
				if tail := strings.TrimSpace(rest); tail != "" {
					yield(tail)
				}
				return
			}
			j := i
			for j < len(rest) {
				r, size := utf8.DecodeRuneInString(rest[j:])
				if !isTerminator(r) {
					break
				}
				j += size
			}
			frag := strings.TrimSpace(rest[:j])
			rest = rest[j:]
			if frag != "" && !yield(frag) {
				return
			}
		}
	}
}

// Split eagerly collects Sentences into a slice.
func Split(text string) []string {
	return slices.Collect(Sentences(text))
}
