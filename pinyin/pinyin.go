// Package pinyin folds CJK ideographs to the initial letter of their pinyin
// reading so that queries typed as initials can match Chinese text.
package pinyin

import (
	"strings"
	"unicode"

	gopinyin "github.com/mozillazg/go-pinyin"
)

const (
	ideographFirst = '\u4e00'
	ideographLast  = '\u9fff'
)

var initialsArgs = func() gopinyin.Args {
	args := gopinyin.NewArgs()
	args.Style = gopinyin.FirstLetter
	args.Heteronym = false
	return args
}()

// IsIdeograph reports whether r is in the CJK Unified Ideographs block.
func IsIdeograph(r rune) bool {
	return r >= ideographFirst && r <= ideographLast
}

// Fold replaces every ideograph with the lowercase first letter of its first
// pinyin reading and passes every other rune through. Ideographs without a
// known reading are dropped, so the result never contains an ideograph.
func Fold(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if !IsIdeograph(r) {
			b.WriteRune(r)
			continue
		}
		if initial, ok := initialOf(r); ok {
			b.WriteRune(initial)
		}
	}

	return b.String()
}

// Initials keeps only the folded ideographs of text, so 学习 notes gives "xx".
// Text without ideographs gives the empty string.
func Initials(text string) string {
	var b strings.Builder

	for _, r := range text {
		if !IsIdeograph(r) {
			continue
		}
		if initial, ok := initialOf(r); ok {
			b.WriteRune(initial)
		}
	}

	return b.String()
}

func initialOf(r rune) (rune, bool) {
	readings := gopinyin.SinglePinyin(r, initialsArgs)
	if len(readings) == 0 {
		return 0, false
	}
	for _, c := range readings[0] {
		return unicode.ToLower(c), true
	}
	return 0, false
}
