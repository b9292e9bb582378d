package textproc

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/meghashyamc/notefind/pinyin"
)

var (
	englishWordRegex = regexp.MustCompile(`\b[a-zA-Z]+\b`)
	numberRegex      = regexp.MustCompile(`\d+`)
)

const punctuationRunes = ",.!?;:，。！？；：、"

// TextStats is the character breakdown shown by the statistics view.
type TextStats struct {
	Total        int `json:"total"`
	ChineseChars int `json:"chinese_chars"`
	EnglishWords int `json:"english_words"`
	Numbers      int `json:"numbers"`
	Punctuation  int `json:"punctuation"`
	Spaces       int `json:"spaces"`
	Others       int `json:"others"`
}

func Stats(text string) TextStats {
	stats := TextStats{
		Total:        utf8.RuneCountInString(text),
		ChineseChars: CountChinese(text),
		EnglishWords: CountEnglishWords(text),
		Numbers:      len(numberRegex.FindAllStringIndex(text, -1)),
		Punctuation:  countRunesIn(text, punctuationRunes),
		Spaces:       strings.Count(text, " "),
	}

	classified := stats.ChineseChars + stats.Punctuation + stats.Spaces
	for _, word := range englishWordRegex.FindAllString(text, -1) {
		classified += len(word)
	}
	for _, number := range numberRegex.FindAllString(text, -1) {
		classified += len(number)
	}
	stats.Others = max(0, stats.Total-classified)

	return stats
}

// ReadingMinutes estimates reading time at 300 Chinese characters and 200
// English words per minute, never less than one minute.
func (s TextStats) ReadingMinutes() int {
	minutes := math.Round(float64(s.ChineseChars)/300 + float64(s.EnglishWords)/200)
	return max(1, int(minutes))
}

func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

func CountChinese(text string) int {
	count := 0
	for _, r := range text {
		if pinyin.IsIdeograph(r) {
			count++
		}
	}

	return count
}

func CountEnglishWords(text string) int {
	return len(englishWordRegex.FindAllStringIndex(text, -1))
}

func countRunesIn(text string, set string) int {
	count := 0
	for _, r := range text {
		if strings.ContainsRune(set, r) {
			count++
		}
	}

	return count
}

// HTMLToText keeps the text nodes of an HTML fragment, one block element per
// line. Script and style contents are dropped.
func HTMLToText(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(collapseBlankLines(b.String()))
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skipDepth++
			case atom.Br:
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if atom.Lookup(name) == atom.Br {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skipDepth = max(0, skipDepth-1)
			case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Tr, atom.Pre, atom.Blockquote:
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
