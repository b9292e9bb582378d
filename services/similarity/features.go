package similarity

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/meghashyamc/notefind/services/keywords"
	"github.com/meghashyamc/notefind/textproc"
)

const featureKeywords = 10

var (
	wordRegex       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceBreaks  = regexp.MustCompile(`[。！？.!?]+`)
	terminatorRunes = "。.！!？?"
)

// FeatureVector describes the shape of a text. Only Keywords depend on the
// rest of the corpus.
type FeatureVector struct {
	WordCount         int      `json:"word_count"`
	UniqueWords       int      `json:"unique_words"`
	LexicalDiversity  float64  `json:"lexical_diversity"`
	CJKCount          int      `json:"cjk_count"`
	CJKRatio          float64  `json:"cjk_ratio"`
	LatinWords        int      `json:"latin_words"`
	LatinRatio        float64  `json:"latin_ratio"`
	AvgSentenceLength float64  `json:"avg_sentence_length"`
	Paragraphs        int      `json:"paragraphs"`
	QuestionRatio     float64  `json:"question_ratio"`
	ExclamationRatio  float64  `json:"exclamation_ratio"`
	Keywords          []string `json:"keywords"`
}

func (f FeatureVector) numeric() []float64 {
	return []float64{
		float64(f.WordCount),
		float64(f.UniqueWords),
		f.LexicalDiversity,
		float64(f.CJKCount),
		f.CJKRatio,
		float64(f.LatinWords),
		f.LatinRatio,
		f.AvgSentenceLength,
		float64(f.Paragraphs),
		f.QuestionRatio,
		f.ExclamationRatio,
	}
}

// TextFeatures computes every dimension except Keywords.
func TextFeatures(text string) FeatureVector {
	words := wordRegex.FindAllString(text, -1)
	unique := make(map[string]struct{}, len(words))
	for _, word := range words {
		unique[word] = struct{}{}
	}

	var terminators, questions, exclamations int
	for _, r := range text {
		if !strings.ContainsRune(terminatorRunes, r) {
			continue
		}
		terminators++
		switch r {
		case '？', '?':
			questions++
		case '！', '!':
			exclamations++
		}
	}

	paragraphs := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			paragraphs++
		}
	}

	features := FeatureVector{
		WordCount:         len(words),
		UniqueWords:       len(unique),
		CJKCount:          textproc.CountChinese(text),
		LatinWords:        textproc.CountEnglishWords(text),
		AvgSentenceLength: float64(len(words)) / float64(max(1, countSentences(text))),
		Paragraphs:        paragraphs,
		QuestionRatio:     float64(questions) / float64(max(1, terminators)),
		ExclamationRatio:  float64(exclamations) / float64(max(1, terminators)),
	}
	if features.WordCount > 0 {
		features.LexicalDiversity = float64(features.UniqueWords) / float64(features.WordCount)
		features.LatinRatio = float64(features.LatinWords) / float64(features.WordCount)
	}
	features.CJKRatio = float64(features.CJKCount) / float64(max(1, utf8.RuneCountInString(text)))

	return features
}

// countSentences counts the non-blank segments between terminators.
func countSentences(text string) int {
	count := 0
	for _, segment := range sentenceBreaks.Split(text, -1) {
		if strings.TrimSpace(segment) != "" {
			count++
		}
	}
	return count
}

// FeaturesOf computes the full feature vector of text, including its top
// keywords against the current corpus.
func (e *Engine) FeaturesOf(ctx context.Context, text string, opts ...keywords.Option) (FeatureVector, error) {
	features := TextFeatures(text)

	ranked, err := e.extractor.Extract(ctx, text, featureKeywords, opts...)
	if err != nil {
		return FeatureVector{}, err
	}
	features.Keywords = make([]string, len(ranked))
	for i, keyword := range ranked {
		features.Keywords[i] = keyword.Term
	}

	return features, nil
}
