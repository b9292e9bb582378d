// Package textproc turns note text into index and keyword terms, and computes
// the character statistics the store and the analysis views report.
package textproc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// AnalyzerName is the analyzer shared by the full-text index and the keyword
// extractor, so both see the same terms.
const AnalyzerName = "note_text"

const bigramFilterName = "note_cjk_bigram"

// RegisterAnalyzer defines the note analyzer on an index mapping: unicode
// word segmentation, fullwidth folding, lowercasing, then CJK bigrams that
// keep unigrams for lone ideographs.
func RegisterAnalyzer(m *mapping.IndexMappingImpl) error {
	err := m.AddCustomTokenFilter(bigramFilterName, map[string]interface{}{
		"type":           cjk.BigramName,
		"output_unigram": true,
	})
	if err != nil {
		return fmt.Errorf("failed to register cjk bigram filter: %w", err)
	}

	err = m.AddCustomAnalyzer(AnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetokenizer.Name,
		"token_filters": []string{cjk.WidthName, lowercase.Name, bigramFilterName},
	})
	if err != nil {
		return fmt.Errorf("failed to register note analyzer: %w", err)
	}

	return nil
}

var widthFilter = cjk.NewCJKWidthFilter()

// Normalize applies the note analyzer's width folding and lowercasing to
// text as a whole, so containment tests see what the index sees.
func Normalize(text string) string {
	stream := widthFilter.Filter(analysis.TokenStream{&analysis.Token{Term: []byte(text)}})
	return strings.ToLower(string(stream[0].Term))
}

type Tokenizer struct {
	analyzer analysis.Analyzer
}

func NewTokenizer() (*Tokenizer, error) {
	indexMapping := bleve.NewIndexMapping()
	if err := RegisterAnalyzer(indexMapping); err != nil {
		return nil, err
	}

	analyzer := indexMapping.AnalyzerNamed(AnalyzerName)
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer %s could not be built", AnalyzerName)
	}

	return &Tokenizer{analyzer: analyzer}, nil
}

// Tokens returns every analyzed term in text order, without filtering.
func (t *Tokenizer) Tokens(text string) []string {
	stream := t.analyzer.Analyze([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, token := range stream {
		tokens = append(tokens, string(token.Term))
	}

	return tokens
}

// Terms returns the candidate keyword terms of text in order of appearance:
// stop words and single-character tokens are removed.
func (t *Tokenizer) Terms(text string) []string {
	var terms []string
	for _, token := range t.Tokens(text) {
		if utf8.RuneCountInString(token) < 2 || IsStopWord(token) {
			continue
		}
		terms = append(terms, token)
	}

	return terms
}
