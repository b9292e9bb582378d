package searchdb

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/notefind/errs"
)

func buildQuery(expression string) (query.Query, error) {
	if strings.Count(expression, `"`)%2 != 0 {
		return nil, errs.InvalidQuery("unbalanced quote in %q", expression)
	}

	phrases, remaining := parseQuotedQuery(expression)
	terms := strings.Fields(remaining)
	if len(phrases) == 0 && len(terms) == 0 {
		return nil, errs.InvalidQuery("full-text expression has no terms")
	}

	conjunction := bleve.NewConjunctionQuery()
	for _, term := range terms {
		conjunction.AddQuery(anyFieldMatch(term))
	}
	for _, phrase := range phrases {
		conjunction.AddQuery(anyFieldPhrase(phrase))
	}

	return conjunction, nil
}

// A term matches when every token it analyzes to occurs in the same field.
func anyFieldMatch(term string) query.Query {
	disjunction := bleve.NewDisjunctionQuery()
	for _, field := range []string{indexFieldTitle, indexFieldContent} {
		match := bleve.NewMatchQuery(term)
		match.SetField(field)
		match.SetOperator(query.MatchQueryOperatorAnd)
		disjunction.AddQuery(match)
	}
	return disjunction
}

func anyFieldPhrase(phrase string) query.Query {
	disjunction := bleve.NewDisjunctionQuery()
	for _, field := range []string{indexFieldTitle, indexFieldContent} {
		match := bleve.NewMatchPhraseQuery(phrase)
		match.SetField(field)
		disjunction.AddQuery(match)
	}
	return disjunction
}

// parseQuotedQuery splits out the quoted phrases of input. Phrases are
// trimmed, empty phrases are dropped and the unquoted rest is returned with
// single spaces.
func parseQuotedQuery(input string) ([]string, string) {
	var quoted []string
	var remaining []string

	parts := strings.Split(input, `"`)
	for i, part := range parts {
		if i%2 == 1 {
			if phrase := strings.Join(strings.Fields(part), " "); phrase != "" {
				quoted = append(quoted, phrase)
			}
			continue
		}
		remaining = append(remaining, strings.Fields(part)...)
	}

	return quoted, strings.Join(remaining, " ")
}
