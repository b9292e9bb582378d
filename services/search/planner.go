package search

import (
	"strings"
	"time"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/pinyin"
)

// FullTextIndex resolves a full-text expression to the matching ids.
type FullTextIndex interface {
	Query(expression string) (map[docstore.ID]struct{}, error)
}

type Planner struct {
	index FullTextIndex
}

func NewPlanner(index FullTextIndex) *Planner {
	return &Planner{index: index}
}

// Plan turns a raw query and a filter into one predicate over documents.
// A nil predicate selects the whole corpus.
func (p *Planner) Plan(rawQuery string, f Filter) (docstore.Predicate, error) {
	if !f.mode.IsValid() {
		return nil, errs.InvalidQuery("unknown search mode %d", int(f.mode))
	}
	if !f.textMatch.IsValid() {
		return nil, errs.InvalidQuery("unknown text match %d", int(f.textMatch))
	}

	var predicates []docstore.Predicate

	if f.mode == ModeAdvanced {
		advanced, err := advancedPredicates(f)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, advanced...)
	}

	if id, ok := f.CategoryID(); ok {
		predicates = append(predicates, func(doc docstore.Document) bool {
			return doc.CategoryID != nil && *doc.CategoryID == id
		})
	}
	if tag := f.Tag(); tag != "" {
		predicates = append(predicates, func(doc docstore.Document) bool {
			return doc.HasTag(tag)
		})
	}

	text, err := p.textPredicate(rawQuery, f.textMatch)
	if err != nil {
		return nil, err
	}
	if text != nil {
		predicates = append(predicates, text)
	}

	return all(predicates), nil
}

func advancedPredicates(f Filter) ([]docstore.Predicate, error) {
	if !f.from.IsZero() && !f.to.IsZero() && f.from.After(f.to) {
		return nil, errs.InvalidQuery("date range starts %s after it ends %s", f.from.Format(time.DateOnly), f.to.Format(time.DateOnly))
	}

	from := f.from
	var until time.Time
	if !f.to.IsZero() {
		year, month, day := f.to.Date()
		until = time.Date(year, month, day, 0, 0, 0, 0, f.to.Location()).AddDate(0, 0, 1)
	}

	predicates := []docstore.Predicate{func(doc docstore.Document) bool {
		if !from.IsZero() && doc.UpdatedAt.Before(from) {
			return false
		}
		return until.IsZero() || doc.UpdatedAt.Before(until)
	}}

	if f.wordCountMax > 0 {
		if f.wordCountMin > f.wordCountMax {
			return nil, errs.InvalidQuery("word count range starts at %d above its end %d", f.wordCountMin, f.wordCountMax)
		}
		minWords, maxWords := f.wordCountMin, f.wordCountMax
		predicates = append(predicates, func(doc docstore.Document) bool {
			return doc.WordCount >= minWords && doc.WordCount <= maxWords
		})
	}

	return predicates, nil
}

// textPredicate returns nil for a blank query.
func (p *Planner) textPredicate(rawQuery string, match TextMatch) (docstore.Predicate, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return nil, nil
	}

	switch match {
	case MatchFullText:
		ids, err := p.index.Query(query)
		if err != nil {
			return nil, err
		}
		return func(doc docstore.Document) bool {
			_, ok := ids[doc.ID]
			return ok
		}, nil
	case MatchExact:
		return exactPredicate(query), nil
	default:
		return substringPredicate(query), nil
	}
}

// substringPredicate matches the query inside the title or content. Failing
// that, any folded query term may match the pinyin initials of the
// ideographs in the title or content, so "m x y" finds 猫喜欢鱼. Latin text
// takes no part in the initials match.
func substringPredicate(query string) docstore.Predicate {
	lowered := strings.ToLower(query)
	foldedTerms := strings.Fields(strings.ToLower(pinyin.Fold(query)))

	return func(doc docstore.Document) bool {
		content := doc.PlainText()
		if strings.Contains(strings.ToLower(doc.Title), lowered) || strings.Contains(strings.ToLower(content), lowered) {
			return true
		}

		for _, initials := range []string{pinyin.Initials(doc.Title), pinyin.Initials(content)} {
			if initials == "" {
				continue
			}
			for _, term := range foldedTerms {
				if strings.Contains(initials, term) {
					return true
				}
			}
		}
		return false
	}
}

func exactPredicate(query string) docstore.Predicate {
	folded := strings.ToLower(pinyin.Fold(query))

	return func(doc docstore.Document) bool {
		content := strings.TrimSpace(doc.PlainText())
		if doc.Title == query || content == query {
			return true
		}
		return strings.ToLower(pinyin.Fold(doc.Title)) == folded || strings.ToLower(pinyin.Fold(content)) == folded
	}
}

func all(predicates []docstore.Predicate) docstore.Predicate {
	if len(predicates) == 0 {
		return nil
	}
	return func(doc docstore.Document) bool {
		for _, predicate := range predicates {
			if !predicate(doc) {
				return false
			}
		}
		return true
	}
}
