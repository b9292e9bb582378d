// Package similarity ranks documents by how closely their feature vectors
// resemble a reference text.
package similarity

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/metrics"
	"github.com/meghashyamc/notefind/services/keywords"
)

const (
	numericWeight = 0.6
	keywordWeight = 0.4
)

type Store interface {
	Get(id docstore.ID) (docstore.Document, error)
	List(predicate docstore.Predicate) ([]docstore.Document, error)
}

type KeywordExtractor interface {
	Extract(ctx context.Context, text string, topN int, opts ...keywords.Option) ([]keywords.Keyword, error)
}

type Engine struct {
	logger    logger.Logger
	store     Store
	extractor KeywordExtractor
}

func New(logger logger.Logger, store Store, extractor KeywordExtractor) *Engine {
	return &Engine{logger: logger, store: store, extractor: extractor}
}

// Reference is what FindSimilar compares the corpus against: a stored
// document or free text.
type Reference struct {
	id   *docstore.ID
	text string
}

func ByID(id docstore.ID) Reference {
	return Reference{id: &id}
}

func ByText(text string) Reference {
	return Reference{text: text}
}

type Match struct {
	ID       docstore.ID   `json:"id"`
	Title    string        `json:"title"`
	Score    float64       `json:"score"`
	Features FeatureVector `json:"features"`
}

type findOptions struct {
	progress  func(done int, total int)
	reference func(FeatureVector)
}

type Option func(*findOptions)

// WithProgress is called after each compared document.
func WithProgress(fn func(done int, total int)) Option {
	return func(o *findOptions) { o.progress = fn }
}

// WithReferenceFeatures receives the feature vector the corpus is compared
// against, before ranking starts.
func WithReferenceFeatures(fn func(FeatureVector)) Option {
	return func(o *findOptions) { o.reference = fn }
}

// Similarity scores two feature vectors in [0, 1]. Without keywords on
// either side the score is the numeric similarity alone.
func Similarity(a FeatureVector, b FeatureVector) float64 {
	numeric := numericSimilarity(a, b)
	if len(a.Keywords) == 0 && len(b.Keywords) == 0 {
		return numeric
	}
	return numericWeight*numeric + keywordWeight*jaccard(a.Keywords, b.Keywords)
}

func numericSimilarity(a FeatureVector, b FeatureVector) float64 {
	av, bv := a.numeric(), b.numeric()
	total := 0.0
	for i := range av {
		total += 1 - math.Abs(av[i]-bv[i])/math.Max(math.Max(av[i], bv[i]), 1)
	}
	return total / float64(len(av))
}

func jaccard(a []string, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, term := range a {
		set[term] = false
	}

	union := len(set)
	intersection := 0
	for _, term := range b {
		seen, inA := set[term]
		switch {
		case !inA:
			set[term] = true
			union++
		case !seen:
			set[term] = true
			intersection++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// FindSimilar scores every live document against ref, highest first with
// ties by ascending id. A ByID reference is left out of its own results.
// topN of zero returns the whole ranking.
func (e *Engine) FindSimilar(ctx context.Context, ref Reference, topN int, opts ...Option) ([]Match, error) {
	if topN < 0 {
		return nil, errs.InvalidQuery("result count cannot be negative, got %d", topN)
	}

	options := findOptions{progress: func(int, int) {}, reference: func(FeatureVector) {}}
	for _, opt := range opts {
		opt(&options)
	}

	start := time.Now()
	defer func() { metrics.SimilarityDuration.Observe(time.Since(start).Seconds()) }()

	text := ref.text
	if ref.id != nil {
		doc, err := e.store.Get(*ref.id)
		if err != nil {
			return nil, err
		}
		text = doc.PlainText()
	}

	candidates, err := e.store.List(func(doc docstore.Document) bool {
		return ref.id == nil || doc.ID != *ref.id
	})
	if err != nil {
		e.logger.Error("failed to list documents for similarity", "err", err.Error())
		return nil, err
	}

	cache := keywords.NewDFCache()
	reference, err := e.FeaturesOf(ctx, text, keywords.WithDFCache(cache))
	if err != nil {
		return nil, err
	}
	options.reference(reference)

	matches := make([]Match, 0, len(candidates))
	for i, doc := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, errs.Cancelled("similarity ranking", err)
		}

		features, err := e.FeaturesOf(ctx, doc.PlainText(), keywords.WithDFCache(cache))
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{
			ID:       doc.ID,
			Title:    doc.Title,
			Score:    Similarity(reference, features),
			Features: features,
		})
		options.progress(i+1, len(candidates))
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if topN > 0 && topN < len(matches) {
		matches = matches[:topN]
	}
	return matches, nil
}
