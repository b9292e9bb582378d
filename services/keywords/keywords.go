// Package keywords ranks the terms of a text by smoothed TF-IDF against the
// document store.
package keywords

import (
	"context"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/textproc"
)

const (
	frequencyBatchSize = 32

	DefaultSuggestedTags = 3
)

// Corpus supplies the document-frequency statistics.
type Corpus interface {
	Size() (int, error)
	CountContaining(term string) (int, error)
}

type Keyword struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

type Phase string

const (
	PhaseTokenized   Phase = "tokenized"
	PhaseFrequencies Phase = "frequencies"
	PhaseRanked      Phase = "ranked"
)

// Progress is reported at each phase boundary. Done and Total count terms
// during PhaseFrequencies.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

type options struct {
	progress func(Progress)
	cache    *DFCache
}

type Option func(*options)

func WithProgress(fn func(Progress)) Option {
	return func(o *options) { o.progress = fn }
}

// WithDFCache shares document frequencies between calls that see the same
// corpus.
func WithDFCache(cache *DFCache) Option {
	return func(o *options) { o.cache = cache }
}

// DFCache memoizes document frequencies. It is not safe for concurrent use
// and must not outlive a change to the corpus.
type DFCache struct {
	counts map[string]int
}

func NewDFCache() *DFCache {
	return &DFCache{counts: make(map[string]int)}
}

type Extractor struct {
	logger    logger.Logger
	corpus    Corpus
	tokenizer *textproc.Tokenizer
}

func New(logger logger.Logger, corpus Corpus) (*Extractor, error) {
	tokenizer, err := textproc.NewTokenizer()
	if err != nil {
		logger.Error("could not build tokenizer", "err", err.Error())
		return nil, err
	}
	return &Extractor{logger: logger, corpus: corpus, tokenizer: tokenizer}, nil
}

type candidate struct {
	term string
	tf   int
}

// Extract returns at most topN terms of text, heaviest first. Equal weights
// keep the order in which the terms first appear. An empty corpus ranks by
// raw term frequency.
func (e *Extractor) Extract(ctx context.Context, text string, topN int, opts ...Option) ([]Keyword, error) {
	if topN < 1 {
		return nil, errs.InvalidQuery("keyword count must be at least 1, got %d", topN)
	}

	options := options{progress: func(Progress) {}}
	for _, opt := range opts {
		opt(&options)
	}

	candidates := e.candidates(text)
	options.progress(Progress{Phase: PhaseTokenized, Total: len(candidates)})
	if err := ctx.Err(); err != nil {
		return nil, errs.Cancelled(string(PhaseTokenized), err)
	}

	corpusSize, err := e.corpus.Size()
	if err != nil {
		e.logger.Error("failed to read corpus size", "err", err.Error())
		return nil, err
	}

	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = float64(c.tf)
	}

	if corpusSize > 0 {
		for start := 0; start < len(candidates); start += frequencyBatchSize {
			end := min(start+frequencyBatchSize, len(candidates))
			for i := start; i < end; i++ {
				df, err := e.documentFrequency(candidates[i].term, options.cache)
				if err != nil {
					return nil, err
				}
				weights[i] = Weight(candidates[i].tf, df, corpusSize)
			}

			options.progress(Progress{Phase: PhaseFrequencies, Done: end, Total: len(candidates)})
			if err := ctx.Err(); err != nil {
				return nil, errs.Cancelled(string(PhaseFrequencies), err)
			}
		}
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	keywords := make([]Keyword, 0, min(topN, len(order)))
	for _, i := range order[:min(topN, len(order))] {
		keywords = append(keywords, Keyword{Term: candidates[i].term, Weight: weights[i]})
	}

	options.progress(Progress{Phase: PhaseRanked, Done: len(keywords), Total: len(candidates)})
	return keywords, nil
}

// Weight is the smoothed TF-IDF of a term seen tf times, present in df of
// corpusSize documents.
func Weight(tf int, df int, corpusSize int) float64 {
	return float64(tf) * (math.Log(float64(corpusSize+1)/float64(df+1)) + 1)
}

// candidates lists the distinct terms of text in order of first appearance.
func (e *Extractor) candidates(text string) []candidate {
	var candidates []candidate
	position := make(map[string]int)

	for _, term := range e.tokenizer.Terms(text) {
		if i, ok := position[term]; ok {
			candidates[i].tf++
			continue
		}
		position[term] = len(candidates)
		candidates = append(candidates, candidate{term: term, tf: 1})
	}

	return candidates
}

func (e *Extractor) documentFrequency(term string, cache *DFCache) (int, error) {
	if cache != nil {
		if df, ok := cache.counts[term]; ok {
			return df, nil
		}
	}

	df, err := e.corpus.CountContaining(term)
	if err != nil {
		e.logger.Error("failed to count documents containing term", "term", term, "err", err.Error())
		return 0, err
	}

	if cache != nil {
		cache.counts[term] = df
	}
	return df, nil
}

// SuggestTags merges the top n keywords of the document content into its
// existing tags. A non-positive n means DefaultSuggestedTags.
func (e *Extractor) SuggestTags(ctx context.Context, doc docstore.Document, n int) ([]string, error) {
	if n < 1 {
		n = DefaultSuggestedTags
	}

	keywords, err := e.Extract(ctx, doc.PlainText(), n)
	if err != nil {
		return nil, err
	}

	tags := slices.Clone(doc.Tags)
	for _, keyword := range keywords {
		tags = append(tags, keyword.Term)
	}
	for i := range tags {
		tags[i] = strings.TrimSpace(tags[i])
	}
	slices.Sort(tags)
	tags = slices.Compact(tags)
	if len(tags) > 0 && tags[0] == "" {
		tags = tags[1:]
	}

	return tags, nil
}
