package keywords

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/stretchr/testify/require"
)

type fakeCorpus struct {
	documents []string
	lookups   int
}

func (c *fakeCorpus) Size() (int, error) {
	return len(c.documents), nil
}

func (c *fakeCorpus) CountContaining(term string) (int, error) {
	c.lookups++
	count := 0
	for _, doc := range c.documents {
		if strings.Contains(strings.ToLower(doc), strings.ToLower(term)) {
			count++
		}
	}
	return count, nil
}

func newTestExtractor(t *testing.T, documents ...string) (*Extractor, *fakeCorpus) {
	corpus := &fakeCorpus{documents: documents}
	extractor, err := New(logger.Discard(), corpus)
	require.NoError(t, err)
	return extractor, corpus
}

func termsOf(keywords []Keyword) []string {
	terms := make([]string, len(keywords))
	for i, keyword := range keywords {
		terms[i] = keyword.Term
	}
	return terms
}

var extractTestCases = []struct {
	name     string
	corpus   []string
	text     string
	topN     int
	expected []string
}{
	{
		name:     "Empty corpus ranks by raw frequency",
		text:     "apple banana apple cherry banana apple",
		topN:     2,
		expected: []string{"apple", "banana"},
	},
	{
		name:     "Ties keep first occurrence",
		text:     "zeta alpha mu",
		topN:     3,
		expected: []string{"zeta", "alpha", "mu"},
	},
	{
		name:     "Rare terms outrank common ones",
		corpus:   []string{"apple pie", "apple tart", "banana split"},
		text:     "apple banana",
		topN:     2,
		expected: []string{"banana", "apple"},
	},
	{
		name:     "Fewer candidates than requested",
		text:     "Stop words and the single letters a b c go away",
		topN:     10,
		expected: []string{"stop", "words", "single", "letters", "go", "away"},
	},
	{
		name:     "No candidates",
		text:     "the a of",
		topN:     5,
		expected: []string{},
	},
}

func TestExtract(t *testing.T) {
	for _, testCase := range extractTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			extractor, _ := newTestExtractor(t, testCase.corpus...)

			keywords, err := extractor.Extract(context.Background(), testCase.text, testCase.topN)
			assert.NoError(err)
			assert.LessOrEqual(len(keywords), testCase.topN)
			assert.Equal(testCase.expected, termsOf(keywords))

			for i := 1; i < len(keywords); i++ {
				assert.GreaterOrEqual(keywords[i-1].Weight, keywords[i].Weight, "weights must not increase")
			}
		})
	}
}

func TestExtractRawFrequencyWeights(t *testing.T) {
	extractor, corpus := newTestExtractor(t)

	keywords, err := extractor.Extract(context.Background(), "go go gopher", 5)
	require.NoError(t, err)
	require.Equal(t, []Keyword{{Term: "go", Weight: 2}, {Term: "gopher", Weight: 1}}, keywords)
	require.Zero(t, corpus.lookups, "an empty corpus needs no frequency lookups")
}

func TestExtractChineseBigrams(t *testing.T) {
	extractor, _ := newTestExtractor(t, "狗喜欢鱼", "hello world")

	keywords, err := extractor.Extract(context.Background(), "猫喜欢鱼", 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"猫喜", "喜欢", "欢鱼"}, termsOf(keywords))
	require.Equal(t, "猫喜", keywords[0].Term, "the bigram absent from the corpus ranks first")
}

func TestExtractRejectsNonPositiveTopN(t *testing.T) {
	extractor, _ := newTestExtractor(t)

	for _, topN := range []int{0, -3} {
		_, err := extractor.Extract(context.Background(), "text", topN)
		require.ErrorIs(t, err, errs.ErrInvalidQuery)
	}
}

func TestWeightIsMonotonicInDocumentFrequency(t *testing.T) {
	for _, corpusSize := range []int{1, 10, 1000} {
		for tf := 1; tf <= 5; tf++ {
			previous := Weight(tf, 0, corpusSize)
			for df := 1; df <= corpusSize; df++ {
				current := Weight(tf, df, corpusSize)
				require.LessOrEqual(t, current, previous, "N=%d tf=%d df=%d", corpusSize, tf, df)
				require.Positive(t, current)
				previous = current
			}
		}
	}
}

func TestExtractReportsProgressInBatches(t *testing.T) {
	assert := require.New(t)
	extractor, _ := newTestExtractor(t, "unrelated")

	words := make([]string, 40)
	for i := range words {
		words[i] = fmt.Sprintf("term%d", i)
	}

	var progress []Progress
	_, err := extractor.Extract(context.Background(), strings.Join(words, " "), 5, WithProgress(func(p Progress) {
		progress = append(progress, p)
	}))
	assert.NoError(err)
	assert.Equal([]Progress{
		{Phase: PhaseTokenized, Total: 40},
		{Phase: PhaseFrequencies, Done: 32, Total: 40},
		{Phase: PhaseFrequencies, Done: 40, Total: 40},
		{Phase: PhaseRanked, Done: 5, Total: 40},
	}, progress)
}

func TestExtractCancellation(t *testing.T) {
	extractor, corpus := newTestExtractor(t, "corpus document")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keywords, err := extractor.Extract(ctx, "some words here", 3, WithProgress(func(p Progress) {
		if p.Phase == PhaseTokenized {
			cancel()
		}
	}))
	require.ErrorIs(t, err, errs.ErrCancelled)
	require.Nil(t, keywords, "a cancelled extraction returns no partial output")
	require.Zero(t, corpus.lookups)
}

func TestDFCacheAvoidsRepeatedLookups(t *testing.T) {
	assert := require.New(t)
	extractor, corpus := newTestExtractor(t, "alpha beta", "beta gamma")
	cache := NewDFCache()

	first, err := extractor.Extract(context.Background(), "alpha beta gamma", 3, WithDFCache(cache))
	assert.NoError(err)
	assert.Equal(3, corpus.lookups)

	second, err := extractor.Extract(context.Background(), "gamma beta alpha", 3, WithDFCache(cache))
	assert.NoError(err)
	assert.Equal(3, corpus.lookups, "cached frequencies are reused")
	assert.ElementsMatch(termsOf(first), termsOf(second))
}

func TestSuggestTags(t *testing.T) {
	extractor, _ := newTestExtractor(t)
	doc := docstore.Document{
		Content: "kubernetes kubernetes kubernetes helm helm charts operators",
		Tags:    []string{"helm", "devops"},
	}

	tags, err := extractor.SuggestTags(context.Background(), doc, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"charts", "devops", "helm", "kubernetes"}, tags)
	require.Equal(t, []string{"helm", "devops"}, doc.Tags, "the document is not modified")
}
