package handlers

import (
	"net/http"
	"testing"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/stretchr/testify/require"
)

func TestSimilarText(t *testing.T) {
	assert := require.New(t)
	s := setupTestServer(t, assert)

	a := createTestDocument(assert, s, map[string]any{"title": "a", "content": "猫喜欢鱼"})
	b := createTestDocument(assert, s, map[string]any{"title": "b", "content": "狗喜欢鱼"})
	createTestDocument(assert, s, map[string]any{"title": "c", "content": "hello world"})

	w := makeTestHTTPRequest(s.router, assert, http.MethodPost, "/similar", defaultTestRequestHeaders, map[string]any{
		"text":  "猫喜欢鱼",
		"top_n": 2,
	}, nil)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())

	var similar SimilarTextResponse
	decodeResponse(assert, w, &similar)
	assert.Len(similar.Matches, 2)
	assert.Equal([]docstore.ID{a.ID, b.ID}, []docstore.ID{similar.Matches[0].ID, similar.Matches[1].ID}, "free text excludes nothing")
	assert.InDelta(1.0, similar.Matches[0].Score, 1e-9)
	assert.Equal(4, similar.Features.CJKCount)
	assert.NotEmpty(similar.Profile.Styles)
}

var similarTextRequestTestCases = []testCase{
	{
		name:           "Missing text",
		requestBody:    map[string]any{"top_n": 2},
		expectedStatus: http.StatusNotAcceptable,
	},
	{
		name:           "Blank text",
		requestBody:    map[string]any{"text": "  \n "},
		expectedStatus: http.StatusNotAcceptable,
	},
	{
		name:           "Negative top_n",
		requestBody:    map[string]any{"text": "hello", "top_n": -4},
		expectedStatus: http.StatusNotAcceptable,
	},
	{
		name:           "Wrong text type",
		requestBody:    map[string]any{"text": []string{"hello"}},
		expectedStatus: http.StatusUnprocessableEntity,
	},
}

func TestSimilarTextRequestErrors(t *testing.T) {
	for _, testCase := range similarTextRequestTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			s := setupTestServer(t, assert)

			w := makeTestHTTPRequest(s.router, assert, http.MethodPost, "/similar", defaultTestRequestHeaders, testCase.requestBody, nil)
			assert.Equal(testCase.expectedStatus, w.Code, w.Body.String())
		})
	}
}
