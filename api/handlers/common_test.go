// Common test helpers
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/db/kvdb"
	"github.com/meghashyamc/notefind/db/searchdb"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/services/index"
	"github.com/meghashyamc/notefind/services/keywords"
	"github.com/meghashyamc/notefind/services/search"
	"github.com/meghashyamc/notefind/services/similarity"
	"github.com/meghashyamc/notefind/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

type testCase struct {
	name           string
	method         string
	endpoint       string
	requestHeaders map[string]string
	requestBody    map[string]any
	queryParams    map[string]string
	expectedStatus int
}

// testResponse mirrors response with raw data so each test decodes what it
// expects.
type testResponse struct {
	Data     json.RawMessage `json:"data"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// offlineIndex fails every write while offline is set.
type offlineIndex struct {
	*searchdb.BleveDB
	offline bool
}

func (o *offlineIndex) Index(doc docstore.Document) error {
	if o.offline {
		return errors.New("index offline")
	}
	return o.BleveDB.Index(doc)
}

func (o *offlineIndex) Remove(id docstore.ID) error {
	if o.offline {
		return errors.New("index offline")
	}
	return o.BleveDB.Remove(id)
}

type testServer struct {
	router *gin.Engine
	engine *Engine
	index  *offlineIndex
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {

	testLogger := logger.Discard()

	kvDB, err := kvdb.New(testLogger, filepath.Join(t.TempDir(), "handlers.db"))
	assert.NoError(err, "could not create kv database")
	searchDB, err := searchdb.NewInMemory(testLogger)
	assert.NoError(err, "could not create search database")
	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	t.Cleanup(func() {
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	searchIndex := &offlineIndex{BleveDB: searchDB}
	store := docstore.New(testLogger, kvDB, docstore.WithIndexer(searchIndex))
	extractor, err := keywords.New(testLogger, store)
	assert.NoError(err, "could not create keyword extractor")

	engine := &Engine{
		Store:      store,
		Search:     search.New(testLogger, store, searchIndex),
		Keywords:   extractor,
		Similarity: similarity.New(testLogger, store, extractor),
		Repair:     index.New(t.Context(), testLogger, index.NewRepairer(testLogger, store, searchIndex), kvDB),
		Defaults:   Defaults{SimilarTopN: 10, KeywordTopN: 5},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupDocuments(router, testLogger, engine, validator)
	SetupSearch(router, testLogger, engine, validator)
	SetupSimilarity(router, testLogger, engine, validator)
	SetupIndex(router, testLogger, engine, validator)
	SetupIndexStatus(router, testLogger, engine, validator)

	return &testServer{router: router, engine: engine, index: searchIndex}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func decodeResponse(assert *require.Assertions, w *httptest.ResponseRecorder, data any) testResponse {
	var r testResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &r), "response body is not the envelope: %s", w.Body.String())
	if data != nil {
		assert.NoError(json.Unmarshal(r.Data, data))
	}
	return r
}

func createTestDocument(assert *require.Assertions, s *testServer, body map[string]any) docstore.Document {
	w := makeTestHTTPRequest(s.router, assert, http.MethodPost, "/documents", defaultTestRequestHeaders, body, nil)
	assert.Equal(http.StatusCreated, w.Code, w.Body.String())

	var doc docstore.Document
	decodeResponse(assert, w, &doc)
	return doc
}

func documentPath(id docstore.ID, suffix string) string {
	return fmt.Sprintf("/documents/%d%s", id, suffix)
}
