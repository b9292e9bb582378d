package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/notefind/logger"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := newRouter(logger.Discard())
	router.GET("/health", health())
	return router
}

var requestIDTestCases = []struct {
	name     string
	incoming string
	keep     bool
}{
	{name: "Generated when absent"},
	{name: "Kept when valid", incoming: uuid.New().String(), keep: true},
	{name: "Replaced when malformed", incoming: "not-a-uuid"},
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter()

	for _, testCase := range requestIDTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if testCase.incoming != "" {
				req.Header.Set(HeaderRequestID, testCase.incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(http.StatusOK, w.Code)
			requestID := w.Header().Get(HeaderRequestID)
			_, err := uuid.Parse(requestID)
			assert.NoError(err)
			if testCase.keep {
				assert.Equal(testCase.incoming, requestID)
			} else {
				assert.NotEqual(testCase.incoming, requestID)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	assert := require.New(t)
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/health", nil))

	assert.Equal(http.StatusNoContent, w.Code)
	assert.True(strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), HeaderRequestID))
}
