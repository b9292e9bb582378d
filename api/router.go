package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/api/handlers"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/metrics"
	"github.com/meghashyamc/notefind/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, engine *handlers.Engine, validator *validation.Validator, session *sync.Mutex) {
	router.GET("/health", health())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.SetupIndexStatus(router, logger, engine, validator)

	// The repair worker takes the same session between requests.
	serialized := router.Group("/", sessionMiddleware(session))
	handlers.SetupDocuments(serialized, logger, engine, validator)
	handlers.SetupSearch(serialized, logger, engine, validator)
	handlers.SetupSimilarity(serialized, logger, engine, validator)
	handlers.SetupIndex(serialized, logger, engine, validator)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(logger logger.Logger) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(metrics.Middleware())
	router.Use(_CORSMiddleware())

	return router
}
