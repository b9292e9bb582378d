package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/api/handlers"
	"github.com/meghashyamc/notefind/config"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/db/kvdb"
	"github.com/meghashyamc/notefind/db/searchdb"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/metrics"
	"github.com/meghashyamc/notefind/services/index"
	"github.com/meghashyamc/notefind/services/keywords"
	"github.com/meghashyamc/notefind/services/search"
	"github.com/meghashyamc/notefind/services/similarity"
	"github.com/meghashyamc/notefind/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       *kvdb.BoltDB
	searchdb   *searchdb.BleveDB
	engine     *handlers.Engine
	session    sync.Mutex
	validator  *validation.Validator
	logger     logger.Logger
}

// Run serves the engine over HTTP until ctx is done or the process is
// interrupted.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)

	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(ctx); err != nil {
		return err
	}
	defer s.closeDependencies()

	s.setupRouter()
	return s.serve(ctx)
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	if err := os.MkdirAll(filepath.Dir(s.cfg.GetKVDBPath()), 0755); err != nil {
		s.logger.Error("error creating storage directory", "err", err.Error())
		return err
	}

	s.kvdb, err = kvdb.New(s.logger, s.cfg.GetKVDBPath())
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.searchdb, err = searchdb.New(s.logger, s.cfg.GetIndexPath())
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}

	store := docstore.New(s.logger, s.kvdb,
		docstore.WithIndexer(s.searchdb),
		docstore.WithInconsistencyObserver(metrics.ObserveInconsistency),
	)
	extractor, err := keywords.New(s.logger, store)
	if err != nil {
		s.logger.Error("error creating keyword extractor", "err", err.Error())
		return err
	}

	s.engine = &handlers.Engine{
		Store:      store,
		Search:     search.New(s.logger, store, s.searchdb),
		Keywords:   extractor,
		Similarity: similarity.New(s.logger, store, extractor),
		Repair:     index.New(ctx, s.logger, index.NewRepairer(s.logger, store, s.searchdb), s.kvdb, index.WithSession(&s.session)),
		Defaults: handlers.Defaults{
			SimilarTopN: s.cfg.GetSimilarTopN(),
			KeywordTopN: s.cfg.GetKeywordTopN(),
		},
	}

	return nil
}

func (s *server) closeDependencies() {
	if s.searchdb != nil {
		if err := s.searchdb.Close(); err != nil {
			s.logger.Error("error closing searchDB", "err", err.Error())
		}
	}
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing kvDB", "err", err.Error())
		}
	}
}

func (s *server) setupRouter() {
	router := newRouter(s.logger)

	setupRoutes(router, s.logger, s.engine, s.validator, &s.session)

	s.router = router
}

func (s *server) serve(ctx context.Context) error {

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			s.logger.Error("http server failed", "err", err.Error())
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("starting to shut down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "err", err)
		return err
	}
	s.logger.Info("shut down http server successfully")

	return nil
}
