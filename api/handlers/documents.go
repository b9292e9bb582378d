package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/services/keywords"
	"github.com/meghashyamc/notefind/services/similarity"
	"github.com/meghashyamc/notefind/textproc"
	"github.com/meghashyamc/notefind/validation"
)

type DocumentRequest struct {
	Title      string   `json:"title" validate:"required,valid_title,max=500"`
	Content    string   `json:"content"`
	Format     string   `json:"format" validate:"valid_format"`
	CategoryID *uint64  `json:"category_id"`
	Tags       []string `json:"tags" validate:"max=50"`
}

func (r DocumentRequest) draft() docstore.Draft {
	// validated by valid_format
	format, _ := docstore.ParseContentFormat(r.Format)
	return docstore.Draft{
		Title:      r.Title,
		Content:    r.Content,
		Format:     format,
		CategoryID: r.CategoryID,
		Tags:       r.Tags,
	}
}

type TopNRequest struct {
	TopN *int `form:"top_n" validate:"omitempty,min=0,max=1000"`
}

type KeywordsResponse struct {
	Keywords []keywords.Keyword `json:"keywords"`
}

type SimilarResponse struct {
	Matches []similarity.Match `json:"matches"`
}

type TagSuggestionResponse struct {
	Tags []string `json:"tags"`
}

type StatsResponse struct {
	Stats          textproc.TextStats `json:"stats"`
	ReadingMinutes int                `json:"reading_minutes"`
}

func SetupDocuments(router gin.IRouter, logger logger.Logger, engine *Engine, validator *validation.Validator) {
	router.POST("/documents", handleCreateDocument(engine, logger, validator))
	router.GET("/documents/:id", handleGetDocument(engine, logger))
	router.PUT("/documents/:id", handleUpdateDocument(engine, logger, validator))
	router.DELETE("/documents/:id", handleDeleteDocument(engine, logger))
	router.GET("/documents/:id/stats", handleDocumentStats(engine, logger))
	router.GET("/documents/:id/keywords", handleDocumentKeywords(engine, logger, validator))
	router.GET("/documents/:id/similar", handleSimilarDocuments(engine, logger, validator))
	router.GET("/documents/:id/tags/suggest", handleSuggestTags(engine, logger, validator))
}

func bindDocumentRequest(c *gin.Context, logger logger.Logger, validator *validation.Validator) (DocumentRequest, bool) {
	request := DocumentRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Warn("could not extract expected fields from document request", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
		return request, false
	}

	if err := validator.Validate(request); err != nil {
		logger.Warn("could not validate document request", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
		return request, false
	}
	return request, true
}

func bindTopN(c *gin.Context, logger logger.Logger, validator *validation.Validator, fallback int) (int, bool) {
	request := TopNRequest{}
	if err := c.ShouldBindQuery(&request); err != nil {
		logger.Warn("could not extract expected params from request", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract query parameters"})
		return 0, false
	}

	if err := validator.Validate(request); err != nil {
		logger.Warn("could not validate request", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
		return 0, false
	}

	if request.TopN == nil {
		return fallback, true
	}
	return *request.TopN, true
}

// loadDocument writes the error response itself when it returns false.
func loadDocument(c *gin.Context, engine *Engine, logger logger.Logger) (docstore.Document, bool) {
	id, err := documentID(c)
	if err != nil {
		writeError(c, err)
		return docstore.Document{}, false
	}

	doc, err := engine.Store.Get(id)
	if err != nil {
		logger.Warn("could not get document", "id", id, "err", err.Error())
		writeError(c, err)
		return docstore.Document{}, false
	}
	return doc, true
}

func handleCreateDocument(engine *Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindDocumentRequest(c, logger, validator)
		if !ok {
			return
		}

		commit, err := engine.Store.Create(request.draft())
		if err != nil {
			logger.Error("could not create document", "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponseWithWarnings(c, commit.Document, http.StatusCreated, nil, []error{commit.Warning})
	}
}

func handleGetDocument(engine *Engine, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := loadDocument(c, engine, logger)
		if !ok {
			return
		}

		writeResponse(c, doc, http.StatusOK, nil)
	}
}

func handleUpdateDocument(engine *Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := documentID(c)
		if err != nil {
			writeError(c, err)
			return
		}

		request, ok := bindDocumentRequest(c, logger, validator)
		if !ok {
			return
		}

		commit, err := engine.Store.Update(id, request.draft())
		if err != nil {
			logger.Warn("could not update document", "id", id, "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponseWithWarnings(c, commit.Document, http.StatusOK, nil, []error{commit.Warning})
	}
}

func handleDeleteDocument(engine *Engine, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := documentID(c)
		if err != nil {
			writeError(c, err)
			return
		}

		commit, err := engine.Store.Delete(id)
		if err != nil {
			logger.Warn("could not delete document", "id", id, "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponseWithWarnings(c, commit.Document, http.StatusOK, nil, []error{commit.Warning})
	}
}

func handleDocumentStats(engine *Engine, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := loadDocument(c, engine, logger)
		if !ok {
			return
		}

		stats := textproc.Stats(doc.PlainText())
		writeResponse(c, StatsResponse{Stats: stats, ReadingMinutes: stats.ReadingMinutes()}, http.StatusOK, nil)
	}
}

func handleDocumentKeywords(engine *Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		topN, ok := bindTopN(c, logger, validator, engine.Defaults.KeywordTopN)
		if !ok {
			return
		}
		doc, ok := loadDocument(c, engine, logger)
		if !ok {
			return
		}

		ranked, err := engine.Keywords.Extract(c.Request.Context(), doc.PlainText(), topN)
		if err != nil {
			logger.Warn("could not extract keywords", "id", doc.ID, "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponse(c, KeywordsResponse{Keywords: ranked}, http.StatusOK, nil)
	}
}

func handleSimilarDocuments(engine *Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		topN, ok := bindTopN(c, logger, validator, engine.Defaults.SimilarTopN)
		if !ok {
			return
		}
		id, err := documentID(c)
		if err != nil {
			writeError(c, err)
			return
		}

		matches, err := engine.Similarity.FindSimilar(c.Request.Context(), similarity.ByID(id), topN)
		if err != nil {
			logger.Warn("could not find similar documents", "id", id, "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponse(c, SimilarResponse{Matches: matches}, http.StatusOK, nil)
	}
}

func handleSuggestTags(engine *Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := bindTopN(c, logger, validator, keywords.DefaultSuggestedTags)
		if !ok {
			return
		}
		doc, ok := loadDocument(c, engine, logger)
		if !ok {
			return
		}

		tags, err := engine.Keywords.SuggestTags(c.Request.Context(), doc, n)
		if err != nil {
			logger.Warn("could not suggest tags", "id", doc.ID, "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponse(c, TagSuggestionResponse{Tags: tags}, http.StatusOK, nil)
	}
}
