package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/services/search"
	"github.com/meghashyamc/notefind/validation"
)

const defaultResultsPerPage = 20

type SearchRequest struct {
	Query        string  `form:"query" validate:"valid_query,max=1000"`
	Mode         string  `form:"mode" validate:"valid_search_mode"`
	Match        string  `form:"match" validate:"valid_text_match"`
	CategoryID   *uint64 `form:"category_id"`
	Tag          string  `form:"tag" validate:"max=100"`
	From         string  `form:"from" validate:"valid_date"`
	To           string  `form:"to" validate:"valid_date"`
	WordCountMin int     `form:"word_count_min" validate:"min=0"`
	WordCountMax int     `form:"word_count_max" validate:"min=0"`
	PerPage      int     `form:"per_page" validate:"min=0,max=100"`
	Page         int     `form:"page" validate:"min=0"`
}

func (r *SearchRequest) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultResultsPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

// filter assumes the request passed validation.
func (r *SearchRequest) filter() search.Filter {
	mode, _ := search.ParseMode(r.Mode)
	match, _ := search.ParseTextMatch(r.Match)
	from, _ := time.Parse(time.DateOnly, r.From)
	to, _ := time.Parse(time.DateOnly, r.To)

	opts := []search.FilterOption{
		search.WithMode(mode),
		search.WithTextMatch(match),
		search.WithTag(r.Tag),
		search.WithDateRange(from, to),
		search.WithWordCountRange(r.WordCountMin, r.WordCountMax),
	}
	if r.CategoryID != nil {
		opts = append(opts, search.WithCategory(*r.CategoryID))
	}
	return search.NewFilter(opts...)
}

type SearchResponse struct {
	Results     []docstore.Document `json:"results"`
	PageDetails Pagination          `json:"page_details"`
}

type HistoryRequest struct {
	Limit int `form:"limit" validate:"min=0,max=100"`
}

type HistoryResponse struct {
	Searches []docstore.HistoryEntry `json:"searches"`
}

func SetupSearch(router gin.IRouter, logger logger.Logger, engine *Engine, validator *validation.Validator) {
	router.GET("/search", handleSearch(engine.Search, logger, validator))
	router.GET("/search/history", handleSearchHistory(engine.Search, logger, validator))
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		documents, err := service.Search(c.Request.Context(), request.Query, request.filter())
		if err != nil {
			logger.Warn("search failed", "err", err.Error())
			writeError(c, err)
			return
		}

		limit := request.PerPage
		offset := (request.Page - 1) * request.PerPage
		searchResponse := SearchResponse{
			Results:     page(documents, limit, offset),
			PageDetails: calculatePagination(len(documents), limit, offset),
		}

		writeResponse(c, searchResponse, http.StatusOK, nil)
	}
}

func handleSearchHistory(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := HistoryRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from history request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate history request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		searches, err := service.History(request.Limit)
		if err != nil {
			logger.Error("could not read search history", "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponse(c, HistoryResponse{Searches: searches}, http.StatusOK, nil)
	}
}
