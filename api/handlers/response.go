package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
)

type response struct {
	Data     any      `json:"data"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

func writeResponse(c *gin.Context, data interface{}, statusCode int, errors []string) {
	writeResponseWithWarnings(c, data, statusCode, errors, nil)
}

// writeResponseWithWarnings reports a successful operation that left
// something for the caller to act on, such as an out-of-date index.
func writeResponseWithWarnings(c *gin.Context, data interface{}, statusCode int, errors []string, warnings []error) {

	if statusCode == http.StatusNoContent {
		c.JSON(statusCode, nil)
		return

	}

	response := response{
		Data:   data,
		Errors: errors,
	}
	for _, warning := range warnings {
		if warning != nil {
			response.Warnings = append(response.Warnings, warning.Error())
		}
	}

	c.JSON(statusCode, response)
}

// writeError maps the engine error kinds to HTTP statuses.
func writeError(c *gin.Context, err error) {
	c.Abort()
	writeResponse(c, nil, statusOf(err), []string{err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidQuery), errors.Is(err, docstore.ErrEmptyTitle):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrCancelled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
	TotalResults int  `json:"total_results"`
}

func calculatePagination(total, limit, offset int) Pagination {
	pageSize := limit
	currentPage := (offset / limit) + 1
	totalPages := (total + pageSize - 1) / pageSize

	if totalPages == 0 {
		totalPages = 1
	}

	return Pagination{
		CurrentPage:  currentPage,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		HasNextPage:  currentPage < totalPages,
		HasPrevPage:  currentPage > 1,
		TotalResults: total,
	}
}

// page returns the slice of items for limit and offset.
func page[T any](items []T, limit int, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}
