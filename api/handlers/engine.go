package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/services/index"
	"github.com/meghashyamc/notefind/services/keywords"
	"github.com/meghashyamc/notefind/services/search"
	"github.com/meghashyamc/notefind/services/similarity"
)

// Engine is the set of services the handlers drive.
type Engine struct {
	Store      *docstore.BoltStore
	Search     *search.Service
	Keywords   *keywords.Extractor
	Similarity *similarity.Engine
	Repair     *index.Service
	Defaults   Defaults
}

// Defaults fill in result counts a request leaves out.
type Defaults struct {
	SimilarTopN int
	KeywordTopN int
}

func documentID(c *gin.Context) (docstore.ID, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.InvalidQuery("invalid document id %q", c.Param("id"))
	}
	return docstore.ID(id), nil
}
