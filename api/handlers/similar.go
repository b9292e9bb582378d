package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/services/similarity"
	"github.com/meghashyamc/notefind/validation"
)

type SimilarTextRequest struct {
	Text string `json:"text" validate:"required,valid_text"`
	TopN *int   `json:"top_n" validate:"omitempty,min=0,max=1000"`
}

type SimilarTextResponse struct {
	Features similarity.FeatureVector `json:"features"`
	Profile  similarity.Profile       `json:"profile"`
	Matches  []similarity.Match       `json:"matches"`
}

func SetupSimilarity(router gin.IRouter, logger logger.Logger, engine *Engine, validator *validation.Validator) {
	router.POST("/similar", handleSimilarText(engine, logger, validator))
}

func handleSimilarText(engine *Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SimilarTextRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected fields from similarity request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate similarity request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		topN := engine.Defaults.SimilarTopN
		if request.TopN != nil {
			topN = *request.TopN
		}

		var features similarity.FeatureVector
		keepFeatures := similarity.WithReferenceFeatures(func(f similarity.FeatureVector) { features = f })

		matches, err := engine.Similarity.FindSimilar(c.Request.Context(), similarity.ByText(request.Text), topN, keepFeatures)
		if err != nil {
			logger.Warn("could not find similar documents", "err", err.Error())
			writeError(c, err)
			return
		}

		writeResponse(c, SimilarTextResponse{
			Features: features,
			Profile:  similarity.ProfileOf(features),
			Matches:  matches,
		}, http.StatusOK, nil)
	}
}
