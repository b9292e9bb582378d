package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/services/index"
	"github.com/meghashyamc/notefind/validation"
)

type RepairRequest struct {
	Full bool `json:"full"`
}

type RepairResponse struct {
	ID string `json:"id"`
}

type RepairStatusRequest struct {
	RequestID string `uri:"request_id" validate:"required,uuid4"`
}

func SetupIndex(router gin.IRouter, logger logger.Logger, engine *Engine, validator *validation.Validator) {
	router.POST("/index/repair", handleRepair(engine.Repair, logger))
}

// SetupIndexStatus only reads job status, so it can be served while a repair
// holds the session.
func SetupIndexStatus(router gin.IRouter, logger logger.Logger, engine *Engine, validator *validation.Validator) {
	router.GET("/index/repair/:request_id", handleRepairStatus(engine.Repair, logger, validator))
}

func handleRepair(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := RepairRequest{}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				logger.Warn("could not extract expected fields from repair request", "err", err.Error())
				c.Abort()
				writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
				return
			}
		}

		requestID := uuid.New().String()
		if err := service.Start(requestID, request.Full); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, index.ErrRepairInProgress) {
				status = http.StatusConflict
			}
			logger.Warn("could not start index repair", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, status, []string{err.Error()})
			return
		}

		writeResponse(c, RepairResponse{ID: requestID}, http.StatusAccepted, nil)
	}
}

func handleRepairStatus(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := RepairStatusRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract request id", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request id"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate repair status request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		status, err := service.GetStatus(request.RequestID)
		if err != nil {
			logger.Warn("could not get repair status", "request_id", request.RequestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotFound, []string{err.Error()})
			return
		}

		writeResponse(c, status, http.StatusOK, nil)
	}
}
