package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/review"
)

// errorStatus maps a service error to an HTTP status and envelope.
func errorStatus(err error) (int, models.ErrorResponse) {
	var (
		reqErr   *orchestration.RequestError
		parseErr *review.ParseError
	)

	switch {
	case errors.Is(err, orchestration.ErrEmptyPrompt),
		errors.Is(err, orchestration.ErrEmptyDiff),
		errors.Is(err, orchestration.ErrUnknownHandler),
		errors.Is(err, orchestration.ErrUnknownAction):
		return http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidRequest, err.Error())

	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "Review result could not be parsed",
			Code:    models.ErrCodeReviewUnparseable,
			Details: map[string]string{"raw": parseErr.Raw},
		}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, models.NewErrorResponse(models.ErrCodeHandlerFailed, "Handler timed out")

	case errors.As(err, &reqErr):
		switch reqErr.Kind {
		case orchestration.KindRateLimited:
			return http.StatusTooManyRequests, models.NewErrorResponse(models.ErrCodeRateLimited, "Handler rate limit reached")
		case orchestration.KindCreditsExhausted:
			return http.StatusPaymentRequired, models.NewErrorResponse(models.ErrCodeCreditsExhausted, "Handler credits exhausted")
		default:
			return http.StatusBadGateway, models.NewErrorResponse(models.ErrCodeHandlerFailed, reqErr.Error())
		}

	default:
		return http.StatusInternalServerError, models.NewErrorResponse(models.ErrCodeInternalError, "Internal error")
	}
}

func respondError(c *gin.Context, err error) {
	status, resp := errorStatus(err)
	c.JSON(status, resp)
}

func respondInvalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidRequest, message))
}
