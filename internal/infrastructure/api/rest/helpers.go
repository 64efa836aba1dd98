package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SuccessResponse envelopes every 2xx body.
type SuccessResponse struct {
	Data any `json:"data"`
}

func respondJSON(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Data: data})
}

func respondAPIError(c *gin.Context, err error) {
	apiErr := TranslateError(err)
	c.JSON(apiErr.HTTPStatus, apiErr)
}

func respondAPIErrorWithRequestID(c *gin.Context, err error) {
	apiErr := TranslateError(err)
	if apiErr.Details == nil {
		apiErr.Details = map[string]any{}
	}
	apiErr.Details["request_id"] = GetRequestID(c)
	c.JSON(apiErr.HTTPStatus, apiErr)
}

// bindJSON decodes the request body into dst, responding with a
// validation-shaped 400 on failure. Returns false when a response has
// already been written.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = validationMessage(fe)
			}
			apiErr := NewAPIError("VALIDATION_FAILED", "request body failed validation", http.StatusBadRequest)
			apiErr.Details = map[string]any{"fields": fields}
			c.JSON(apiErr.HTTPStatus, apiErr)
			return false
		}
		respondAPIError(c, ErrInvalidJSON)
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// getParam reads a required path parameter, responding 400 if absent.
func getParam(c *gin.Context, name string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		respondAPIError(c, ErrMissingParameter)
		return "", false
	}
	return v, true
}

// getQuery reads a required query parameter, responding 400 if absent.
func getQuery(c *gin.Context, name string) (string, bool) {
	v := c.Query(name)
	if v == "" {
		respondAPIError(c, ErrMissingParameter)
		return "", false
	}
	return v, true
}
