package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/teamcore-backend/internal/domain"
)

type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Details: domain.ErrorDetails(err),
		},
	})
}

// RespondDomainError maps typed domain errors onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.CodeTeamNotFound:
		status = http.StatusNotFound
	case domain.CodeReservedName, domain.CodeDuplicateName, domain.CodeAlreadyMember, domain.CodeOrganizationInvalid:
		status = http.StatusConflict
	case domain.CodeDefaultTeamProtected:
		status = http.StatusForbidden
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAccepted is the shape of every job-submitting endpoint.
func RespondAccepted(c *gin.Context, jobID any) {
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}
