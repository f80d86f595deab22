package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/middleware"
	"github.com/yungbote/teamcore-backend/internal/repos"
	"github.com/yungbote/teamcore-backend/internal/services"
)

type TeamsHandler struct {
	teams services.TeamService
}

func NewTeamsHandler(teams services.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teams}
}

type createTeamRequest struct {
	OrganizationID string   `json:"organization_id" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	MemberUserIDs  []string `json:"member_user_ids"`
}

// POST /api/teams
func (h *TeamsHandler) Create(c *gin.Context) {
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_organization_id", err)
		return
	}
	jobID, err := h.teams.BeginCreate(c.Request.Context(), middleware.OperatorID(c), services.CreateTeamInput{
		OrganizationID: orgID,
		Name:           req.Name,
		Description:    req.Description,
		MemberUserIDs:  req.MemberUserIDs,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondAccepted(c, jobID)
}

type addMembersRequest struct {
	MemberUserIDs []string `json:"member_user_ids" binding:"required"`
}

// POST /api/teams/:id/members
func (h *TeamsHandler) AddMembers(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_team_id", err)
		return
	}
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	jobID, err := h.teams.BeginAddUsers(c.Request.Context(), middleware.OperatorID(c), teamID, req.MemberUserIDs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondAccepted(c, jobID)
}

type seedRequest struct {
	OrganizationID string   `json:"organization_id" binding:"required"`
	MemberUserIDs  []string `json:"member_user_ids"`
}

// POST /api/organizations/default-team
func (h *TeamsHandler) CreateDefault(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_organization_id", err)
		return
	}
	jobID, err := h.teams.BeginCreateDefault(c.Request.Context(), middleware.OperatorID(c), orgID, req.MemberUserIDs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondAccepted(c, jobID)
}

// POST /api/organizations/default-team/members
func (h *TeamsHandler) AddMembersToDefault(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_organization_id", err)
		return
	}
	jobID, err := h.teams.BeginAddUsersToDefault(c.Request.Context(), middleware.OperatorID(c), orgID, req.MemberUserIDs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondAccepted(c, jobID)
}

// GET /api/teams/:id
func (h *TeamsHandler) GetByID(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_team_id", err)
		return
	}
	if c.Query("with_members") == "true" {
		result, err := h.teams.FindByIDWithMembers(c.Request.Context(), teamID)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if result == nil {
			RespondError(c, http.StatusNotFound, "team_not_found", nil)
			return
		}
		RespondOK(c, result)
		return
	}
	team, err := h.teams.FindByID(c.Request.Context(), teamID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if team == nil {
		RespondError(c, http.StatusNotFound, "team_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"team": team})
}

// GET /api/teams
func (h *TeamsHandler) List(c *gin.Context) {
	filter := repos.TeamListFilter{
		OrganizationID: c.Query("organization_id"),
	}
	if v := c.Query("is_default"); v != "" {
		b := v == "true"
		filter.IsDefault = &b
	}
	if v := c.QueryArray("member_user_id"); len(v) > 0 {
		filter.MemberUserIDs = v
	}
	sort := repos.TeamSortType(c.DefaultQuery("sort", string(repos.TeamSortCreatedAtDesc)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, total, err := h.teams.List(c.Request.Context(), filter, sort, limit, offset)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"teams": rows, "total": total})
}

// GET /api/teams/:id/members
func (h *TeamsHandler) ListMembers(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_team_id", err)
		return
	}
	rows, err := h.teams.ListMembers(c.Request.Context(), teamID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"memberships": rows})
}

// GET /api/users/:id/teams
func (h *TeamsHandler) ListTeamsOfUser(c *gin.Context) {
	rows, err := h.teams.ListTeamsOfUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"teams": rows})
}
