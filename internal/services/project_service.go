package services

import (
	"context"
	"strings"

	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/repositories"
	"github.com/yoockh/cinedesk/internal/utils"
)

const (
	MsgUnauthorized      = "unauthorized"
	MsgProjectNotFound   = "Project not found"
	MsgAccessCheckFailed = "Failed to verify project access"
)

type ProjectService interface {
	// Authorize succeeds only when caller is a member of projectID. Projects
	// the caller cannot see read as not found.
	Authorize(ctx context.Context, caller models.Caller, projectID string) error
}

type projectService struct {
	members repositories.MembershipRepository
}

func NewProjectService(members repositories.MembershipRepository) ProjectService {
	return &projectService{members: members}
}

func (s *projectService) Authorize(ctx context.Context, caller models.Caller, projectID string) error {
	const op = "ProjectService.Authorize"

	if caller.UserID == "" {
		return utils.E(utils.CodeUnauthorized, op, MsgUnauthorized, nil)
	}
	if strings.TrimSpace(projectID) == "" {
		return utils.E(utils.CodeInvalidArgument, op, MsgProjectRequired, nil)
	}
	if s.members == nil {
		return utils.E(utils.CodeUnavailable, op, MsgAccessCheckFailed, nil)
	}

	ok, err := s.members.IsMember(ctx, caller, projectID)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, MsgAccessCheckFailed, err)
	}
	if !ok {
		return utils.E(utils.CodeNotFound, op, MsgProjectNotFound, nil)
	}
	return nil
}
