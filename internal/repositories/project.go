package repositories

import (
	"context"

	"github.com/yoockh/cinedesk/internal/models"
)

// MembershipRepository asks the backend whether a caller may see a project.
// The answer comes from the member procedure evaluated as the caller.
type MembershipRepository interface {
	IsMember(ctx context.Context, caller models.Caller, projectID string) (bool, error)
}

// MemberProjectParam is the argument name of the member procedure.
const MemberProjectParam = "project_id"
