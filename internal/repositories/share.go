package repositories

import (
	"context"

	"github.com/yoockh/cinedesk/internal/models"
)

// ShareRepository resolves share tokens through the backend procedures that
// own the token to project binding.
type ShareRepository interface {
	// ProjectByToken returns utils.ErrNotFound when the token does not
	// resolve to a project.
	ProjectByToken(ctx context.Context, token string) (*models.SharedProject, error)
	FilesByToken(ctx context.Context, token string) ([]models.SharedFile, error)
}

// ProcedureNames names the backend procedures: the two share lookups with
// their token argument, and the project membership check.
type ProcedureNames struct {
	Resolve    string
	Files      string
	TokenParam string
	Member     string
}

func (n ProcedureNames) WithDefaults() ProcedureNames {
	if n.Resolve == "" {
		n.Resolve = "get_project_by_share_token"
	}
	if n.Files == "" {
		n.Files = "get_files_by_share_token"
	}
	if n.TokenParam == "" {
		n.TokenParam = "share_token"
	}
	if n.Member == "" {
		n.Member = "is_project_member"
	}
	return n
}
