package rpc

import (
	"context"

	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/repositories"
)

// UserCaller is satisfied by *supabase.Client.
type UserCaller interface {
	RPCAs(ctx context.Context, accessToken, fn string, params any, out any) error
}

type membershipRepo struct {
	rpc UserCaller
	fn  string
}

// NewMembershipRepo checks membership through PostgREST with the caller's
// own token, so the procedure sees auth.uid() and row-level security.
func NewMembershipRepo(rpc UserCaller, names repositories.ProcedureNames) repositories.MembershipRepository {
	return &membershipRepo{rpc: rpc, fn: names.WithDefaults().Member}
}

func (r *membershipRepo) IsMember(ctx context.Context, caller models.Caller, projectID string) (bool, error) {
	if caller.AccessToken == "" || projectID == "" {
		return false, nil
	}

	var member *bool
	params := map[string]string{repositories.MemberProjectParam: projectID}
	if err := r.rpc.RPCAs(ctx, caller.AccessToken, r.fn, params, &member); err != nil {
		return false, err
	}
	return member != nil && *member, nil
}
