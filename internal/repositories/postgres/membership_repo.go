package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/repositories"
	"gorm.io/gorm"
)

type membershipRepo struct {
	db *gorm.DB
	fn string
}

// NewMembershipRepo runs the member procedure inside a transaction that
// assumes the Supabase "authenticated" role with the caller's claims, so
// auth.uid() and row-level security behave as they do behind PostgREST.
func NewMembershipRepo(db *gorm.DB, names repositories.ProcedureNames) (repositories.MembershipRepository, error) {
	fn := names.WithDefaults().Member
	if !identRe.MatchString(fn) {
		return nil, fmt.Errorf("postgres: invalid procedure name %q", fn)
	}
	return &membershipRepo{db: db, fn: fn}, nil
}

func (r *membershipRepo) impersonate(tx *gorm.DB, userID string) *gorm.DB {
	claims, _ := json.Marshal(map[string]string{"sub": userID, "role": "authenticated"})
	return tx.Exec(`SELECT set_config('request.jwt.claims', ?, true)`, string(claims))
}

func (r *membershipRepo) memberQuery(tx *gorm.DB, projectID string, dst *bool) *gorm.DB {
	return tx.Raw(fmt.Sprintf(`SELECT COALESCE(%s(?), false) AS member`, r.fn), projectID).Scan(dst)
}

func (r *membershipRepo) IsMember(ctx context.Context, caller models.Caller, projectID string) (bool, error) {
	if caller.UserID == "" || projectID == "" {
		return false, nil
	}

	var member bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.impersonate(tx, caller.UserID).Error; err != nil {
			return err
		}
		if err := tx.Exec(`SET LOCAL ROLE authenticated`).Error; err != nil {
			return err
		}
		return r.memberQuery(tx, projectID, &member).Error
	})
	if err != nil {
		return false, err
	}
	return member, nil
}
