package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/repositories"
	"github.com/yoockh/cinedesk/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// procedure names are interpolated into SQL, so only plain (optionally
// schema-qualified) identifiers are accepted.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type shareRepo struct {
	db    *gorm.DB
	names repositories.ProcedureNames
}

// NewShareRepo calls the share procedures directly over a Postgres
// connection instead of the PostgREST gateway.
func NewShareRepo(db *gorm.DB, names repositories.ProcedureNames) (repositories.ShareRepository, error) {
	names = names.WithDefaults()
	for _, fn := range []string{names.Resolve, names.Files} {
		if !identRe.MatchString(fn) {
			return nil, fmt.Errorf("postgres: invalid procedure name %q", fn)
		}
	}
	return &shareRepo{db: db, names: names}, nil
}

type fileRow struct {
	Entry datatypes.JSON `gorm:"column:entry"`
}

func (r *shareRepo) projectQuery(tx *gorm.DB, token string, dst *[]models.SharedProject) *gorm.DB {
	return tx.Raw(
		fmt.Sprintf(`SELECT p.id::text AS id, p.name AS name FROM %s(?) AS p WHERE p.id IS NOT NULL LIMIT 1`, r.names.Resolve),
		token,
	).Scan(dst)
}

func (r *shareRepo) filesQuery(tx *gorm.DB, token string, dst *[]fileRow) *gorm.DB {
	return tx.Raw(
		fmt.Sprintf(`SELECT to_jsonb(f) AS entry FROM %s(?) AS f`, r.names.Files),
		token,
	).Scan(dst)
}

func (r *shareRepo) ProjectByToken(ctx context.Context, token string) (*models.SharedProject, error) {
	var rows []models.SharedProject
	if err := r.projectQuery(r.db.WithContext(ctx), token, &rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, utils.ErrNotFound
	}
	return &rows[0], nil
}

func (r *shareRepo) FilesByToken(ctx context.Context, token string) ([]models.SharedFile, error) {
	var rows []fileRow
	if err := r.filesQuery(r.db.WithContext(ctx), token, &rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.SharedFile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Entry)
	}
	return out, nil
}
