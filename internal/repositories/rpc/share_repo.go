package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/repositories"
	"github.com/yoockh/cinedesk/internal/utils"
)

// Caller is satisfied by *supabase.Client.
type Caller interface {
	RPC(ctx context.Context, fn string, params any, out any) error
}

type shareRepo struct {
	rpc   Caller
	names repositories.ProcedureNames
}

func NewShareRepo(rpc Caller, names repositories.ProcedureNames) repositories.ShareRepository {
	return &shareRepo{rpc: rpc, names: names.WithDefaults()}
}

// projectRow tolerates numeric and uuid ids.
type projectRow struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
}

func (r *shareRepo) ProjectByToken(ctx context.Context, token string) (*models.SharedProject, error) {
	var raw json.RawMessage
	if err := r.rpc.RPC(ctx, r.names.Resolve, r.params(token), &raw); err != nil {
		return nil, err
	}

	row, err := firstRow(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.names.Resolve, err)
	}
	if row == nil {
		return nil, utils.ErrNotFound
	}

	id := idString(row.ID)
	// composite-returning functions yield {"id":null,...} instead of no row
	if id == "" {
		return nil, utils.ErrNotFound
	}
	return &models.SharedProject{ID: id, Name: row.Name}, nil
}

func (r *shareRepo) FilesByToken(ctx context.Context, token string) ([]models.SharedFile, error) {
	var rows []json.RawMessage
	if err := r.rpc.RPC(ctx, r.names.Files, r.params(token), &rows); err != nil {
		return nil, err
	}

	out := make([]models.SharedFile, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.SharedFile(row))
	}
	return out, nil
}

func (r *shareRepo) params(token string) map[string]string {
	return map[string]string{r.names.TokenParam: token}
}

// firstRow accepts an object, an array of objects (set-returning function)
// or null.
func firstRow(raw json.RawMessage) (*projectRow, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var rows []projectRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	}

	var row projectRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}
