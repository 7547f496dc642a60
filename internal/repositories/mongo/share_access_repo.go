package mongo

import (
	"context"
	"time"

	"github.com/yoockh/cinedesk/config"
	"github.com/yoockh/cinedesk/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ShareAccessRepository interface {
	Insert(ctx context.Context, a *models.ShareAccess) error
	ListByProject(ctx context.Context, projectID string, limit int64) ([]models.ShareAccess, error)
}

type shareAccessRepo struct {
	col *mongo.Collection
}

func NewShareAccessRepo(db *mongo.Database) ShareAccessRepository {
	return &shareAccessRepo{col: db.Collection(config.ShareAccessCollection)}
}

func (r *shareAccessRepo) Insert(ctx context.Context, a *models.ShareAccess) error {
	if a.AccessedAt.IsZero() {
		a.AccessedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, a)
	return err
}

func (r *shareAccessRepo) ListByProject(ctx context.Context, projectID string, limit int64) ([]models.ShareAccess, error) {
	if limit <= 0 {
		limit = 100
	}

	cur, err := r.col.Find(ctx,
		bson.M{"project_id": projectID},
		options.Find().
			SetSort(bson.D{{Key: "accessed_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ShareAccess
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
