package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type ActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activities []*types.Activity) ([]*types.Activity, error)
	GetByID(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) (*types.Activity, error)
	// ListByGroup returns the oldest activities of the given type in a group,
	// capped at limit. Ordered by creation time ascending.
	ListByGroup(ctx context.Context, tx *gorm.DB, groupID, teamID uuid.UUID, activityType string, limit int) ([]*types.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (ar *activityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.Activity) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(activities) == 0 {
		return []*types.Activity{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (ar *activityRepo) GetByID(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) (*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.Activity
	if err := transaction.WithContext(ctx).
		Where("id = ?", activityID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (ar *activityRepo) ListByGroup(ctx context.Context, tx *gorm.DB, groupID, teamID uuid.UUID, activityType string, limit int) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Activity
	q := transaction.WithContext(ctx).
		Where("group_id = ? AND team_id = ? AND type = ?", groupID, teamID, activityType).
		Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
