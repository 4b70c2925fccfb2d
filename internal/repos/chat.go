package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type ChatRepo interface {
	// GetThread returns the thread or ErrNotFound. Messages are not loaded.
	GetThread(ctx context.Context, tx *gorm.DB, threadID string, teamID uuid.UUID) (*types.ChatThread, error)
	// EnsureThread creates the thread row if absent and returns it. Threads
	// are created implicitly on first reference.
	EnsureThread(ctx context.Context, tx *gorm.DB, threadID string, teamID uuid.UUID) (*types.ChatThread, error)
	ListThreads(ctx context.Context, tx *gorm.DB, teamID uuid.UUID, limit int) ([]*types.ChatThread, error)

	// ListMessages returns all thread messages in stable reload order:
	// created_at ascending, id as tiebreak.
	ListMessages(ctx context.Context, tx *gorm.DB, threadID string) ([]*types.ChatMessage, error)
	// ListMessagesAfter returns messages created strictly after the cutoff.
	ListMessagesAfter(ctx context.Context, tx *gorm.DB, threadID string, after time.Time) ([]*types.ChatMessage, error)

	// SaveMessage persists a message with the caller-supplied CreatedAt.
	// Saving an id that already exists is a no-op, which is what makes
	// comment reconciliation idempotent.
	SaveMessage(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) error

	UpdateTitle(ctx context.Context, tx *gorm.DB, threadID string, title string) error
	UpdateSummary(ctx context.Context, tx *gorm.DB, threadID string, summary string, lastSummaryAt time.Time) error
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: baseLog.With("repo", "ChatRepo")}
}

func (cr *chatRepo) GetThread(ctx context.Context, tx *gorm.DB, threadID string, teamID uuid.UUID) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.ChatThread
	if err := transaction.WithContext(ctx).
		Where("id = ? AND team_id = ?", threadID, teamID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (cr *chatRepo) EnsureThread(ctx context.Context, tx *gorm.DB, threadID string, teamID uuid.UUID) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	thread := &types.ChatThread{ID: threadID, TeamID: teamID}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(thread).Error; err != nil {
		return nil, err
	}
	return cr.GetThread(ctx, tx, threadID, teamID)
}

func (cr *chatRepo) ListThreads(ctx context.Context, tx *gorm.DB, teamID uuid.UUID, limit int) ([]*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.ChatThread
	q := transaction.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("updated_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) ListMessages(ctx context.Context, tx *gorm.DB, threadID string) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at asc, id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) ListMessagesAfter(ctx context.Context, tx *gorm.DB, threadID string, after time.Time) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("thread_id = ? AND created_at > ?", threadID, after).
		Order("created_at asc, id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) SaveMessage(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(msg).Error
}

func (cr *chatRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, threadID string, title string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ChatThread{}).
		Where("id = ?", threadID).
		Update("title", title).Error
}

func (cr *chatRepo) UpdateSummary(ctx context.Context, tx *gorm.DB, threadID string, summary string, lastSummaryAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ChatThread{}).
		Where("id = ?", threadID).
		Updates(map[string]any{
			"summary":         summary,
			"last_summary_at": lastSummaryAt,
		}).Error
}
