package store

import (
	"context"

	"gorm.io/gorm"

	"coursebuilder/internal/logger"
)

type BlockRepo interface {
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*blockRow, error)
	ListByLessons(ctx context.Context, tx *gorm.DB, lessonIDs []string) ([]*blockRow, error)
	// ReplaceLesson swaps the lesson's whole block list for rows.
	ReplaceLesson(ctx context.Context, tx *gorm.DB, lessonID string, rows []*blockRow) error
	UpdatePositions(ctx context.Context, tx *gorm.DB, lessonID string, orderedIDs []string) error
}

type blockRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlockRepo(db *gorm.DB, baseLog *logger.Logger) BlockRepo {
	return &blockRepo{db: db, log: logger.OrNop(baseLog).With("repo", "BlockRepo")}
}

func (r *blockRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*blockRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*blockRow
	if err := t.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *blockRepo) ListByLessons(ctx context.Context, tx *gorm.DB, lessonIDs []string) ([]*blockRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*blockRow
	if len(lessonIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("lesson_id IN ?", lessonIDs).
		Order("lesson_id").
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *blockRepo) ReplaceLesson(ctx context.Context, tx *gorm.DB, lessonID string, rows []*blockRow) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Where("lesson_id = ?", lessonID).Delete(&blockRow{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *blockRepo) UpdatePositions(ctx context.Context, tx *gorm.DB, lessonID string, orderedIDs []string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	for i, id := range orderedIDs {
		if err := t.WithContext(ctx).
			Model(&blockRow{}).
			Where("lesson_id = ? AND id = ?", lessonID, id).
			Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
