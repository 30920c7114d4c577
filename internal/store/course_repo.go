package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"coursebuilder/internal/logger"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *courseRow, modules []*moduleRow, lessons []*lessonRow) error
	List(ctx context.Context, tx *gorm.DB) ([]*courseRow, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*courseRow, error)
	ListModules(ctx context.Context, tx *gorm.DB, courseID string) ([]*moduleRow, error)
	ListLessons(ctx context.Context, tx *gorm.DB, courseID string) ([]*lessonRow, error)
	// GetLesson returns the lesson only when it belongs to courseID (and moduleID, when set).
	GetLesson(ctx context.Context, tx *gorm.DB, courseID, moduleID, lessonID string) (*lessonRow, error)
	Touch(ctx context.Context, tx *gorm.DB, courseID string) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: logger.OrNop(baseLog).With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *courseRow, modules []*moduleRow, lessons []*lessonRow) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(course).Error; err != nil {
		return err
	}
	if len(modules) > 0 {
		if err := t.WithContext(ctx).Create(&modules).Error; err != nil {
			return err
		}
	}
	if len(lessons) > 0 {
		if err := t.WithContext(ctx).Create(&lessons).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB) ([]*courseRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*courseRow
	if err := t.WithContext(ctx).Order("updated_at DESC").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*courseRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row courseRow
	if err := t.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *courseRepo) ListModules(ctx context.Context, tx *gorm.DB, courseID string) ([]*moduleRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*moduleRow
	if err := t.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListLessons(ctx context.Context, tx *gorm.DB, courseID string) ([]*lessonRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*lessonRow
	if err := t.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("module_id").
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) GetLesson(ctx context.Context, tx *gorm.DB, courseID, moduleID, lessonID string) (*lessonRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Where("id = ? AND course_id = ?", lessonID, courseID)
	if moduleID != "" {
		q = q.Where("module_id = ?", moduleID)
	}
	var row lessonRow
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *courseRepo) Touch(ctx context.Context, tx *gorm.DB, courseID string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&courseRow{}).
		Where("id = ?", courseID).
		Update("updated_at", time.Now().UTC()).Error
}
