package store

import (
	"time"

	"gorm.io/datatypes"

	"coursebuilder/internal/model"
)

type courseRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Title       string `gorm:"not null"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (courseRow) TableName() string { return "course" }

type moduleRow struct {
	ID       string `gorm:"primaryKey;size:64"`
	CourseID string `gorm:"size:64;not null;index"`
	Title    string `gorm:"not null"`
	Position int    `gorm:"not null"`
}

func (moduleRow) TableName() string { return "course_module" }

type lessonRow struct {
	ID       string `gorm:"primaryKey;size:64"`
	CourseID string `gorm:"size:64;not null;index"`
	ModuleID string `gorm:"size:64;not null;index"`
	Title    string `gorm:"not null"`
	Position int    `gorm:"not null"`
}

func (lessonRow) TableName() string { return "lesson" }

// blockRow ids are unique per lesson, not globally.
type blockRow struct {
	LessonID  string         `gorm:"primaryKey;size:64"`
	ID        string         `gorm:"primaryKey;size:64"`
	Type      string         `gorm:"size:32;not null"`
	Position  int            `gorm:"not null;index"`
	Content   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (blockRow) TableName() string { return "lesson_block" }

func (r blockRow) toModel() model.Block {
	return model.Block{
		ID:      r.ID,
		Type:    model.BlockType(r.Type),
		Order:   r.Position,
		Content: model.NormalizeContent([]byte(r.Content)),
	}
}

func blockRowsFrom(lessonID string, seq []model.Block, now time.Time) []*blockRow {
	out := make([]*blockRow, 0, len(seq))
	for i, b := range seq {
		out = append(out, &blockRow{
			LessonID:  lessonID,
			ID:        b.ID,
			Type:      string(b.Type),
			Position:  i,
			Content:   datatypes.JSON(model.NormalizeContent(b.Content)),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}
