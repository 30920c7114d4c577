package editor

import (
	"context"

	"coursebuilder/internal/model"
)

// Remote is the durable block store the editor writes through to.
// Every lesson-scoped call carries the LessonRef of the session that issued it.
type Remote interface {
	LoadCourse(ctx context.Context, courseID string) (*model.Course, error)
	SaveBlocks(ctx context.Context, ref model.LessonRef, blocks []model.Block) ([]model.Block, error)
	ReorderBlocks(ctx context.Context, ref model.LessonRef, blockIDs []string) ([]model.Block, error)
	DuplicateBlock(ctx context.Context, ref model.LessonRef, blockID string) (model.Block, error)
	CreateBlock(ctx context.Context, ref model.LessonRef, skeleton model.BlockSkeleton) (model.Block, error)
}
