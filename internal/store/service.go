package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// Service is the durable block store behind the HTTP API. Every write runs in
// one transaction and reuses the mutate operations, so stored lessons satisfy
// the same order invariant as the editor's in-memory list.
type Service struct {
	db      *gorm.DB
	courses CourseRepo
	blocks  BlockRepo
	log     *logger.Logger
	now     func() time.Time
}

func NewService(db *gorm.DB, baseLog *logger.Logger) *Service {
	baseLog = logger.OrNop(baseLog)
	return &Service{
		db:      db,
		courses: NewCourseRepo(db, baseLog),
		blocks:  NewBlockRepo(db, baseLog),
		log:     baseLog.With("service", "BlockStore"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListCourses(ctx context.Context) ([]model.CourseSummary, error) {
	rows, err := s.courses.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := make([]model.CourseSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.CourseSummary{ID: r.ID, Title: r.Title, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

// GetCourseTree loads a course with its modules, lessons and blocks, all in position order.
func (s *Service) GetCourseTree(ctx context.Context, courseID string) (*model.Course, error) {
	return s.courseTree(ctx, nil, strings.TrimSpace(courseID))
}

func (s *Service) courseTree(ctx context.Context, tx *gorm.DB, courseID string) (*model.Course, error) {
	row, err := s.courses.GetByID(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if row == nil {
		return nil, mutate.NotFoundError{Kind: "course", ID: courseID}
	}
	modules, err := s.courses.ListModules(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	lessons, err := s.courses.ListLessons(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	lessonIDs := make([]string, 0, len(lessons))
	for _, l := range lessons {
		lessonIDs = append(lessonIDs, l.ID)
	}
	blockRows, err := s.blocks.ListByLessons(ctx, tx, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	blocksByLesson := map[string][]model.Block{}
	for _, b := range blockRows {
		blocksByLesson[b.LessonID] = append(blocksByLesson[b.LessonID], b.toModel())
	}
	lessonsByModule := map[string][]model.Lesson{}
	for _, l := range lessons {
		bs := blocksByLesson[l.ID]
		if bs == nil {
			bs = []model.Block{}
		}
		lessonsByModule[l.ModuleID] = append(lessonsByModule[l.ModuleID], model.Lesson{
			ID:       l.ID,
			ModuleID: l.ModuleID,
			Title:    l.Title,
			Order:    l.Position,
			Blocks:   mutate.Renumber(bs),
		})
	}

	course := &model.Course{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Modules:     make([]model.Module, 0, len(modules)),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, m := range modules {
		ls := lessonsByModule[m.ID]
		if ls == nil {
			ls = []model.Lesson{}
		}
		course.Modules = append(course.Modules, model.Module{
			ID:       m.ID,
			CourseID: m.CourseID,
			Title:    m.Title,
			Order:    m.Position,
			Lessons:  ls,
		})
	}
	return course, nil
}

// CreateCourse stores a new course tree. Missing ids are minted; positions follow slice order.
func (s *Service) CreateCourse(ctx context.Context, in model.Course) (*model.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, mutate.InvariantViolationError{Op: "create course", Reason: "missing title"}
	}
	courseID, err := idOr(in.ID, model.PrefixCourse)
	if err != nil {
		return nil, err
	}
	now := s.now()
	course := &courseRow{ID: courseID, Title: title, Description: strings.TrimSpace(in.Description), CreatedAt: now, UpdatedAt: now}

	var (
		modules []*moduleRow
		lessons []*lessonRow
		blocks  = map[string][]*blockRow{}
	)
	for mi, m := range in.Modules {
		moduleID, err := idOr(m.ID, model.PrefixModule)
		if err != nil {
			return nil, err
		}
		modules = append(modules, &moduleRow{ID: moduleID, CourseID: courseID, Title: strings.TrimSpace(m.Title), Position: mi})
		for li, l := range m.Lessons {
			lessonID, err := idOr(l.ID, model.PrefixLesson)
			if err != nil {
				return nil, err
			}
			lessons = append(lessons, &lessonRow{ID: lessonID, CourseID: courseID, ModuleID: moduleID, Title: strings.TrimSpace(l.Title), Position: li})
			seq, err := buildSequence(l.Blocks, true)
			if err != nil {
				return nil, err
			}
			blocks[lessonID] = blockRowsFrom(lessonID, seq, now)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.courses.GetByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return mutate.InvariantViolationError{Op: "create course", Reason: "course " + courseID + " already exists"}
		}
		if err := s.courses.Create(ctx, tx, course, modules, lessons); err != nil {
			return err
		}
		for lessonID, rows := range blocks {
			if err := s.blocks.ReplaceLesson(ctx, tx, lessonID, rows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info("course created", "courseId", courseID, "modules", len(modules), "lessons", len(lessons))
	return s.GetCourseTree(ctx, courseID)
}

// ReplaceBlocks stores blocks as the lesson's complete list. Saving the same list
// twice leaves the same stored state.
func (s *Service) ReplaceBlocks(ctx context.Context, ref model.LessonRef, in []model.Block) ([]model.Block, error) {
	seq, err := buildSequence(in, false)
	if err != nil {
		return nil, err
	}
	err = s.inLesson(ctx, ref, func(tx *gorm.DB, lesson *lessonRow) error {
		return s.blocks.ReplaceLesson(ctx, tx, lesson.ID, blockRowsFrom(lesson.ID, seq, s.now()))
	})
	if err != nil {
		return nil, err
	}
	return seq, nil
}

// ReorderBlocks rewrites positions; blockIDs must be a permutation of the stored ids.
func (s *Service) ReorderBlocks(ctx context.Context, ref model.LessonRef, blockIDs []string) ([]model.Block, error) {
	var out []model.Block
	err := s.inLesson(ctx, ref, func(tx *gorm.DB, lesson *lessonRow) error {
		current, err := s.lessonBlocks(ctx, tx, lesson.ID)
		if err != nil {
			return err
		}
		next, err := mutate.Reorder(current, blockIDs)
		if err != nil {
			return err
		}
		if err := s.blocks.UpdatePositions(ctx, tx, lesson.ID, mutate.IDs(next)); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DuplicateBlock copies blockID under a new id directly after the source.
func (s *Service) DuplicateBlock(ctx context.Context, ref model.LessonRef, blockID string) (model.Block, error) {
	var created model.Block
	err := s.inLesson(ctx, ref, func(tx *gorm.DB, lesson *lessonRow) error {
		current, err := s.lessonBlocks(ctx, tx, lesson.ID)
		if err != nil {
			return err
		}
		newID, err := model.NewID(model.PrefixBlock)
		if err != nil {
			return err
		}
		next, err := mutate.Duplicate(current, blockID, newID)
		if err != nil {
			return err
		}
		if err := s.blocks.ReplaceLesson(ctx, tx, lesson.ID, blockRowsFrom(lesson.ID, next, s.now())); err != nil {
			return err
		}
		created = next[mutate.Index(next, newID)]
		return nil
	})
	return created, err
}

// CreateBlock appends a block built from skeleton with a freshly minted id.
func (s *Service) CreateBlock(ctx context.Context, ref model.LessonRef, sk model.BlockSkeleton) (model.Block, error) {
	if !sk.Type.Valid() {
		return model.Block{}, mutate.InvariantViolationError{Op: "create block", Reason: fmt.Sprintf("unknown block type %q", sk.Type)}
	}
	var created model.Block
	err := s.inLesson(ctx, ref, func(tx *gorm.DB, lesson *lessonRow) error {
		current, err := s.lessonBlocks(ctx, tx, lesson.ID)
		if err != nil {
			return err
		}
		newID, err := model.NewID(model.PrefixBlock)
		if err != nil {
			return err
		}
		next, err := mutate.Add(current, model.Block{ID: newID, Type: sk.Type, Content: sk.Content})
		if err != nil {
			return err
		}
		if err := s.blocks.ReplaceLesson(ctx, tx, lesson.ID, blockRowsFrom(lesson.ID, next, s.now())); err != nil {
			return err
		}
		created = next[len(next)-1]
		return nil
	})
	return created, err
}

// inLesson resolves ref inside a transaction and bumps the course's updated_at after fn.
func (s *Service) inLesson(ctx context.Context, ref model.LessonRef, fn func(tx *gorm.DB, lesson *lessonRow) error) error {
	courseID := strings.TrimSpace(ref.CourseID)
	lessonID := strings.TrimSpace(ref.LessonID)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lesson, err := s.courses.GetLesson(ctx, tx, courseID, strings.TrimSpace(ref.ModuleID), lessonID)
		if err != nil {
			return err
		}
		if lesson == nil {
			return mutate.NotFoundError{Kind: "lesson", ID: lessonID}
		}
		if err := fn(tx, lesson); err != nil {
			return err
		}
		return s.courses.Touch(ctx, tx, courseID)
	})
}

func (s *Service) lessonBlocks(ctx context.Context, tx *gorm.DB, lessonID string) ([]model.Block, error) {
	rows, err := s.blocks.ListByLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Block, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return mutate.Renumber(out), nil
}

// buildSequence validates a client-supplied list (ids unique, types known) and
// renumbers it by position. mintIDs fills in blank ids instead of rejecting them.
func buildSequence(in []model.Block, mintIDs bool) ([]model.Block, error) {
	seq := []model.Block{}
	for _, b := range in {
		if strings.TrimSpace(b.ID) == "" && mintIDs {
			id, err := model.NewID(model.PrefixBlock)
			if err != nil {
				return nil, err
			}
			b.ID = id
		}
		next, err := mutate.Add(seq, b)
		if err != nil {
			return nil, err
		}
		seq = next
	}
	return seq, nil
}

func idOr(id, prefix string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}
	return model.NewID(prefix)
}
