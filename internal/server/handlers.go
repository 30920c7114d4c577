package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coursebuilder/internal/model"
)

// BlockStore is the persistence surface the API serves. *store.Service implements it.
type BlockStore interface {
	ListCourses(ctx context.Context) ([]model.CourseSummary, error)
	CreateCourse(ctx context.Context, in model.Course) (*model.Course, error)
	GetCourseTree(ctx context.Context, courseID string) (*model.Course, error)
	ReplaceBlocks(ctx context.Context, ref model.LessonRef, blocks []model.Block) ([]model.Block, error)
	ReorderBlocks(ctx context.Context, ref model.LessonRef, blockIDs []string) ([]model.Block, error)
	DuplicateBlock(ctx context.Context, ref model.LessonRef, blockID string) (model.Block, error)
	CreateBlock(ctx context.Context, ref model.LessonRef, sk model.BlockSkeleton) (model.Block, error)
}

type CourseHandler struct {
	store BlockStore
}

func NewCourseHandler(store BlockStore) *CourseHandler {
	return &CourseHandler{store: store}
}

// GET /courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.store.ListCourses(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

type createCourseRequest struct {
	Course *model.Course `json:"course"`
}

// POST /courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Course == nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("missing course"))
		return
	}
	course, err := h.store.CreateCourse(c.Request.Context(), *req.Course)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// GET /courses/:courseId/edit
func (h *CourseHandler) Edit(c *gin.Context) {
	course, err := h.store.GetCourseTree(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"course": course})
}

type BlockHandler struct {
	store BlockStore
}

func NewBlockHandler(store BlockStore) *BlockHandler {
	return &BlockHandler{store: store}
}

type saveBlocksRequest struct {
	Blocks *[]model.Block `json:"blocks"`
}

// PUT /courses/:courseId/modules/:moduleId/lessons/:lessonId/blocks
func (h *BlockHandler) Save(c *gin.Context) {
	var req saveBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Blocks == nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("missing blocks"))
		return
	}
	blocks, err := h.store.ReplaceBlocks(c.Request.Context(), lessonRef(c), *req.Blocks)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"blocks": blocks})
}

type reorderRequest struct {
	BlockIDs []string `json:"blockIds"`
}

// PATCH /courses/:courseId/lessons/:lessonId/blocks/reorder
func (h *BlockHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	blocks, err := h.store.ReorderBlocks(c.Request.Context(), lessonRef(c), req.BlockIDs)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"blocks": blocks})
}

// POST /courses/:courseId/lessons/:lessonId/blocks/:blockId/duplicate
func (h *BlockHandler) Duplicate(c *gin.Context) {
	block, err := h.store.DuplicateBlock(c.Request.Context(), lessonRef(c), c.Param("blockId"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"block": block})
}

type createBlockRequest struct {
	Block *model.BlockSkeleton `json:"block"`
}

// POST /courses/:courseId/lessons/:lessonId/blocks
func (h *BlockHandler) Create(c *gin.Context) {
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Block == nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("missing block"))
		return
	}
	block, err := h.store.CreateBlock(c.Request.Context(), lessonRef(c), *req.Block)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"block": block})
}

// lessonRef reads the lesson path params. Routes without :moduleId leave it blank.
func lessonRef(c *gin.Context) model.LessonRef {
	return model.LessonRef{
		CourseID: strings.TrimSpace(c.Param("courseId")),
		ModuleID: strings.TrimSpace(c.Param("moduleId")),
		LessonID: strings.TrimSpace(c.Param("lessonId")),
	}
}
