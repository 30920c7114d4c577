package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type BlockType string

const (
	BlockText    BlockType = "text"
	BlockHeading BlockType = "heading"
	BlockImage   BlockType = "image"
	BlockVideo   BlockType = "video"
	BlockCode    BlockType = "code"
	BlockQuiz    BlockType = "quiz"
	BlockCallout BlockType = "callout"
	BlockDivider BlockType = "divider"
	BlockEmbed   BlockType = "embed"
)

// BlockTypes returns the closed set of block kinds in display order.
func BlockTypes() []BlockType {
	return []BlockType{
		BlockText,
		BlockHeading,
		BlockImage,
		BlockVideo,
		BlockCode,
		BlockQuiz,
		BlockCallout,
		BlockDivider,
		BlockEmbed,
	}
}

func (t BlockType) Valid() bool {
	for _, k := range BlockTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// Block is one addressable unit of lesson content.
// Order mirrors the block's index in its lesson; Content is kind-specific and opaque here.
type Block struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Order   int             `json:"order"`
	Content json.RawMessage `json:"content"`
}

// BlockSkeleton is an externally suggested block (e.g. from an outline generator)
// that has not been persisted yet and therefore has no id.
type BlockSkeleton struct {
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

type Lesson struct {
	ID       string  `json:"id"`
	ModuleID string  `json:"moduleId"`
	Title    string  `json:"title"`
	Order    int     `json:"order"`
	Blocks   []Block `json:"blocks"`
}

type Module struct {
	ID       string   `json:"id"`
	CourseID string   `json:"courseId"`
	Title    string   `json:"title"`
	Order    int      `json:"order"`
	Lessons  []Lesson `json:"lessons"`
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Modules     []Module  `json:"modules"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CourseSummary is the list view of a course (no tree).
type CourseSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LessonRef addresses one lesson's block list on the remote store.
type LessonRef struct {
	CourseID string `json:"courseId"`
	ModuleID string `json:"moduleId"`
	LessonID string `json:"lessonId"`
}

func (r LessonRef) Valid() bool {
	return strings.TrimSpace(r.CourseID) != "" &&
		strings.TrimSpace(r.ModuleID) != "" &&
		strings.TrimSpace(r.LessonID) != ""
}

// FindLesson locates a lesson and its owning module in the course tree.
func (c *Course) FindLesson(lessonID string) (*Lesson, *Module, bool) {
	if c == nil {
		return nil, nil, false
	}
	lessonID = strings.TrimSpace(lessonID)
	for mi := range c.Modules {
		m := &c.Modules[mi]
		for li := range m.Lessons {
			if m.Lessons[li].ID == lessonID {
				return &m.Lessons[li], m, true
			}
		}
	}
	return nil, nil, false
}

// LessonRef builds the remote address for a lesson of this course.
func (c *Course) LessonRef(lessonID string) (LessonRef, bool) {
	l, m, ok := c.FindLesson(lessonID)
	if !ok {
		return LessonRef{}, false
	}
	return LessonRef{CourseID: c.ID, ModuleID: m.ID, LessonID: l.ID}, true
}

// FirstLesson returns the first lesson in module/lesson order, if any.
func (c *Course) FirstLesson() (*Lesson, bool) {
	if c == nil {
		return nil, false
	}
	for mi := range c.Modules {
		if len(c.Modules[mi].Lessons) > 0 {
			return &c.Modules[mi].Lessons[0], true
		}
	}
	return nil, false
}

// EmptyContent is the canonical payload for blocks without content.
var EmptyContent = json.RawMessage(`{}`)

// NormalizeContent returns a compact copy of raw, or EmptyContent when raw is blank.
func NormalizeContent(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return append(json.RawMessage{}, EmptyContent...)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return append(json.RawMessage{}, trimmed...)
	}
	return json.RawMessage(buf.Bytes())
}

// Text returns the "text" field of a text-like block's content ("" when absent).
func (b Block) Text() string {
	var v struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b.Content, &v); err != nil {
		return ""
	}
	return v.Text
}

// WithText returns a copy of content with its "text" field replaced.
// Other fields of an object payload are preserved.
func WithText(content json.RawMessage, text string) json.RawMessage {
	m := map[string]any{}
	if len(bytes.TrimSpace(content)) > 0 {
		_ = json.Unmarshal(content, &m)
		if m == nil {
			m = map[string]any{}
		}
	}
	m["text"] = text
	b, err := json.Marshal(m)
	if err != nil {
		return append(json.RawMessage{}, EmptyContent...)
	}
	return b
}

// Summary is a single-line description of the block used by listings.
func (b Block) Summary() string {
	if t := strings.TrimSpace(b.Text()); t != "" {
		if i := strings.IndexByte(t, '\n'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	var m map[string]any
	if err := json.Unmarshal(b.Content, &m); err == nil {
		for _, k := range []string{"title", "url", "question", "language"} {
			if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// PlaceholderContent is the default payload for a freshly added block of kind t.
func PlaceholderContent(t BlockType) json.RawMessage {
	switch t {
	case BlockText, BlockCallout:
		return json.RawMessage(`{"text":""}`)
	case BlockHeading:
		return json.RawMessage(`{"level":2,"text":""}`)
	case BlockImage:
		return json.RawMessage(`{"alt":"","url":""}`)
	case BlockVideo, BlockEmbed:
		return json.RawMessage(`{"url":""}`)
	case BlockCode:
		return json.RawMessage(`{"language":"","text":""}`)
	case BlockQuiz:
		return json.RawMessage(`{"choices":[],"question":""}`)
	default:
		return append(json.RawMessage{}, EmptyContent...)
	}
}
