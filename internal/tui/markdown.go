package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"coursebuilder/internal/model"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached per style and wrap width. WithAutoStyle can block on
	// terminal background queries, so a fixed style is picked up front.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := fmt.Sprintf("%s:%d", style, width)
	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("COURSEBUILDER_TUI_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(styleName string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if styleName == "light" {
		cfg = styles.LightStyleConfig
	}
	heading := mdColor(colorSurfaceFg, styleName)
	cfg.Heading.Color = heading
	cfg.H1.Color = heading
	cfg.H2.Color = heading
	cfg.H3.Color = heading
	link := mdColor(colorAccent, styleName)
	cfg.Link.Color = link
	cfg.LinkText.Color = link
	cfg.Text.Color = mdColor(colorSurfaceFg, styleName)
	cfg.BlockQuote.Faint = mdBoolPtr(false)
	return cfg
}

func mdColor(c lipgloss.AdaptiveColor, styleName string) *string {
	if styleName == "light" {
		return mdStrPtr(c.Light)
	}
	return mdStrPtr(c.Dark)
}

func mdStrPtr(s string) *string { return &s }
func mdBoolPtr(b bool) *bool    { return &b }

// lessonMarkdown renders a lesson's blocks the way a learner would read them.
func lessonMarkdown(title string, blocks []model.Block) string {
	var sb strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		sb.WriteString("# " + title + "\n\n")
	}
	for _, b := range blocks {
		if md := blockMarkdown(b); md != "" {
			sb.WriteString(md)
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func blockMarkdown(b model.Block) string {
	var c struct {
		Text     string   `json:"text"`
		Level    int      `json:"level"`
		Language string   `json:"language"`
		URL      string   `json:"url"`
		Alt      string   `json:"alt"`
		Question string   `json:"question"`
		Choices  []string `json:"choices"`
	}
	_ = json.Unmarshal(b.Content, &c)
	text := strings.TrimSpace(c.Text)

	switch b.Type {
	case model.BlockHeading:
		level := c.Level
		if level < 1 || level > 6 {
			level = 2
		}
		if text == "" {
			return ""
		}
		return strings.Repeat("#", level) + " " + text
	case model.BlockCode:
		return "```" + c.Language + "\n" + c.Text + "\n```"
	case model.BlockCallout:
		if text == "" {
			return ""
		}
		return "> " + strings.ReplaceAll(text, "\n", "\n> ")
	case model.BlockImage:
		if c.URL == "" {
			return ""
		}
		return fmt.Sprintf("![%s](%s)", c.Alt, c.URL)
	case model.BlockVideo, model.BlockEmbed:
		if c.URL == "" {
			return ""
		}
		return fmt.Sprintf("[%s](%s)", string(b.Type), c.URL)
	case model.BlockQuiz:
		var sb strings.Builder
		sb.WriteString("**Quiz:** " + strings.TrimSpace(c.Question))
		for _, ch := range c.Choices {
			sb.WriteString("\n- " + ch)
		}
		return sb.String()
	case model.BlockDivider:
		return "---"
	default:
		return text
	}
}
