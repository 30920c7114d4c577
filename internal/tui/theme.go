package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Adaptive colors keep the editor readable on light and dark
// terminals; faint styling is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      = ac("240", "243")
	colorChromeFg   = ac("240", "245")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorSurfaceFg  = ac("235", "252")
	colorControlBg  = ac("252", "235")
	colorAccent     = ac("27", "62")
	colorMarked     = ac("130", "214")

	colorSuccessFg = ac("28", "114")
	colorErrorFg   = ac("160", "203")
	colorInfoFg    = ac("25", "111")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleChrome() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleSelectedRow() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
}

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSurfaceFg).Bold(true)
}

func styleBadge() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorAccent)
}

func styleMarked() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMarked).Bold(true)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
// termenv.EnvColorProfile honors CLICOLOR, which can switch colors off inside a TUI,
// so only NO_COLOR is respected and TERM/COLORTERM may upgrade the detected profile.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) COURSEBUILDER_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg")
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("COURSEBUILDER_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
