// Package styles contains Lip Gloss style definitions.
package styles

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ThemeConfig mirrors config.ThemeConfig to avoid circular imports.
type ThemeConfig struct {
	Mode   string
	Colors map[string]string
}

// ApplyTheme applies a complete theme configuration.
// Order of application:
// 1. Validate and apply individual color overrides
// 2. Rebuild all Style objects
func ApplyTheme(cfg ThemeConfig) error {
	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !isValidToken(token) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
	}

	applyColors(cfg.Colors)
	rebuildStyles()
	return nil
}

func applyColors(colors map[string]string) {
	// Helper to create adaptive color (uses same color for both modes)
	makeColor := func(hex string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
	}

	// Text hierarchy
	if c, ok := colors[string(TokenTextPrimary)]; ok {
		TextPrimaryColor = makeColor(c)
	}
	if c, ok := colors[string(TokenTextSecondary)]; ok {
		TextSecondaryColor = makeColor(c)
	}
	if c, ok := colors[string(TokenTextMuted)]; ok {
		TextMutedColor = makeColor(c)
	}
	if c, ok := colors[string(TokenTextPlaceholder)]; ok {
		TextPlaceholderColor = makeColor(c)
	}

	// Borders
	if c, ok := colors[string(TokenBorderDefault)]; ok {
		BorderDefaultColor = makeColor(c)
	}
	if c, ok := colors[string(TokenBorderHighlight)]; ok {
		BorderHighlightFocusColor = makeColor(c)
	}

	// Status
	if c, ok := colors[string(TokenStatusSuccess)]; ok {
		StatusSuccessColor = makeColor(c)
	}
	if c, ok := colors[string(TokenStatusWarning)]; ok {
		StatusWarningColor = makeColor(c)
	}
	if c, ok := colors[string(TokenStatusError)]; ok {
		StatusErrorColor = makeColor(c)
	}

	// Selection
	if c, ok := colors[string(TokenSelectionIndicator)]; ok {
		SelectionIndicatorColor = makeColor(c)
	}

	// Overlays
	if c, ok := colors[string(TokenOverlayTitle)]; ok {
		OverlayTitleColor = makeColor(c)
	}
	if c, ok := colors[string(TokenOverlayBorder)]; ok {
		OverlayBorderColor = makeColor(c)
	}

	// Constraint kinds
	if c, ok := colors[string(TokenKindExact)]; ok {
		KindExactColor = makeColor(c)
	}
	if c, ok := colors[string(TokenKindAssignable)]; ok {
		KindAssignableColor = makeColor(c)
	}
	if c, ok := colors[string(TokenKindPredicate)]; ok {
		KindPredicateColor = makeColor(c)
	}
}

// rebuildStyles recreates all Style objects with updated colors.
// This is necessary because lipgloss.Style objects capture colors at creation time.
func rebuildStyles() {
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	KindExactStyle = lipgloss.NewStyle().Foreground(KindExactColor)
	KindAssignableStyle = lipgloss.NewStyle().Foreground(KindAssignableColor)
	KindPredicateStyle = lipgloss.NewStyle().Foreground(KindPredicateColor)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(TextSecondaryColor).
		Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(StatusErrorColor).
		Bold(true).
		Padding(1, 2)
}

func isValidToken(token ColorToken) bool {
	return slices.Contains(AllTokens(), token)
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}
