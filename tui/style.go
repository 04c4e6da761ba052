package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleStatusLocked = lipgloss.NewStyle().
				Background(lipgloss.Color("52")).
				Foreground(lipgloss.Color("231")).
				Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleDamage = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleBoss = lipgloss.NewStyle().
			Foreground(lipgloss.Color("171")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindReward
	kindDamage
	kindBoss
	kindSystem
	kindError
	kindTrace
)

var (
	rewardPrefixes = []string{"Quest complete", "Mission complete", "All daily missions", "LEVEL UP", "Achievement unlocked", "Research complete", "VICTORY"}
	damagePrefixes = []string{"The rival strikes", "LOCKDOWN", "YOU DIED", "Deadline missed", "Adrenaline", "In debt", "You were away", "Your streak"}
	bossPrefixes   = []string{"Boss ", "A boss"}
	errorPrefixes  = []string{"Blocked:", "Sorry,", "Usage:", "Error:", "unknown command"}
)

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// classifyLine picks the style of an output line from its leading words.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case hasAnyPrefix(line, errorPrefixes):
		return kindError
	case strings.Contains(line, " defeated!"), hasAnyPrefix(line, bossPrefixes):
		return kindBoss
	case hasAnyPrefix(line, rewardPrefixes), strings.Contains(line, " complete!"):
		return kindReward
	case hasAnyPrefix(line, damagePrefixes), strings.Contains(line, " broken at "):
		return kindDamage
	default:
		return kindNarrative
	}
}

func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindReward:
		return styleReward.Render(line)
	case kindDamage:
		return styleDamage.Render(line)
	case kindBoss:
		return styleBoss.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
