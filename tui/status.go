package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nathoo/questrun/engine/lockdown"
	"github.com/nathoo/questrun/types"
)

// missionProgress counts completed daily missions.
func missionProgress(s *types.RunState) (done, total int) {
	for _, m := range s.DailyMissions {
		if m.Completed {
			done++
		}
	}
	return done, len(s.DailyMissions)
}

// statusParts builds the left and right halves of the status bar. The right
// half shrinks to fit narrow terminals.
func statusParts(s *types.RunState, now time.Time, width int) (left, right string) {
	left = fmt.Sprintf(" HP %d/%d | Gold %d | Lv %d (%d/%d) | %s",
		s.HP, s.MaxHP, s.Gold, s.Level, s.XP, s.XPReq, s.DailyModifier.Name)

	if lockdown.Locked(s, now) {
		return left, fmt.Sprintf("LOCKDOWN %s | Zen %d/%d ",
			lockdown.Remaining(s, now).Round(time.Minute), s.MeditationCycles, lockdown.CyclesPerRelease)
	}

	done, total := missionProgress(s)
	right = fmt.Sprintf("Missions %d/%d ", done, total)
	full := fmt.Sprintf("Streak %d | Rival %d | %s", s.Streak.Current, s.RivalDamage, right)
	if lipgloss.Width(left)+lipgloss.Width(full)+2 < width {
		right = full
	}
	return left, right
}

// renderStatusBar produces a full-width inverted status line. It turns red
// while a lockdown holds.
func (m Model) renderStatusBar() string {
	if m.snap == nil {
		return styleStatusBar.Width(m.width).Render(" loading run...")
	}
	now := m.engine.Now()
	left, right := statusParts(m.snap, now, m.width)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right

	style := styleStatusBar
	if lockdown.Locked(m.snap, now) {
		style = styleStatusLocked
	}
	return style.Width(m.width).Render(bar)
}
