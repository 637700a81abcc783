package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"star-task/internal/domain"
	"star-task/internal/errors"
)

// defaultCodename is shown for missions stored without one
const defaultCodename = "UNIT-ALPHA"

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22D3EE"))
	subtitleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#1D4ED8")).Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Background(lipgloss.Color("#0F172A")).Padding(0, 1)
	sectionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#67E8F9"))
	emptyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#1D4ED8")).Padding(1, 2)
	codenameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22D3EE")).Background(lipgloss.Color("#1E3A8A"))
	repeatStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EFF6FF")).Bold(true)
	normalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#DBEAFE"))
	completedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Strikethrough(true)
	detailStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#93C5FD")).Italic(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
	formBoxStyle     = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("#2563EB")).Padding(1, 2)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
)

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("STAR-TASK"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("GALACTIC COMMAND CENTER // BLUE SECTOR"))
	b.WriteString("\n\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")

	if a.form != nil {
		b.WriteString(a.form.view())
	} else {
		b.WriteString(a.renderList())
	}

	b.WriteString("\n")
	if a.err != nil {
		b.WriteString(errorStyle.Render(errors.GetUserMessage(a.err)))
		b.WriteString("\n")
	} else if a.statusMsg != "" {
		b.WriteString(statusStyle.Render(a.statusMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(a.helpLine()))
	return b.String()
}

func (a *App) renderTabs() string {
	counts := a.api.MissionCounts()
	tabs := []struct {
		mode  viewMode
		label string
	}{
		{viewActive, fmt.Sprintf("ACTIVE [%d]", counts.Active)},
		{viewArchive, fmt.Sprintf("ARCHIVE [%d]", counts.Archive)},
	}

	rendered := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab.mode == a.view {
			rendered = append(rendered, tabActiveStyle.Render(tab.label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab.label))
		}
	}
	return strings.Join(rendered, " ")
}

func (a *App) renderList() string {
	var b strings.Builder
	tasks := a.visible()

	if a.view == viewArchive {
		b.WriteString(sectionStyle.Render("DATA ARCHIVES"))
	} else {
		b.WriteString(sectionStyle.Render("LIVE OPERATIONS"))
	}
	b.WriteString("\n")

	if len(tasks) == 0 {
		if a.view == viewArchive {
			b.WriteString(emptyStyle.Render(domain.EmptyArchiveMessage))
		} else {
			b.WriteString(emptyStyle.Render(domain.EmptyActiveMessage))
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("  press n to initialize a new mission"))
		}
		b.WriteString("\n")
		return b.String()
	}

	for i, task := range tasks {
		b.WriteString(a.renderTask(task, i == a.cursor[a.view]))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderTask(task domain.Task, selected bool) string {
	cursor := "  "
	title := normalStyle
	if selected {
		cursor = "> "
		title = selectedStyle
	}
	if task.IsCompleted {
		title = completedStyle
	}

	codename := task.MissionCodename
	if codename == "" {
		codename = defaultCodename
	}

	line := cursor + codenameStyle.Render(" "+codename+" ")
	if label := repeatBadge(task.RepeatInterval); label != "" {
		line += " " + repeatStyle.Render(label)
	}
	line += " " + title.Render(task.Title)

	if task.Description != "" {
		line += "\n    " + detailStyle.Render(task.Description)
	}
	if task.IsCompleted && task.CompletedAt != nil {
		line += "\n    " + repeatStyle.Render(fmt.Sprintf("SECURED %s", time.UnixMilli(*task.CompletedAt).Format(a.timeFormat)))
	}
	return line
}

// repeatBadge is the short tag shown next to recurring missions
func repeatBadge(interval domain.RepeatInterval) string {
	switch interval {
	case domain.RepeatDaily:
		return "DLY"
	case domain.RepeatWeekly:
		return "WKL"
	case domain.RepeatMonthly:
		return "MTH"
	default:
		return ""
	}
}

func (a *App) helpLine() string {
	if a.form != nil {
		return "enter: establish link  tab: next field  ctrl+r: orbital sync  esc: abort"
	}
	return "tab/1/2: view  n: new mission  space: done/restore  d: delete  j/k: move  q: quit"
}

func (f *missionForm) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("INITIATE MISSION LOG"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("TARGET OBJECTIVE"))
	b.WriteString("\n")
	b.WriteString(f.title.View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("INTEL STREAM"))
	b.WriteString("\n")
	b.WriteString(f.description.View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("ORBITAL SYNC"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("< %s >", repeatLabels[f.repeat]))
	b.WriteString("\n\n")

	if f.submitting {
		b.WriteString(statusStyle.Render("ENCRYPTING..."))
	} else {
		b.WriteString(normalStyle.Render("[ ESTABLISH LINK ]"))
	}
	if f.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(errors.GetUserMessage(f.err)))
	}

	return formBoxStyle.Render(b.String())
}
