package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"star-task/internal/api"
	"star-task/internal/domain"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
)

// repeatLabels are the form's names for each interval
var repeatLabels = map[domain.RepeatInterval]string{
	domain.RepeatNone:    "SINGLE DEPLOYMENT",
	domain.RepeatDaily:   "DAILY ROTATION",
	domain.RepeatWeekly:  "WEEKLY ORBIT",
	domain.RepeatMonthly: "MONTHLY CYCLE",
}

// missionForm is the "new mission" dialog
type missionForm struct {
	title       textinput.Model
	description textinput.Model
	repeat      domain.RepeatInterval
	focus       formField

	// submitting is true while the briefing request is in flight
	submitting bool
	err        error
}

func newMissionForm() *missionForm {
	title := textinput.New()
	title.Placeholder = "Enter mission title..."
	title.Prompt = ""

	description := textinput.New()
	description.Placeholder = "Mission parameters..."
	description.Prompt = ""

	return &missionForm{
		title:       title,
		description: description,
		repeat:      domain.RepeatNone,
	}
}

func (f *missionForm) focusTitle() tea.Cmd {
	f.focus = fieldTitle
	f.description.Blur()
	return f.title.Focus()
}

func (f *missionForm) switchFocus() {
	if f.focus == fieldTitle {
		f.focus = fieldDescription
		f.title.Blur()
		f.description.Focus()
		return
	}
	f.focusTitle()
}

func (f *missionForm) cycleRepeat() {
	f.repeat = f.repeat.Next()
}

// update forwards a message to the focused input
func (f *missionForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == fieldTitle {
		f.title, cmd = f.title.Update(msg)
	} else {
		f.description, cmd = f.description.Update(msg)
	}
	return cmd
}

// draft is the raw form contents; trimming and validation happen in the api
func (f *missionForm) draft() api.MissionDraft {
	return api.MissionDraft{
		Title:          f.title.Value(),
		Description:    f.description.Value(),
		RepeatInterval: string(f.repeat),
	}
}
