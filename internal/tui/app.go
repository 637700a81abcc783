// Package tui is the interactive mission log. It follows the Bubble Tea model:
// key presses become messages, Update folds them into the App, and View renders it.
//
// Every store mutation happens inside Update. The only work done off the event
// loop is fetching a briefing, and its result is committed back in Update only
// if the form that asked for it is still open.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"star-task/internal/api"
	"star-task/internal/domain"
	"star-task/internal/errors"
	"star-task/internal/logging"
)

// viewMode is which half of the log is on screen
type viewMode int

const (
	viewActive viewMode = iota
	viewArchive
)

func (v viewMode) String() string {
	if v == viewArchive {
		return "ARCHIVE"
	}
	return "ACTIVE"
}

// briefingReadyMsg carries a prepared mission back to the event loop.
// generation ties it to the submission that started it.
type briefingReadyMsg struct {
	generation int
	pending    *api.PendingMission
	err        error
}

// AppOption customizes App construction.
type AppOption func(*App)

// WithLogger sends diagnostics to logger instead of discarding them.
func WithLogger(logger *logging.Logger) AppOption {
	return func(a *App) { a.logger = logger }
}

// WithTimeFormat sets the layout used for mission timestamps.
func WithTimeFormat(layout string) AppOption {
	return func(a *App) {
		if layout != "" {
			a.timeFormat = layout
		}
	}
}

// App is the root Bubble Tea model.
type App struct {
	ctx        context.Context
	api        api.BusinessAPI
	logger     *logging.Logger
	timeFormat string

	view   viewMode
	cursor [2]int

	form *missionForm

	// generation increases on every submit and every form close; a
	// briefingReadyMsg from an older generation is stale
	generation    int
	pendingCtx    context.Context
	cancelPending context.CancelFunc

	statusMsg string
	err       error

	width  int
	height int
}

// NewApp creates the model. ctx bounds every briefing request started from it.
func NewApp(ctx context.Context, businessAPI api.BusinessAPI, opts ...AppOption) *App {
	if ctx == nil {
		ctx = context.Background()
	}
	a := &App{
		ctx:        ctx,
		api:        businessAPI,
		timeFormat: "2006-01-02 15:04",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, businessAPI api.BusinessAPI, opts ...AppOption) error {
	p := tea.NewProgram(
		NewApp(ctx, businessAPI, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// the program was stopped by its context, not by a failure
		return nil
	}
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case briefingReadyMsg:
		return a, a.handleBriefingReady(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.abandonPending()
			return a, tea.Quit
		}
		if a.form != nil {
			return a, a.updateForm(msg)
		}
		return a.updateList(msg)
	}

	if a.form != nil {
		return a, a.form.update(msg)
	}
	return a, nil
}

// updateList handles keys while the mission list has focus
func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.statusMsg = ""
	a.err = nil

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "tab", "shift+tab":
		if a.view == viewActive {
			a.view = viewArchive
		} else {
			a.view = viewActive
		}
	case "1":
		a.view = viewActive
	case "2":
		a.view = viewArchive
	case "n", "+":
		return a, a.openForm()
	case "up", "k":
		if a.cursor[a.view] > 0 {
			a.cursor[a.view]--
		}
	case "down", "j":
		if a.cursor[a.view] < len(a.visible())-1 {
			a.cursor[a.view]++
		}
	case " ", "enter":
		a.toggleSelected()
	case "d", "x", "delete":
		a.deleteSelected()
	}
	a.clampCursor()
	return a, nil
}

// updateForm handles keys while the creation form is open
func (a *App) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.closeForm()
		return nil
	case "enter":
		return a.submitForm()
	case "ctrl+r":
		if !a.form.submitting {
			a.form.cycleRepeat()
		}
		return nil
	case "tab", "shift+tab", "up", "down":
		a.form.switchFocus()
		return nil
	}
	if a.form.submitting {
		return nil
	}
	return a.form.update(msg)
}

// visible returns the missions in the current view, in display order
func (a *App) visible() []domain.Task {
	if a.view == viewArchive {
		return a.api.ArchivedMissions()
	}
	return a.api.ActiveMissions()
}

func (a *App) selected() (domain.Task, bool) {
	tasks := a.visible()
	idx := a.cursor[a.view]
	if idx < 0 || idx >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[idx], true
}

func (a *App) clampCursor() {
	for _, v := range []viewMode{viewActive, viewArchive} {
		var n int
		if v == viewArchive {
			n = a.api.MissionCounts().Archive
		} else {
			n = a.api.MissionCounts().Active
		}
		if a.cursor[v] >= n {
			a.cursor[v] = n - 1
		}
		if a.cursor[v] < 0 {
			a.cursor[v] = 0
		}
	}
}

func (a *App) toggleSelected() {
	task, ok := a.selected()
	if !ok {
		return
	}
	updated, err := a.api.ToggleMission(a.ctx, task.ID)
	if err != nil {
		a.fail("toggle mission", err)
	}
	if updated == nil {
		return
	}
	if updated.IsCompleted {
		a.statusMsg = fmt.Sprintf("MISSION ACCOMPLISHED: %s", updated.Title)
	} else {
		a.statusMsg = fmt.Sprintf("MISSION RESTORED: %s", updated.Title)
	}
}

func (a *App) deleteSelected() {
	task, ok := a.selected()
	if !ok {
		return
	}
	removed, err := a.api.DeleteMission(a.ctx, task.ID)
	if err != nil {
		a.fail("delete mission", err)
	}
	if removed {
		a.statusMsg = fmt.Sprintf("MISSION SCRUBBED: %s", task.Title)
	}
}

func (a *App) openForm() tea.Cmd {
	a.form = newMissionForm()
	return a.form.focusTitle()
}

// closeForm discards the form and anything it is still waiting on
func (a *App) closeForm() {
	a.abandonPending()
	a.form = nil
}

// abandonPending cancels the in-flight briefing request, if any, and makes
// sure its result is ignored when it arrives
func (a *App) abandonPending() {
	if a.cancelPending != nil {
		a.cancelPending()
		a.logger.Debugf("pending mission abandoned (generation %d)", a.generation)
	}
	a.cancelPending = nil
	a.pendingCtx = nil
	a.generation++
}

func (a *App) submitForm() tea.Cmd {
	if a.form.submitting {
		return nil
	}
	draft := a.form.draft()
	a.form.err = nil

	ctx, cancel := context.WithCancel(a.ctx)
	a.generation++
	a.pendingCtx = ctx
	a.cancelPending = cancel
	a.form.submitting = true

	generation := a.generation
	businessAPI := a.api
	return func() tea.Msg {
		pending, err := businessAPI.PrepareMission(ctx, draft)
		return briefingReadyMsg{generation: generation, pending: pending, err: err}
	}
}

// handleBriefingReady commits a prepared mission if its form is still waiting for it
func (a *App) handleBriefingReady(msg briefingReadyMsg) tea.Cmd {
	if a.form == nil || !a.form.submitting || msg.generation != a.generation {
		a.logger.Debugf("discarding stale briefing (generation %d, current %d)", msg.generation, a.generation)
		return nil
	}

	ctx, cancel := a.pendingCtx, a.cancelPending
	a.pendingCtx = nil
	a.cancelPending = nil
	defer cancel()

	if msg.err != nil {
		a.form.submitting = false
		a.form.err = msg.err
		return nil
	}

	task, err := a.api.CommitMission(ctx, msg.pending)
	if task == nil {
		a.form.submitting = false
		a.form.err = err
		return nil
	}

	a.form = nil
	a.view = viewActive
	a.cursor[viewActive] = 0
	a.statusMsg = fmt.Sprintf("MISSION LOGGED: %s. %s", task.MissionCodename, msg.pending.Briefing.Tagline)
	if err != nil {
		a.fail("add mission", err)
	}
	return nil
}

// fail records an error for the status line and the log file
func (a *App) fail(operation string, err error) {
	a.err = err
	if errors.ShouldLogError(err) {
		a.logger.Errorf("%s: %v", operation, err)
	}
}
