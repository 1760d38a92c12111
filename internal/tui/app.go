// ABOUTME: Root bubbletea model for the planner TUI
// ABOUTME: Owns screen state, routes input to child screens and performs all IO

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/chat"
	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/config"
	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/matrix"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/markalston/maarif-planner/internal/session"
	"github.com/markalston/maarif-planner/internal/settings"
	"github.com/markalston/maarif-planner/internal/tui/authform"
	"github.com/markalston/maarif-planner/internal/tui/calendarview"
	"github.com/markalston/maarif-planner/internal/tui/chatview"
	"github.com/markalston/maarif-planner/internal/tui/detailview"
	"github.com/markalston/maarif-planner/internal/tui/matrixview"
	"github.com/markalston/maarif-planner/internal/tui/menu"
	"github.com/markalston/maarif-planner/internal/tui/planlist"
	"github.com/markalston/maarif-planner/internal/tui/settingsview"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLaunch Screen = iota
	ScreenLogin
	ScreenHome
	ScreenChat
	ScreenCalendar
	ScreenPlans
	ScreenDetail
	ScreenMatrix
	ScreenSettings
)

const (
	sessionExpiredNotice = "Your session has expired. Please sign in again."
	offlineNotice        = "Could not reach the server to check your session. Sign in again when you are back online."
	signedOutNotice      = "You were signed out on this device."
	savingNotice         = "Still saving the plan. Please wait."
)

// Deps are the services the TUI drives.
type Deps struct {
	Client           *client.Client
	Session          *session.Store
	Auth             *auth.Flow
	KV               kvstore.Store
	ChatHistoryLimit int
	AuthCheckTimeout time.Duration
	Now              func() time.Time
}

// App is the root model for the TUI
type App struct {
	deps     Deps
	plans    *plans.Service
	searcher *matrix.Searcher
	prefs    *settings.Store

	// root outlives screens; ctx is cancelled whenever the screen changes.
	root    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	epoch   uint64
	pending int

	screen Screen
	width  int
	height int
	user   *models.User
	conv   *chat.Conversation
	saving bool

	modalTitle string
	modal      string
	afterModal func() tea.Cmd
	confirm    *confirmDialog

	// detailFrom is where the detail screen returns to.
	detailFrom Screen

	authForm     *authform.Form
	menu         *menu.Menu
	chatView     *chatview.View
	calendar     *calendarview.View
	planList     *planlist.View
	detail       *detailview.View
	matrixView   *matrixview.View
	settingsView *settingsview.View
}

// New creates the TUI application. Requests are cancelled when ctx is.
func New(ctx context.Context, deps Deps) *App {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.AuthCheckTimeout <= 0 {
		deps.AuthCheckTimeout = config.DefaultAuthCheckTimeout
	}
	a := &App{
		deps:     deps,
		plans:    plans.NewService(deps.Client),
		searcher: matrix.NewSearcher(deps.Client, matrix.NewRecent(deps.KV)),
		prefs:    settings.New(deps.KV),
		root:     ctx,
		screen:   ScreenLaunch,
		menu:     menu.New(),
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.checkLaunch()
}

// renew abandons every outstanding request of the current screen.
func (a *App) renew() {
	a.cancel()
	a.epoch++
	a.pending = 0
	a.ctx, a.cancel = context.WithCancel(a.root)
}

func (a *App) navigate(s Screen) {
	if a.screen == ScreenChat && a.conv != nil {
		a.conv.Abandon()
	}
	a.renew()
	a.confirm = nil
	a.screen = s
	slog.Debug("navigate", "screen", s, "epoch", a.epoch)
}

func (a *App) today() string {
	return a.deps.Now().Format("2006-01-02")
}

func (a *App) resize() {
	w, h := a.frameWidth()-2, a.contentHeight()
	if a.chatView != nil {
		a.chatView.SetSize(w, h)
	}
	if a.calendar != nil {
		a.calendar.SetSize(w, h)
	}
	if a.planList != nil {
		a.planList.SetSize(w, h)
	}
	if a.detail != nil {
		a.detail.SetSize(w, h)
	}
	if a.matrixView != nil {
		a.matrixView.SetSize(w, h)
	}
}

func (a *App) showLogin(notice string) tea.Cmd {
	a.user = nil
	a.conv = nil
	a.navigate(ScreenLogin)
	a.authForm = authform.New(authform.ModeLogin)
	a.authForm.SetNotice(notice)
	return a.authForm.Init()
}

func (a *App) goHome() tea.Cmd {
	a.navigate(ScreenHome)
	a.menu.SetUser(a.user)
	return nil
}

func (a *App) openChat(prefill string, typ models.PlanType) tea.Cmd {
	if a.conv == nil {
		a.conv = chat.New(a.deps.Client, chat.Options{
			HistoryLimit: a.deps.ChatHistoryLimit,
			AgeBand:      a.user.PreferredAgeBand(),
			Now:          a.deps.Now,
		})
	}
	if typ != "" {
		a.conv.SetPlanType(typ)
	}
	a.navigate(ScreenChat)
	if a.chatView == nil {
		a.chatView = chatview.New()
	}
	a.resize()
	if prefill != "" {
		a.chatView.Prefill(prefill)
	}
	a.syncChat()
	return a.chatView.Init()
}

func (a *App) syncChat() {
	a.chatView.SetSnapshot(chatview.Snapshot{
		Messages: a.conv.Messages(),
		State:    a.conv.State(),
		Draft:    a.conv.Draft(),
		PlanType: a.conv.PlanType(),
		Saving:   a.saving,
	})
}

func (a *App) openCalendar() tea.Cmd {
	a.navigate(ScreenCalendar)
	if a.calendar == nil {
		a.calendar = calendarview.New(plans.MonthOf(a.deps.Now()), a.today())
	}
	a.resize()
	return a.loadCalendar(a.calendar.Month())
}

func (a *App) openPlans() tea.Cmd {
	a.navigate(ScreenPlans)
	if a.planList == nil {
		a.planList = planlist.New(models.PlanDaily)
	}
	a.resize()
	a.planList.SetLoading()
	return a.loadPlans(a.planList.Tab())
}

func (a *App) openDetail(p models.Plan) tea.Cmd {
	if a.screen != ScreenDetail {
		a.detailFrom = a.screen
	}
	a.navigate(ScreenDetail)
	a.detail = detailview.New()
	a.resize()
	return a.loadDetail(p)
}

func (a *App) leaveDetail() tea.Cmd {
	switch a.detailFrom {
	case ScreenCalendar:
		return a.openCalendar()
	case ScreenPlans:
		return a.openPlans()
	}
	return a.goHome()
}

func (a *App) openMatrix() tea.Cmd {
	a.navigate(ScreenMatrix)
	if a.matrixView == nil {
		a.matrixView = matrixview.New()
	}
	a.resize()
	return tea.Batch(a.matrixView.Init(), a.loadRecent())
}

func (a *App) openSettings() tea.Cmd {
	a.navigate(ScreenSettings)
	a.settingsView = settingsview.New()
	return a.loadSettings()
}

func (a *App) showModal(title, message string, after func() tea.Cmd) {
	a.modalTitle, a.modal, a.afterModal = title, message, after
}

func isSessionError(err error) bool {
	return errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNoSession)
}

// messageFor turns an error into text for the teacher.
func messageFor(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, client.ErrNetwork):
		return client.ErrNetwork.Error()
	case errors.Is(err, kvstore.ErrUnavailable):
		return "Device storage is unavailable."
	}
	return err.Error()
}

// fail sends the teacher to sign in for a rejected session and shows any
// other failure in a modal.
func (a *App) fail(err error) tea.Cmd {
	if isSessionError(err) {
		return a.showLogin(sessionExpiredNotice)
	}
	slog.Warn("request failed", "screen", a.screen, "error", err)
	a.showModal("Something went wrong", messageFor(err), nil)
	return nil
}

// typing reports whether printable keys belong to a text field.
func (a *App) typing() bool {
	switch a.screen {
	case ScreenLogin, ScreenChat, ScreenMatrix:
		return true
	case ScreenDetail:
		return a.detail != nil && a.detail.FormOpen()
	case ScreenSettings:
		return a.settingsView != nil && a.settingsView.FormOpen()
	}
	return false
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		if a.authForm != nil {
			a.authForm.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case loadedMsg:
		inner, ok := a.accept(msg)
		if !ok {
			return a, nil
		}
		return a, a.handleLoaded(inner)

	case chatSavedMsg:
		return a, a.handleLoaded(msg)

	case storeChangedMsg:
		return a, a.checkSession()

	case sessionCheckedMsg:
		if !msg.present && a.screen != ScreenLogin && a.screen != ScreenLaunch {
			slog.Info("session removed outside the app")
			return a, a.showLogin(signedOutNotice)
		}
		return a, nil
	}

	if cmd, handled := a.handleScreenMsg(msg); handled {
		return a, cmd
	}

	var cmds []tea.Cmd
	if a.confirm != nil {
		cmd, done := a.confirm.update(msg)
		if done {
			a.confirm = nil
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, a.forward(msg))
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.cancel()
		return a, tea.Quit
	}

	if a.modal != "" {
		switch msg.String() {
		case "enter", "esc", " ":
			after := a.afterModal
			a.modal, a.modalTitle, a.afterModal = "", "", nil
			if after != nil {
				return a, after()
			}
		}
		return a, nil
	}

	if a.confirm != nil {
		cmd, done := a.confirm.update(msg)
		if done {
			a.confirm = nil
		}
		return a, cmd
	}

	switch msg.String() {
	case "esc":
		switch a.screen {
		case ScreenChat, ScreenCalendar, ScreenPlans, ScreenMatrix:
			return a, a.goHome()
		case ScreenSettings:
			if !a.settingsView.FormOpen() {
				return a, a.goHome()
			}
		}
	case "q":
		if !a.typing() && a.screen != ScreenLaunch {
			a.cancel()
			return a, tea.Quit
		}
	}

	return a, a.forward(msg)
}

// forward passes msg to the current screen.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.screen {
	case ScreenLogin:
		_, cmd = a.authForm.Update(msg)
	case ScreenHome:
		_, cmd = a.menu.Update(msg)
	case ScreenChat:
		_, cmd = a.chatView.Update(msg)
	case ScreenCalendar:
		_, cmd = a.calendar.Update(msg)
	case ScreenPlans:
		_, cmd = a.planList.Update(msg)
	case ScreenDetail:
		_, cmd = a.detail.Update(msg)
	case ScreenMatrix:
		_, cmd = a.matrixView.Update(msg)
	case ScreenSettings:
		_, cmd = a.settingsView.Update(msg)
	}
	return cmd
}

// handleScreenMsg acts on requests emitted by child screens.
func (a *App) handleScreenMsg(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case authform.LoginMsg:
		return a.login(msg.Email, msg.Password), true
	case authform.RegisterMsg:
		return a.register(msg.Input), true
	case authform.CancelledMsg:
		a.cancel()
		return tea.Quit, true

	case menu.SelectedMsg:
		switch msg.Destination {
		case menu.DestChat:
			return a.openChat("", ""), true
		case menu.DestCalendar:
			return a.openCalendar(), true
		case menu.DestPlans:
			return a.openPlans(), true
		case menu.DestMatrix:
			return a.openMatrix(), true
		case menu.DestSettings:
			return a.openSettings(), true
		}
		return nil, true

	case chatview.SendMsg:
		if a.saving {
			a.chatView.SetStatus(savingNotice)
			return nil, true
		}
		req, err := a.conv.Begin(msg.Text)
		if err != nil {
			a.chatView.SetStatus(err.Error())
			return nil, true
		}
		a.chatView.SetStatus("")
		a.syncChat()
		return a.requestChat(req), true
	case chatview.SaveMsg:
		if a.saving {
			return nil, true
		}
		typ, body, err := a.conv.PendingSave()
		if err != nil {
			a.chatView.SetStatus(err.Error())
			return nil, true
		}
		a.saving = true
		a.syncChat()
		return a.saveDraft(typ, body), true
	case chatview.ResetMsg:
		if a.saving {
			a.chatView.SetStatus(savingNotice)
			return nil, true
		}
		a.conv.Abandon()
		a.conv.Reset()
		a.renew()
		a.chatView.SetStatus("")
		a.syncChat()
		return nil, true
	case chatview.PlanTypeMsg:
		a.conv.SetPlanType(msg.Type)
		a.syncChat()
		return nil, true

	case calendarview.MonthChangedMsg:
		return a.loadCalendar(msg.Month), true
	case calendarview.OpenPlanMsg:
		return a.openDetail(msg.Plan), true
	case calendarview.CreateMsg:
		return a.openChat(fmt.Sprintf("Create a daily plan for %s", msg.Date), models.PlanDaily), true

	case planlist.TabChangedMsg:
		return a.loadPlans(msg.Tab), true
	case planlist.RefreshMsg:
		a.planList.SetLoading()
		return a.loadPlans(a.planList.Tab()), true
	case planlist.OpenMsg:
		return a.openDetail(msg.Plan), true
	case planlist.DeleteMsg:
		p := msg.Plan
		a.confirm = newConfirm("Delete this plan?", p.Title, "Delete", func() tea.Cmd { return a.deletePlan(p) })
		return a.confirm.form.Init(), true

	case detailview.BackMsg:
		return a.leaveDetail(), true
	case detailview.AddPhotoMsg:
		d := a.detail.Detail()
		if d == nil {
			return nil, true
		}
		a.detail.SetStatus("Uploading photo...")
		return a.addPhoto(d, msg.ActivityTitle, msg.Path, msg.Description), true
	case detailview.DeletePhotoMsg:
		d := a.detail.Detail()
		if d == nil {
			return nil, true
		}
		planID, photoID := d.Plan.ID, msg.Photo.ID
		a.confirm = newConfirm("Delete this photo?", msg.Photo.ActivityTitle, "Delete", func() tea.Cmd { return a.deletePhoto(planID, photoID) })
		return a.confirm.form.Init(), true

	case matrixview.SearchMsg:
		return a.searchMatrix(msg.Query, msg.AgeBand), true
	case matrixview.ClearRecentMsg:
		return a.clearRecent(), true

	case settingsview.ToggleMsg:
		return a.toggleSetting(msg.Name, msg.On), true
	case settingsview.SaveProfileMsg:
		return a.saveProfile(msg.Edit), true
	case settingsview.ClearCacheMsg:
		return a.clearCache(), true
	case settingsview.LogoutMsg:
		a.confirm = newConfirm("Sign out?", "You will need to sign in again to see your plans.", "Sign out", a.logout)
		return a.confirm.form.Init(), true
	}
	return nil, false
}

// handleLoaded applies a reply for the current screen.
func (a *App) handleLoaded(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case launchCheckedMsg:
		switch msg.result {
		case auth.LaunchAuthenticated:
			a.user = msg.user
			return a.goHome()
		case auth.LaunchUncertain:
			return a.showLogin(offlineNotice)
		}
		return a.showLogin("")

	case authDoneMsg:
		if msg.err != nil {
			return a.authForm.SetError(auth.FailureMessage(msg.err))
		}
		a.user = msg.user
		return tea.Batch(a.goHome(), a.arrived())

	case calendarLoadedMsg:
		if msg.err != nil {
			return a.fail(msg.err)
		}
		a.calendar.SetPage(msg.page)
		return nil

	case plansLoadedMsg:
		if msg.err != nil {
			return a.fail(msg.err)
		}
		a.planList.SetPlans(msg.tab, msg.plans)
		return nil

	case planDeletedMsg:
		if msg.err != nil {
			return a.fail(msg.err)
		}
		a.planList.SetPlans(msg.tab, msg.plans)
		return nil

	case detailLoadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrNotFound) {
				a.showModal("Plan not found", "This plan no longer exists.", a.leaveDetail)
				return nil
			}
			return a.fail(msg.err)
		}
		a.detail.SetDetail(msg.detail)
		return nil

	case portfolioChangedMsg:
		if msg.err != nil {
			if isSessionError(msg.err) {
				return a.fail(msg.err)
			}
			a.detail.SetStatus(messageFor(msg.err))
			return nil
		}
		a.detail.SetPortfolio(msg.photos)
		a.detail.SetStatus("Portfolio updated.")
		return nil

	case chatReplyMsg:
		err := a.conv.Receive(msg.raw, msg.err)
		a.syncChat()
		if err != nil && isSessionError(err) {
			return a.fail(err)
		}
		return nil

	case chatSavedMsg:
		a.saving = false
		if msg.err != nil {
			if isSessionError(msg.err) {
				return a.fail(msg.err)
			}
			a.chatView.SetStatus("Could not save: " + messageFor(msg.err))
			a.syncChat()
			return nil
		}
		slog.Info("Saved plan from chat", "type", msg.typ, "id", msg.created.ID)
		a.conv.Saved()
		a.chatView.SetStatus(fmt.Sprintf("Saved %s plan %s.", msg.typ, msg.created.ID))
		a.syncChat()
		return nil

	case matrixSearchedMsg:
		if msg.err != nil {
			if isSessionError(msg.err) {
				return a.fail(msg.err)
			}
			a.matrixView.SetError(messageFor(msg.err))
		} else {
			a.matrixView.SetResults(msg.query, msg.results)
		}
		return a.loadRecent()

	case recentLoadedMsg:
		a.matrixView.SetRecent(msg.recent)
		return nil

	case settingsLoadedMsg:
		a.settingsView.SetSettings(msg.prefs)
		a.settingsView.SetUser(msg.user)
		if msg.err != nil {
			a.settingsView.SetStatus(messageFor(msg.err))
		}
		return nil

	case settingsChangedMsg:
		if msg.err != nil {
			a.settingsView.SetStatus(messageFor(msg.err))
			return nil
		}
		if msg.prefs != nil {
			a.settingsView.SetSettings(*msg.prefs)
		}
		if msg.user != nil {
			a.user = msg.user
			a.settingsView.SetUser(msg.user)
			a.menu.SetUser(msg.user)
		}
		a.settingsView.SetStatus(msg.notice)
		return nil

	case loggedOutMsg:
		if msg.err != nil {
			slog.Warn("logout did not clear the session", "error", msg.err)
		}
		return a.showLogin("")
	}
	return nil
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenLaunch:
		content = styles.Subtitle.Render("Checking your session...")
	case ScreenLogin:
		content = a.authForm.View()
	case ScreenHome:
		content = a.menu.View()
	case ScreenChat:
		content = a.chatView.View()
	case ScreenCalendar:
		content = a.calendar.View()
	case ScreenPlans:
		content = a.planList.View()
	case ScreenDetail:
		content = a.detail.View()
	case ScreenMatrix:
		content = a.matrixView.View()
	case ScreenSettings:
		content = a.settingsView.View()
	}

	switch {
	case a.modal != "":
		content = lipgloss.Place(a.frameWidth(), a.contentHeight(), lipgloss.Center, lipgloss.Center,
			widgets.Modal(a.modalTitle, a.modal, 0))
	case a.confirm != nil:
		content = lipgloss.Place(a.frameWidth(), a.contentHeight(), lipgloss.Center, lipgloss.Center,
			a.confirm.view())
	}
	return a.wrapWithFrame(content)
}

// Run starts the TUI and blocks until the teacher quits or ctx is done.
// When the session lives in a file, changes made by other processes (such
// as a CLI logout) are picked up while the TUI runs.
func Run(ctx context.Context, deps Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := New(ctx, deps)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if fs, ok := deps.KV.(*kvstore.FileStore); ok {
		go func() {
			if err := fs.Watch(ctx, func() { p.Send(storeChangedMsg{}) }); err != nil {
				slog.Warn("not watching session store", "path", fs.Path(), "error", err)
			}
		}()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
