// ABOUTME: Integration tests for the root TUI model
// ABOUTME: Drives screen changes against the fake backend and runs IO commands inline

package tui

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/chat"
	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/fakebackend"
	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
	"github.com/markalston/maarif-planner/internal/tui/authform"
	"github.com/markalston/maarif-planner/internal/tui/calendarview"
	"github.com/markalston/maarif-planner/internal/tui/chatview"
	"github.com/markalston/maarif-planner/internal/tui/planlist"
	"github.com/markalston/maarif-planner/internal/config"
	"github.com/markalston/maarif-planner/internal/plans"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

type harness struct {
	app     *App
	backend *fakebackend.Server
	session *session.Store
	user    models.User
	token   string
}

// newHarness builds an app against a fresh backend. With loggedIn the
// session already holds a valid token.
func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()
	backend, ts := fakebackend.Start(t)
	user, token := fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")

	ctx := context.Background()
	sess := session.New(kvstore.NewMemoryStore())
	if loggedIn {
		if err := sess.SetSession(ctx, token, user); err != nil {
			t.Fatal(err)
		}
	}
	c := client.New(ts.URL, sess)
	flow := auth.NewFlow(ctx, c, sess)
	c.OnUnauthorized(flow.Unauthorized)

	app := New(ctx, Deps{
		Client:           c,
		Session:          sess,
		Auth:             flow,
		KV:               sess.KV(),
		ChatHistoryLimit: 10,
		AuthCheckTimeout: 2 * time.Second,
		Now:              fixedNow,
	})
	t.Cleanup(app.cancel)
	return &harness{app: app, backend: backend, session: sess, user: user, token: token}
}

// send feeds msg to the app and returns the follow-up command.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.app.Update(msg)
	return cmd
}

// do runs an IO command inline and applies its reply.
func (h *harness) do(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return h.send(cmd())
}

// launch runs the startup session check.
func (h *harness) launch(t *testing.T) {
	t.Helper()
	h.do(t, h.app.Init())
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLaunch_ValidTokenGoesHome(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)

	if h.app.screen != ScreenHome {
		t.Fatalf("screen = %d, want home", h.app.screen)
	}
	if h.app.user == nil || h.app.user.Email != "teacher@example.com" {
		t.Errorf("user = %+v", h.app.user)
	}
}

func TestLaunch_NoTokenShowsLogin(t *testing.T) {
	h := newHarness(t, false)
	h.launch(t)

	if h.app.screen != ScreenLogin {
		t.Fatalf("screen = %d, want login", h.app.screen)
	}
}

func TestLaunch_UnreachableKeepsToken(t *testing.T) {
	ctx := context.Background()
	sess := session.New(kvstore.NewMemoryStore())
	if err := sess.SetSession(ctx, "kept-token", models.User{ID: "u1", Name: "T"}); err != nil {
		t.Fatal(err)
	}
	c := client.New("http://127.0.0.1:1", sess)
	app := New(ctx, Deps{Client: c, Session: sess, Auth: auth.NewFlow(ctx, c, sess), KV: sess.KV(), AuthCheckTimeout: time.Second})
	t.Cleanup(app.cancel)

	app.Update(app.Init()())

	if app.screen != ScreenLogin {
		t.Fatalf("screen = %d, want login", app.screen)
	}
	if !strings.Contains(app.View(), "Could not reach the server") {
		t.Error("expected offline notice on the login screen")
	}
	if token, ok, _ := sess.Token(ctx); !ok || token != "kept-token" {
		t.Errorf("token = %q, %v; want it kept", token, ok)
	}
}

func TestLogin_SuccessGoesHomeAndClearsNavigationFlag(t *testing.T) {
	h := newHarness(t, false)
	h.launch(t)

	next := h.do(t, h.send(authform.LoginMsg{Email: " Teacher@Example.com ", Password: "secret1"}))
	if h.app.screen != ScreenHome {
		t.Fatalf("screen = %d, want home", h.app.screen)
	}
	if next == nil {
		t.Fatal("expected the navigation flag to be cleared")
	}
	if batch, ok := next().(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}

	inProgress, err := h.session.NavigationInProgress(context.Background())
	if err != nil || inProgress {
		t.Errorf("navigation in progress = %v, %v", inProgress, err)
	}
}

func TestLogin_FailureStaysOnLoginWithMessage(t *testing.T) {
	h := newHarness(t, false)
	h.launch(t)

	h.do(t, h.send(authform.LoginMsg{Email: "teacher@example.com", Password: "wrong-password"}))

	if h.app.screen != ScreenLogin {
		t.Fatalf("screen = %d, want login", h.app.screen)
	}
	if h.app.authForm.Busy() {
		t.Error("form still busy after failure")
	}
	if _, ok, _ := h.session.Token(context.Background()); ok {
		t.Error("failed login stored a token")
	}
}

func TestStaleReplyIsDropped(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	fakebackend.MustAddPlan(t, h.backend, h.user.ID, models.PlanDaily, models.Plan{Date: "2024-03-12", Title: "Seasons"})

	calendarLoad := h.app.openCalendar()
	plansLoad := h.app.openPlans()

	// The calendar request was cancelled by leaving the screen; its reply
	// must not surface as an error.
	h.send(calendarLoad())
	if h.app.modal != "" {
		t.Fatalf("stale reply raised modal %q", h.app.modal)
	}
	if h.app.calendar.Selection() != nil {
		t.Error("stale reply touched the calendar")
	}

	h.send(plansLoad())
	if got := len(h.app.planList.Plans()); got != 1 {
		t.Errorf("plans = %d, want 1", got)
	}
	if h.app.pending != 0 {
		t.Errorf("pending = %d after all replies", h.app.pending)
	}
}

func TestNew_DefaultAuthCheckTimeout(t *testing.T) {
	app := New(context.Background(), Deps{})
	t.Cleanup(app.cancel)

	if app.deps.AuthCheckTimeout != config.DefaultAuthCheckTimeout {
		t.Errorf("timeout = %v, want %v", app.deps.AuthCheckTimeout, config.DefaultAuthCheckTimeout)
	}
}

func TestCalendar_MonthChangeFetchesNewBoundsAndIgnoresOldPage(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	fakebackend.MustAddPlan(t, h.backend, h.user.ID, models.PlanDaily, models.Plan{Date: "2024-03-01", Title: "Seasons"})
	fakebackend.MustAddPlan(t, h.backend, h.user.ID, models.PlanDaily, models.Plan{Date: "2024-04-01", Title: "Rain"})

	marchLoad := h.app.openCalendar()
	changed := h.send(key("]"))
	if changed == nil {
		t.Fatal("] returned no command")
	}
	h.do(t, h.send(changed()))

	if !slices.Contains(h.backend.Requests(), "GET /api/plans/daily?from_date=2024-04-01&to_date=2024-04-30") {
		t.Fatalf("no April request in %v", h.backend.Requests())
	}

	// The March reply lands after April's and must not replace it.
	h.send(marchLoad())
	if got := h.app.calendar.Month(); got != (plans.Month{Year: 2024, Month: time.April}) {
		t.Fatalf("month = %v", got)
	}
	h.send(key("enter"))
	sel := h.app.calendar.Selection()
	if sel == nil || sel.Date != "2024-04-01" || len(sel.Plans) != 1 || sel.Plans[0].Title != "Rain" {
		t.Errorf("selection = %+v", sel)
	}
	if h.app.pending != 0 {
		t.Errorf("pending = %d after all replies", h.app.pending)
	}
}

func TestPlans_TabSwitchFetchesOtherCollectionAndIgnoresOldRows(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	fakebackend.MustAddPlan(t, h.backend, h.user.ID, models.PlanDaily, models.Plan{Date: "2024-03-12", Title: "Seasons"})
	fakebackend.MustAddPlan(t, h.backend, h.user.ID, models.PlanMonthly, models.Plan{Month: "2024-03", Title: "Spring"})

	dailyLoad := h.app.openPlans()
	changed := h.send(tea.KeyMsg{Type: tea.KeyTab})
	if changed == nil {
		t.Fatal("tab returned no command")
	}
	h.do(t, h.send(changed()))

	if !slices.Contains(h.backend.Requests(), "GET /api/plans/monthly") {
		t.Fatalf("no monthly request in %v", h.backend.Requests())
	}

	h.send(dailyLoad())
	rows := h.app.planList.Plans()
	if h.app.planList.Tab() != models.PlanMonthly || len(rows) != 1 || rows[0].Title != "Spring" {
		t.Errorf("tab = %s rows = %+v", h.app.planList.Tab(), rows)
	}
}

func TestCalendarCreateOpensChatPrefilled(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	h.do(t, h.app.openCalendar())

	h.send(calendarview.CreateMsg{Date: "2024-03-15"})

	if h.app.screen != ScreenChat {
		t.Fatalf("screen = %d, want chat", h.app.screen)
	}
	if h.app.conv.PlanType() != models.PlanDaily {
		t.Errorf("plan type = %s", h.app.conv.PlanType())
	}
	if !strings.Contains(h.app.View(), "Create a daily plan for 2024-03-15") {
		t.Error("chat input not prefilled")
	}
}

func TestChat_DraftAndSave(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	h.app.openChat("", "")

	h.do(t, h.send(chatview.SendMsg{Text: "A plan about seasons for 2024-03-15"}))
	if h.app.conv.State() != chat.DraftReady {
		t.Fatalf("state = %v, want draft ready", h.app.conv.State())
	}

	h.do(t, h.send(chatview.SaveMsg{}))
	if h.app.saving {
		t.Error("still saving after reply")
	}
	saved, err := h.app.deps.Client.ListDailyPlans(context.Background(), "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].Date != "2024-03-15" {
		t.Errorf("saved plans = %+v", saved)
	}
	if h.app.conv.Draft() != nil {
		t.Error("draft kept after save")
	}
}

func TestChat_LeavingDropsOutstandingReply(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	h.app.openChat("", "")

	pending := h.send(chatview.SendMsg{Text: "A plan about seasons for 2024-03-15"})
	h.send(key("esc"))
	if h.app.screen != ScreenHome {
		t.Fatalf("screen = %d, want home", h.app.screen)
	}

	h.send(pending())

	if h.app.conv.State() != chat.Idle {
		t.Errorf("state = %v, want idle", h.app.conv.State())
	}
	msgs := h.app.conv.Messages()
	if last := msgs[len(msgs)-1]; last.Role != models.RoleUser {
		t.Errorf("last message = %+v, want the unanswered user message", last)
	}
}

func TestChat_SaveOutlivesLeavingChat(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	h.app.openChat("", "")
	h.do(t, h.send(chatview.SendMsg{Text: "A plan about seasons for 2024-03-15"}))

	save := h.send(chatview.SaveMsg{})
	if save == nil {
		t.Fatal("save returned no command")
	}
	if again := h.send(chatview.SaveMsg{}); again != nil {
		t.Fatal("second save started while the first was in flight")
	}
	h.send(key("esc"))
	if h.app.screen != ScreenHome {
		t.Fatalf("screen = %d, want home", h.app.screen)
	}

	h.send(save())
	if h.app.saving {
		t.Error("still saving after the reply")
	}
	if h.app.conv.Draft() != nil {
		t.Fatal("draft kept after a successful save")
	}

	h.app.openChat("", "")
	if cmd := h.send(chatview.SaveMsg{}); cmd != nil {
		t.Error("a saved draft could be saved again")
	}
	saved, err := h.app.deps.Client.ListPlans(context.Background(), models.PlanDaily)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Errorf("saved plans = %d, want 1", len(saved))
	}
}

func TestPlans_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	id := fakebackend.MustAddPlan(t, h.backend, h.user.ID, models.PlanDaily, models.Plan{Date: "2024-03-12", Title: "Seasons"})
	h.do(t, h.app.openPlans())
	plan := h.app.planList.Plans()[0]

	h.send(planlist.DeleteMsg{Plan: plan})
	if h.app.confirm == nil {
		t.Fatal("expected a confirmation dialog")
	}
	h.send(key("esc"))
	if h.app.confirm != nil {
		t.Fatal("esc did not close the dialog")
	}
	if _, err := h.app.deps.Client.GetPlan(context.Background(), models.PlanDaily, id); err != nil {
		t.Fatalf("plan gone after cancel: %v", err)
	}

	h.send(planlist.DeleteMsg{Plan: plan})
	h.do(t, h.app.confirm.action())
	if got := len(h.app.planList.Plans()); got != 0 {
		t.Errorf("plans after delete = %d", got)
	}
}

func TestDetail_MissingPlanShowsModalThenReturns(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	h.do(t, h.app.openPlans())

	h.do(t, h.send(planlist.OpenMsg{Plan: models.Plan{ID: "missing", Date: "2024-03-12"}}))
	if h.app.modal == "" {
		t.Fatal("expected a not-found modal")
	}

	back := h.send(key("enter"))
	if h.app.screen != ScreenPlans {
		t.Fatalf("screen = %d, want plans", h.app.screen)
	}
	h.do(t, back)
	if h.app.modal != "" {
		t.Errorf("modal = %q after dismiss", h.app.modal)
	}
}

func TestRevokedSessionReturnsToLogin(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	h.backend.Revoke(h.token)

	h.do(t, h.app.openCalendar())

	if h.app.screen != ScreenLogin {
		t.Fatalf("screen = %d, want login", h.app.screen)
	}
	if !strings.Contains(h.app.View(), "session has expired") {
		t.Error("expected expired-session notice")
	}
	if _, ok, _ := h.session.Token(context.Background()); ok {
		t.Error("token not cleared after 401")
	}
}

func TestStoreChangeWithoutTokenSignsOut(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)
	if err := h.session.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}

	h.do(t, h.send(storeChangedMsg{}))

	if h.app.screen != ScreenLogin {
		t.Errorf("screen = %d, want login", h.app.screen)
	}
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, true)
	h.launch(t)

	h.app.openChat("", "")
	h.send(key("q"))
	if h.app.screen != ScreenChat || h.app.ctx.Err() != nil {
		t.Fatal("q quit while typing in chat")
	}

	h.send(key("esc"))
	cmd := h.send(key("q"))
	if cmd == nil {
		t.Fatal("q on home returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q on home did not quit")
	}
}
