// ABOUTME: Screen loads bound to a generation number and a cancellable context
// ABOUTME: Replies for a screen the user already left are dropped

package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/markalston/maarif-planner/internal/settings"
)

// loadedMsg carries a reply with the generation that requested it.
type loadedMsg struct {
	epoch uint64
	msg   tea.Msg
}

type launchCheckedMsg struct {
	result auth.LaunchResult
	user   *models.User
	err    error
}

type authDoneMsg struct {
	user *models.User
	err  error
}

type calendarLoadedMsg struct {
	page *plans.CalendarPage
	err  error
}

type plansLoadedMsg struct {
	tab   models.PlanType
	plans []models.Plan
	err   error
}

type planDeletedMsg struct {
	tab   models.PlanType
	plans []models.Plan
	err   error
}

type detailLoadedMsg struct {
	detail *plans.Detail
	err    error
}

type portfolioChangedMsg struct {
	photos []models.PortfolioPhoto
	err    error
}

type chatReplyMsg struct {
	raw json.RawMessage
	err error
}

type chatSavedMsg struct {
	created *models.Created
	typ     models.PlanType
	err     error
}

type matrixSearchedMsg struct {
	query   string
	results []models.MatrixResult
	err     error
}

type recentLoadedMsg struct {
	recent []string
}

type settingsLoadedMsg struct {
	prefs settings.Settings
	user  *models.User
	err   error
}

type settingsChangedMsg struct {
	prefs  *settings.Settings
	user   *models.User
	notice string
	err    error
}

type loggedOutMsg struct {
	err error
}

// storeChangedMsg is sent by the store watcher; it is not tied to a screen.
type storeChangedMsg struct{}

// sessionCheckedMsg reports whether a token is still stored.
type sessionCheckedMsg struct {
	present bool
}

// load runs fn off the update loop with the current screen's context and
// tags the reply with the current generation.
func (a *App) load(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	ctx, epoch := a.ctx, a.epoch
	a.pending++
	return func() tea.Msg {
		return loadedMsg{epoch: epoch, msg: fn(ctx)}
	}
}

// accept unwraps a reply, or reports it stale.
func (a *App) accept(msg loadedMsg) (tea.Msg, bool) {
	if msg.epoch != a.epoch {
		slog.Debug("dropping stale reply", "reply_epoch", msg.epoch, "epoch", a.epoch, "type", typeName(msg.msg))
		return nil, false
	}
	a.pending = max(0, a.pending-1)
	return msg.msg, true
}

func typeName(v any) string {
	switch v.(type) {
	case calendarLoadedMsg:
		return "calendar"
	case plansLoadedMsg:
		return "plans"
	case detailLoadedMsg:
		return "detail"
	case chatReplyMsg:
		return "chat"
	case matrixSearchedMsg:
		return "matrix"
	}
	return "other"
}

func (a *App) checkLaunch() tea.Cmd {
	flow, timeout := a.deps.Auth, a.deps.AuthCheckTimeout
	return a.load(func(ctx context.Context) tea.Msg {
		result, user, err := flow.CheckOnLaunch(ctx, timeout)
		return launchCheckedMsg{result: result, user: user, err: err}
	})
}

func (a *App) login(email, password string) tea.Cmd {
	flow := a.deps.Auth
	return a.load(func(ctx context.Context) tea.Msg {
		user, err := flow.Login(ctx, email, password)
		return authDoneMsg{user: user, err: err}
	})
}

func (a *App) register(in auth.RegisterInput) tea.Cmd {
	flow := a.deps.Auth
	return a.load(func(ctx context.Context) tea.Msg {
		user, err := flow.Register(ctx, in)
		return authDoneMsg{user: user, err: err}
	})
}

// arrived clears the navigation flag once the home screen is up. It is not
// tied to a screen.
func (a *App) arrived() tea.Cmd {
	flow, root := a.deps.Auth, a.root
	return func() tea.Msg {
		if err := flow.Arrived(root); err != nil {
			slog.Warn("failed to clear navigation flag", "error", err)
		}
		return nil
	}
}

func (a *App) loadCalendar(m plans.Month) tea.Cmd {
	svc := a.plans
	return a.load(func(ctx context.Context) tea.Msg {
		page, err := svc.Calendar(ctx, m)
		return calendarLoadedMsg{page: page, err: err}
	})
}

func (a *App) loadPlans(tab models.PlanType) tea.Cmd {
	svc := a.plans
	return a.load(func(ctx context.Context) tea.Msg {
		list, err := svc.List(ctx, tab)
		return plansLoadedMsg{tab: tab, plans: list, err: err}
	})
}

func (a *App) deletePlan(p models.Plan) tea.Cmd {
	svc := a.plans
	typ := p.Type()
	return a.load(func(ctx context.Context) tea.Msg {
		list, err := svc.Delete(ctx, typ, p.ID)
		return planDeletedMsg{tab: typ, plans: plans.FilterTab(list, typ), err: err}
	})
}

func (a *App) loadDetail(p models.Plan) tea.Cmd {
	svc := a.plans
	return a.load(func(ctx context.Context) tea.Msg {
		d, err := svc.Detail(ctx, p.Type(), p.ID)
		return detailLoadedMsg{detail: d, err: err}
	})
}

// addPhoto reads the image at path and attaches it to the plan.
func (a *App) addPhoto(d *plans.Detail, activity, path, description string) tea.Cmd {
	svc := a.plans
	return a.load(func(ctx context.Context) tea.Msg {
		image, err := os.ReadFile(expandHome(path))
		if err != nil {
			return portfolioChangedMsg{err: fmt.Errorf("reading photo: %w", err)}
		}
		up := plans.PhotoUpload{ActivityTitle: activity, Image: image, Description: description}
		photos, err := svc.AddPhoto(ctx, d, up)
		return portfolioChangedMsg{photos: photos, err: err}
	})
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

func (a *App) deletePhoto(planID, photoID string) tea.Cmd {
	svc := a.plans
	return a.load(func(ctx context.Context) tea.Msg {
		photos, err := svc.DeletePhoto(ctx, planID, photoID)
		return portfolioChangedMsg{photos: photos, err: err}
	})
}

func (a *App) requestChat(req *models.ChatRequest) tea.Cmd {
	conv := a.conv
	return a.load(func(ctx context.Context) tea.Msg {
		raw, err := conv.Request(ctx, req)
		return chatReplyMsg{raw: raw, err: err}
	})
}

// saveDraft is bound to the app's lifetime, not the screen's. Its reply
// always reaches the conversation.
func (a *App) saveDraft(typ models.PlanType, body *models.NewPlan) tea.Cmd {
	c, root := a.deps.Client, a.root
	return func() tea.Msg {
		created, err := c.CreatePlan(root, typ, body)
		return chatSavedMsg{created: created, typ: typ, err: err}
	}
}

func (a *App) searchMatrix(query string, band models.AgeBand) tea.Cmd {
	s := a.searcher
	return a.load(func(ctx context.Context) tea.Msg {
		results, err := s.Search(ctx, query, band)
		return matrixSearchedMsg{query: query, results: results, err: err}
	})
}

func (a *App) loadRecent() tea.Cmd {
	recent := a.searcher.Recent()
	return a.load(func(ctx context.Context) tea.Msg {
		queries, err := recent.Load(ctx)
		if err != nil {
			slog.Warn("failed to load recent searches", "error", err)
		}
		return recentLoadedMsg{recent: queries}
	})
}

func (a *App) clearRecent() tea.Cmd {
	recent := a.searcher.Recent()
	return a.load(func(ctx context.Context) tea.Msg {
		if err := recent.Clear(ctx); err != nil {
			slog.Warn("failed to clear recent searches", "error", err)
		}
		return recentLoadedMsg{}
	})
}

func (a *App) loadSettings() tea.Cmd {
	prefs, sess := a.prefs, a.deps.Session
	return a.load(func(ctx context.Context) tea.Msg {
		s, err := prefs.Load(ctx)
		if err != nil {
			return settingsLoadedMsg{prefs: s, err: err}
		}
		user, err := sess.User(ctx)
		return settingsLoadedMsg{prefs: s, user: user, err: err}
	})
}

func (a *App) toggleSetting(name string, on bool) tea.Cmd {
	prefs := a.prefs
	return a.load(func(ctx context.Context) tea.Msg {
		if err := prefs.Set(ctx, name, on); err != nil {
			return settingsChangedMsg{err: err}
		}
		s, err := prefs.Load(ctx)
		return settingsChangedMsg{prefs: &s, err: err}
	})
}

func (a *App) clearCache() tea.Cmd {
	prefs := a.prefs
	return a.load(func(ctx context.Context) tea.Msg {
		err := prefs.ClearCache(ctx)
		return settingsChangedMsg{notice: "Cache cleared.", err: err}
	})
}

func (a *App) saveProfile(edit settings.ProfileEdit) tea.Cmd {
	sess := a.deps.Session
	return a.load(func(ctx context.Context) tea.Msg {
		user, err := settings.UpdateProfile(ctx, sess, edit)
		return settingsChangedMsg{user: user, notice: "Profile saved on this device only.", err: err}
	})
}

func (a *App) logout() tea.Cmd {
	flow := a.deps.Auth
	return a.load(func(ctx context.Context) tea.Msg {
		return loggedOutMsg{err: flow.Logout(ctx)}
	})
}

// checkSession reads the token after the store changed underneath us.
func (a *App) checkSession() tea.Cmd {
	sess, root := a.deps.Session, a.root
	return func() tea.Msg {
		_, ok, err := sess.Token(root)
		if err != nil {
			slog.Warn("failed to read session after store change", "error", err)
			return sessionCheckedMsg{present: true}
		}
		return sessionCheckedMsg{present: ok}
	}
}
