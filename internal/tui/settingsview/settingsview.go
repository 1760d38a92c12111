// ABOUTME: Settings screen for preferences, profile, cache and sign out
// ABOUTME: Profile edits use a huh form and stay on this device

package settingsview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/settings"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// ToggleMsg flips a preference
type ToggleMsg struct {
	Name string
	On   bool
}

// SaveProfileMsg stores profile edits on this device
type SaveProfileMsg struct {
	Edit settings.ProfileEdit
}

// ClearCacheMsg removes cached data
type ClearCacheMsg struct{}

// LogoutMsg signs out
type LogoutMsg struct{}

type item int

const (
	itemNotifications item = iota
	itemAutoBackup
	itemProfile
	itemClearCache
	itemLogout
	itemCount
)

// View is the settings screen
type View struct {
	prefs  settings.Settings
	user   *models.User
	cursor item
	status string

	form      *huh.Form
	name      string
	school    string
	className string
	ageBand   string
}

// New creates the settings screen
func New() *View {
	return &View{prefs: settings.Defaults}
}

// SetSettings shows the stored preferences
func (v *View) SetSettings(s settings.Settings) { v.prefs = s }

// SetUser shows the cached profile
func (v *View) SetUser(u *models.User) { v.user = u }

// SetStatus shows a one-line notice
func (v *View) SetStatus(s string) { v.status = s }

// FormOpen reports whether the profile form has the keyboard
func (v *View) FormOpen() bool { return v.form != nil }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (v *View) openProfileForm() tea.Cmd {
	if v.user == nil {
		v.status = "No profile on this device."
		return nil
	}
	v.name = v.user.Name
	v.school = deref(v.user.School)
	v.className = deref(v.user.ClassName)
	v.ageBand = string(v.user.PreferredAgeBand())

	bands := make([]huh.Option[string], 0, len(models.AgeBands))
	for _, b := range models.AgeBands {
		bands = append(bands, huh.NewOption(b.Label(), string(b)))
	}
	v.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.name),
			huh.NewInput().Title("School").Value(&v.school),
			huh.NewInput().Title("Class").Value(&v.className),
			huh.NewSelect[string]().Title("Default age band").Options(bands...).Value(&v.ageBand),
		).Title("Edit profile").
			Description("Saved on this device only; the server profile is unchanged."),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return v.form.Init()
}

// Init implements tea.Model
func (v *View) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if v.form != nil {
		return v.updateForm(msg)
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	v.status = ""

	switch key.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < itemCount-1 {
			v.cursor++
		}
	case "enter", " ":
		return v, v.activate()
	}
	return v, nil
}

func (v *View) activate() tea.Cmd {
	switch v.cursor {
	case itemNotifications:
		on := !v.prefs.Notifications
		return func() tea.Msg { return ToggleMsg{Name: "notifications", On: on} }
	case itemAutoBackup:
		on := !v.prefs.AutoBackup
		return func() tea.Msg { return ToggleMsg{Name: "autoBackup", On: on} }
	case itemProfile:
		return v.openProfileForm()
	case itemClearCache:
		return func() tea.Msg { return ClearCacheMsg{} }
	case itemLogout:
		return func() tea.Msg { return LogoutMsg{} }
	}
	return nil
}

func (v *View) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		v.form = nil
		return v, nil
	}
	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}
	if v.form.State == huh.StateCompleted {
		v.form = nil
		edit := settings.ProfileEdit{Name: &v.name, School: &v.school, ClassName: &v.className, AgeBand: &v.ageBand}
		return v, func() tea.Msg { return SaveProfileMsg{Edit: edit} }
	}
	return v, cmd
}

func toggle(on bool) string {
	if on {
		return widgets.Badge("ON", widgets.StatusOK)
	}
	return widgets.Badge("OFF", widgets.StatusNeutral)
}

func (v *View) label(i item) string {
	switch i {
	case itemNotifications:
		return "Notifications  " + toggle(v.prefs.Notifications)
	case itemAutoBackup:
		return "Auto backup    " + toggle(v.prefs.AutoBackup)
	case itemProfile:
		return icons.User.String() + " Edit profile"
	case itemClearCache:
		return icons.Delete.String() + " Clear cache"
	case itemLogout:
		return icons.Quit.String() + " Sign out"
	}
	return ""
}

// View implements tea.Model
func (v *View) View() string {
	if v.form != nil {
		return v.form.View() + "\n" + styles.Help.Render("esc cancel")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Settings.String() + " Settings"))
	sb.WriteString("\n")
	if v.user != nil {
		sb.WriteString(fmt.Sprintf("%s  %s  %s\n", styles.ValueStyle.Render(v.user.Name), v.user.Email, widgets.AgeBandBadge(v.user.PreferredAgeBand())))
		if v.user.School != nil || v.user.ClassName != nil {
			sb.WriteString(styles.Subtitle.UnsetMarginBottom().Render(strings.TrimSpace(deref(v.user.School)+"  "+deref(v.user.ClassName))) + "\n")
		}
		sb.WriteString("\n")
	}
	for i := item(0); i < itemCount; i++ {
		if i == v.cursor {
			sb.WriteString(styles.Selected.Render("> ") + v.label(i))
		} else {
			sb.WriteString("  " + v.label(i))
		}
		sb.WriteString("\n")
	}
	if v.status != "" {
		sb.WriteString("\n" + widgets.StatusText(v.status, widgets.StatusInfo))
	}
	return sb.String()
}
