// ABOUTME: Login and register screens as a bubbletea model
// ABOUTME: Wraps huh forms and reports submissions to the root model

package authform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// Mode selects which form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// LoginMsg is sent when the login form is submitted
type LoginMsg struct {
	Email    string
	Password string
}

// RegisterMsg is sent when the register form is submitted
type RegisterMsg struct {
	Input auth.RegisterInput
}

// CancelledMsg is sent when the user leaves the form with esc
type CancelledMsg struct{}

// Form is the auth screen. Field values survive a failed submission so the
// user can correct them.
type Form struct {
	mode   Mode
	form   *huh.Form
	err    string
	notice string
	busy   bool
	width  int

	name            string
	email           string
	password        string
	confirmPassword string
	school          string
	className       string
	ageBand         string
}

// New creates the auth screen in the given mode
func New(mode Mode) *Form {
	f := &Form{mode: mode, ageBand: string(models.DefaultAgeBand)}
	f.form = f.build()
	return f
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return &auth.ValidationError{Message: label + " is required"}
		}
		return nil
	}
}

func (f *Form) build() *huh.Form {
	if f.mode == ModeRegister {
		bands := make([]huh.Option[string], 0, len(models.AgeBands))
		for _, b := range models.AgeBands {
			bands = append(bands, huh.NewOption(b.Label(), string(b)))
		}
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Name").Value(&f.name).Validate(required("name")),
				huh.NewInput().Title("Email").Value(&f.email).Validate(required("email")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&f.password).Validate(required("password")),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&f.confirmPassword),
			).Title("Create an account"),
			huh.NewGroup(
				huh.NewInput().Title("School").Description("Optional").Value(&f.school),
				huh.NewInput().Title("Class").Description("Optional").Value(&f.className),
				huh.NewSelect[string]().Title("Default age band").Options(bands...).Value(&f.ageBand),
			).Title("Your class"),
		).WithTheme(styles.FormTheme()).WithShowHelp(false)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&f.email).Validate(required("email")),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&f.password).Validate(required("password")),
		).Title("Sign in"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Mode returns the form being shown
func (f *Form) Mode() Mode { return f.mode }

// SetError shows a failed submission and reopens the form with the values
// kept. Passwords are cleared.
func (f *Form) SetError(msg string) tea.Cmd {
	f.err = msg
	f.busy = false
	f.password = ""
	f.confirmPassword = ""
	f.form = f.build()
	return f.form.Init()
}

// SetNotice shows an informational line above the form, such as an expired
// session.
func (f *Form) SetNotice(msg string) { f.notice = msg }

// Busy reports whether a submission is outstanding
func (f *Form) Busy() bool { return f.busy }

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
	case tea.KeyMsg:
		if f.busy {
			return f, nil
		}
		switch msg.String() {
		case "esc":
			return f, func() tea.Msg { return CancelledMsg{} }
		case "ctrl+r":
			return f, f.toggle()
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted && !f.busy {
		f.busy = true
		f.err = ""
		return f, f.submit()
	}
	return f, cmd
}

func (f *Form) toggle() tea.Cmd {
	if f.mode == ModeLogin {
		f.mode = ModeRegister
	} else {
		f.mode = ModeLogin
	}
	f.err = ""
	f.notice = ""
	f.form = f.build()
	return f.form.Init()
}

func (f *Form) submit() tea.Cmd {
	if f.mode == ModeLogin {
		msg := LoginMsg{Email: f.email, Password: f.password}
		return func() tea.Msg { return msg }
	}
	msg := RegisterMsg{Input: auth.RegisterInput{
		Name:            f.name,
		Email:           f.email,
		Password:        f.password,
		ConfirmPassword: f.confirmPassword,
		School:          f.school,
		ClassName:       f.className,
		AgeDefault:      models.AgeBand(f.ageBand),
	}}
	return func() tea.Msg { return msg }
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.App.String() + " Lesson Planner"))
	sb.WriteString("\n")
	if f.notice != "" {
		sb.WriteString(widgets.StatusText(f.notice, widgets.StatusInfo))
		sb.WriteString("\n\n")
	}
	if f.busy {
		sb.WriteString(styles.Subtitle.Render("Signing in..."))
		return sb.String()
	}
	sb.WriteString(f.form.View())
	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(f.err, widgets.StatusCritical))
	}
	sb.WriteString("\n")
	switch f.mode {
	case ModeLogin:
		sb.WriteString(styles.Help.Render("ctrl+r create an account  esc quit"))
	case ModeRegister:
		sb.WriteString(styles.Help.Render("ctrl+r back to sign in  esc quit"))
	}
	return sb.String()
}
