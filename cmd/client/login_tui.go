package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

// Strings
const (
	txtPasswordPlaceholder = "parola"
	txtPasswordPrompt      = "Enter your TotalApp password"
	txtSigningIn           = "Signing in..."
	txtEmptyPassword       = "Password cannot be empty"
	txtLoginFailed         = "Login failed"
	txtLoginHelp           = "Press 'Enter' to submit. 'Esc' or 'Ctrl+C' to quit."
)

// Styles
var (
	focusedStyle     = green
	helpStyle        = gray
	errorTextStyle   = red
	errorHeaderStyle = red.Bold(true)
	spinnerStyle     = cyan
	placeholderStyle = gray
	titleStyle       = cyan.Bold(true)
)

var errLoginCancelled = errors.New("login cancelled by user")

type LoginTUIOpts struct {
	ServerURL     string
	ConfigPath    string
	SubmitHandler func(password string) error
}

type loginModel struct {
	opts *LoginTUIOpts

	passwordInput textinput.Model
	spinner       spinner.Model

	isLoading    bool
	done         bool
	errorMessage string
}

type passwordProcessedMsg struct{ err error }

func newLoginModel(opts *LoginTUIOpts) loginModel {
	password := textinput.New()
	password.Placeholder = txtPasswordPlaceholder
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Focus()
	password.CharLimit = 128
	password.Width = 40
	password.PromptStyle = focusedStyle
	password.TextStyle = focusedStyle
	password.PlaceholderStyle = placeholderStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return loginModel{
		opts:          opts,
		passwordInput: password,
		spinner:       s,
	}
}

func (m loginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			return m.submitPassword()
		}

		if m.passwordInput.Focused() {
			m.errorMessage = ""
			m.passwordInput, cmd = m.passwordInput.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case passwordProcessedMsg:
		return m.handlePasswordMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m loginModel) submitPassword() (tea.Model, tea.Cmd) {
	password := m.passwordInput.Value()
	if strings.TrimSpace(password) == "" {
		m.errorMessage = txtEmptyPassword
		return m, nil
	}

	m.errorMessage = ""
	m.isLoading = true
	m.passwordInput.Blur()

	return m, func() tea.Msg {
		return passwordProcessedMsg{err: m.opts.SubmitHandler(password)}
	}
}

func (m loginModel) handlePasswordMsg(msg passwordProcessedMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false

	if msg.err != nil {
		m.errorMessage = fmt.Sprintf("%s %s", errorHeaderStyle.Render("ERROR:"), totalsdk.UserMessage(msg.err, txtLoginFailed))
		m.passwordInput.SetValue("")
		m.passwordInput.Focus()
		return m, textinput.Blink
	}

	m.done = true
	return m, tea.Quit
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TotalApp"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Server  "), green.Render(m.opts.ServerURL)))
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Config  "), green.Render(m.opts.ConfigPath)))
	b.WriteString("\n")

	b.WriteString(txtPasswordPrompt)
	b.WriteString("\n\n")
	b.WriteString(m.passwordInput.View())

	if m.isLoading {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), txtSigningIn))
	}
	if m.errorMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(errorTextStyle.Render(m.errorMessage))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(txtLoginHelp))
	b.WriteString("\n")
	return b.String()
}

// RunLoginTUI prompts for the password until SubmitHandler accepts it or the
// user quits.
func RunLoginTUI(opts LoginTUIOpts) error {
	model, err := tea.NewProgram(newLoginModel(&opts)).Run()
	if err != nil {
		return fmt.Errorf("login prompt: %w", err)
	}
	if fm, ok := model.(loginModel); !ok || !fm.done {
		return errLoginCancelled
	}
	return nil
}
