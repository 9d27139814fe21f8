package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latticeforge/swarm/internal/config"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

var (
	setupTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("99")).
				MarginBottom(1)

	setupDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	setupErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

// setupStep walks the wizard through the config fields that matter most
// to getting a Coordinator running: agent identity, trust tuning, and
// storage location. Provider/LLM setup is out of scope here (§ non-goal
// everywhere this runtime stops short of the teacher's LLM wizard).
type setupStep int

const (
	stepAgentID setupStep = iota
	stepWorkspace
	stepTrustSeed
	stepQuorumMinTrust
	stepStoragePath
	stepDone
)

type setupField struct {
	step   setupStep
	prompt string
	apply  func(*config.Config, string) error
}

var setupFields = []setupField{
	{stepAgentID, "Agent ID", func(c *config.Config, v string) error {
		if v == "" {
			return swarmerr.New(swarmerr.KindInput, "agent.id", "must not be empty")
		}
		c.Agent.ID = v
		return nil
	}},
	{stepWorkspace, "Workspace directory", func(c *config.Config, v string) error {
		if v != "" {
			c.Agent.Workspace = v
		}
		return nil
	}},
	{stepTrustSeed, "Trust seed value (0.0-1.0)", func(c *config.Config, v string) error {
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return swarmerr.New(swarmerr.KindInput, "trust.seed_value", "must be a number in [0,1]")
		}
		c.Trust.SeedValue = f
		return nil
	}},
	{stepQuorumMinTrust, "Coordinator quorum minimum trust (0.0-1.0)", func(c *config.Config, v string) error {
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return swarmerr.New(swarmerr.KindInput, "coordinator.quorum_min_trust", "must be a number in [0,1]")
		}
		c.Coordinator.QuorumMinTrust = f
		return nil
	}},
	{stepStoragePath, "Storage directory", func(c *config.Config, v string) error {
		if v != "" {
			c.Storage.Path = v
		}
		return nil
	}},
}

type setupModel struct {
	cfg      *config.Config
	field    int
	input    textinput.Model
	err      string
	quit     bool
	outputTo string
}

func newSetupModel(output string) setupModel {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return setupModel{
		cfg:      config.Default(),
		input:    ti,
		outputTo: output,
	}
}

func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.field >= len(setupFields) {
				return m, tea.Quit
			}
			f := setupFields[m.field]
			if err := f.apply(m.cfg, m.input.Value()); err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.err = ""
			m.field++
			m.input.SetValue("")
			if m.field >= len(setupFields) {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.field >= len(setupFields) {
		return "writing " + m.outputTo + "...\n"
	}
	s := setupTitleStyle.Render("Swarm Runtime Setup") + "\n"
	s += setupFields[m.field].prompt + "\n"
	s += m.input.View() + "\n"
	if m.err != "" {
		s += setupErrorStyle.Render(m.err) + "\n"
	}
	s += setupDimStyle.Render("Enter to continue, Esc to cancel")
	return s
}

// Run implements kong.Run for SetupCmd.
func (c *SetupCmd) Run() error {
	if _, err := os.Stat(c.Output); err == nil {
		return swarmerr.New(swarmerr.KindInput, c.Output, "already exists; remove it first")
	}

	m := newSetupModel(c.Output)
	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindFatal, "", "running setup wizard", err)
	}

	final := result.(setupModel)
	if final.quit && final.field < len(setupFields) {
		return swarmerr.New(swarmerr.KindInput, "", "setup cancelled")
	}

	f, err := os.OpenFile(c.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, c.Output, "creating config file", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(final.cfg); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, c.Output, "encoding config", err)
	}

	fmt.Printf("wrote %s\n", c.Output)
	return nil
}
