package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"liscraper/pkg/harvester"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// progressMsg carries one harvester snapshot into the view.
type progressMsg harvester.Progress

// stopMsg ends the program from outside, e.g. when the run errors out.
type stopMsg struct{}

// HarvestView is a live terminal view of a running harvest.
type HarvestView struct {
	program *tea.Program
}

type harvestModel struct {
	spinner spinner.Model
	latest  harvester.Progress
	done    bool
}

// NewHarvestView creates the view; Start must be called to render it.
func NewHarvestView() *HarvestView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := harvestModel{spinner: s}
	return &HarvestView{program: tea.NewProgram(m)}
}

// Start runs the view until the harvest finishes. Blocks; run the harvester
// in a goroutine.
func (v *HarvestView) Start() error {
	_, err := v.program.Run()
	return err
}

// Publish feeds a harvester snapshot into the view. Safe from any goroutine.
func (v *HarvestView) Publish(p harvester.Progress) {
	v.program.Send(progressMsg(p))
}

// Stop tears the view down without waiting for a Done snapshot.
func (v *HarvestView) Stop() {
	v.program.Send(stopMsg{})
}

func (m harvestModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m harvestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.latest = harvester.Progress(msg)
		if m.latest.Done {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case stopMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// Let the shutdown coordinator handle the actual interrupt; the
			// view just stops drawing.
			return m, tea.Quit
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m harvestModel) View() string {
	if m.done {
		return doneStyle.Render(fmt.Sprintf("✓ Harvest complete: %d records\n", m.latest.TotalRecords))
	}

	header := titleStyle.Render("Harvesting listing")
	body := fmt.Sprintf("%s %s\n\n%s %s   %s %s   %s %s   %s %s\n",
		m.spinner.View(), header,
		labelStyle.Render("iteration"), statStyle.Render(fmt.Sprintf("%d", m.latest.Iteration)),
		labelStyle.Render("visible"), statStyle.Render(fmt.Sprintf("%d", m.latest.VisibleItems)),
		labelStyle.Render("records"), statStyle.Render(fmt.Sprintf("%d", m.latest.TotalRecords)),
		labelStyle.Render("stalls"), statStyle.Render(fmt.Sprintf("%d", m.latest.Stalls)),
	)
	return body
}
