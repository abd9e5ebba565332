package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"frontier/internal/core/app"
	"frontier/internal/engine/attribution"
	"frontier/internal/engine/dataset"
	"frontier/internal/engine/selection"
)

type pane int

const (
	paneModules pane = iota
	paneFunctions
	paneBlocks
)

type moduleItem struct {
	id     int
	name   string
	status dataset.Status
	desc   string
}

func (i moduleItem) Title() string       { return fmt.Sprintf("%s [%s]", i.name, i.status) }
func (i moduleItem) Description() string { return i.desc }
func (i moduleItem) FilterValue() string { return i.name }

// reloadMsg is injected by the watcher callback after a dataset reload.
type reloadMsg struct {
	analysis *app.Analysis
}

type Model struct {
	app *app.App

	pane      pane
	modules   list.Model
	functions table.Model
	blocks    table.Model

	// cursor-parallel id slices; bubbles tables carry strings only
	functionIDs []dataset.FunctionID
	blockRVAs   []uint64

	analysis   *app.Analysis
	lastUpdate time.Time
	status     string
	width      int
	height     int
}

func NewModel(a *app.App) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Modules"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	functions := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Function", Width: 36},
			{Title: "Status", Width: 8},
			{Title: "NewBB", Width: 6},
			{Title: "Class", Width: 9},
			{Title: "Frontier", Width: 8},
		}),
		table.WithHeight(12),
	)
	blocks := table.New(
		table.WithColumns([]table.Column{
			{Title: "RVA", Width: 12},
			{Title: "Size", Width: 6},
			{Title: "Status", Width: 8},
			{Title: "Frontier", Width: 8},
			{Title: "Contrib%", Width: 8},
		}),
		table.WithHeight(12),
	)

	m := Model{
		app:        a,
		modules:    l,
		functions:  functions,
		blocks:     blocks,
		lastUpdate: time.Now(),
	}
	m.refreshModules()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.pane = (m.pane + 1) % 3
			m.syncFocus()
			return m, nil
		case "enter":
			return m.handleEnter()
		case "esc":
			return m.handleClear()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := docStyle.GetFrameSize()
		m.modules.SetSize(msg.Width-h, msg.Height-v-6)
	case reloadMsg:
		m.analysis = msg.analysis
		m.lastUpdate = time.Now()
		m.status = "dataset reloaded"
		m.refreshModules()
		m.refreshFunctions()
		m.refreshBlocks()
	}

	var cmd tea.Cmd
	switch m.pane {
	case paneModules:
		m.modules, cmd = m.modules.Update(msg)
	case paneFunctions:
		m.functions, cmd = m.functions.Update(msg)
	case paneBlocks:
		m.blocks, cmd = m.blocks.Update(msg)
	}
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.pane {
	case paneModules:
		item, ok := m.modules.SelectedItem().(moduleItem)
		if !ok {
			return m, nil
		}
		if _, err := m.app.Apply(context.Background(), item.id, m.app.Config.Filters()); err != nil {
			m.status = err.Error()
			return m, nil
		}
		analysis, err := m.app.SelectModule(item.id)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.analysis = analysis
		m.pane = paneFunctions
		m.refreshFunctions()
		m.refreshBlocks()
		m.syncFocus()
		m.status = fmt.Sprintf("applied module %d", item.id)

	case paneFunctions:
		idx := m.functions.Cursor()
		if idx < 0 || idx >= len(m.functionIDs) {
			return m, nil
		}
		gid := m.functionIDs[idx]
		analysis, err := m.app.SelectFunction(gid)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.analysis = analysis
		m.refreshBlocks()
		m.status = fmt.Sprintf("focused %s", gid)

	case paneBlocks:
		idx := m.blocks.Cursor()
		if idx < 0 || idx >= len(m.blockRVAs) {
			return m, nil
		}
		sel := m.analysis.Selection
		if sel.Function == nil {
			return m, nil
		}
		analysis, err := m.app.SelectBlock(selection.BlockRef{
			Function: *sel.Function,
			RVA:      m.blockRVAs[idx],
		})
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.analysis = analysis
		m.status = fmt.Sprintf("selected block %#x", m.blockRVAs[idx])
	}
	return m, nil
}

func (m Model) handleClear() (tea.Model, tea.Cmd) {
	if m.analysis == nil {
		return m, nil
	}
	var (
		analysis *app.Analysis
		err      error
	)
	if m.analysis.Selection.Function != nil {
		analysis, err = m.app.ClearFunctionSelection()
	} else {
		analysis, err = m.app.ClearSelection()
		m.pane = paneModules
	}
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.analysis = analysis
	m.refreshBlocks()
	m.syncFocus()
	m.status = "selection cleared"
	return m, nil
}

func (m *Model) syncFocus() {
	m.functions.Blur()
	m.blocks.Blur()
	switch m.pane {
	case paneFunctions:
		m.functions.Focus()
	case paneBlocks:
		m.blocks.Focus()
	}
}

func (m *Model) refreshModules() {
	ds := m.app.Dataset()
	if ds == nil {
		m.modules.SetItems(nil)
		return
	}
	items := make([]list.Item, 0, len(ds.Modules))
	for _, mod := range ds.Modules {
		sum := attribution.SummarizeModule(mod)
		items = append(items, moduleItem{
			id:     mod.ID,
			name:   mod.Name,
			status: mod.Status,
			desc: fmt.Sprintf("%d funcs, %d/%d new blocks",
				len(mod.Functions), sum.NewBlocks, sum.TotalBlocks),
		})
	}
	m.modules.SetItems(items)
}

func (m *Model) refreshFunctions() {
	m.functionIDs = m.functionIDs[:0]
	if m.analysis == nil {
		m.functions.SetRows(nil)
		return
	}
	rows := make([]table.Row, 0, len(m.analysis.Graph.Nodes))
	for _, n := range m.analysis.Graph.Nodes {
		m.functionIDs = append(m.functionIDs, n.ID)
		rows = append(rows, table.Row{
			n.ID.String(),
			n.Name,
			string(n.Status),
			fmt.Sprintf("%d", n.TotalNewBB),
			string(n.CoverageClass),
			string(n.FrontierStyle),
		})
	}
	m.functions.SetRows(rows)
}

func (m *Model) refreshBlocks() {
	m.blockRVAs = m.blockRVAs[:0]
	m.blocks.SetRows(nil)
	if m.analysis == nil || m.analysis.Selection.Function == nil {
		return
	}
	ds := m.app.Dataset()
	if ds == nil {
		return
	}
	fn, ok := ds.FunctionByGID(*m.analysis.Selection.Function)
	if !ok {
		return
	}
	rows := make([]table.Row, 0, len(fn.Blocks))
	for _, b := range fn.Blocks {
		m.blockRVAs = append(m.blockRVAs, b.RVA)
		frontier := "-"
		contrib := "-"
		if attribution.IsFrontierCandidate(b) {
			frontier = string(b.FrontierType)
			pct := attribution.ContributionPercent(b, fn)
			contrib = lipgloss.NewStyle().
				Foreground(lipgloss.Color(attribution.ContributionColor(pct))).
				Render(fmt.Sprintf("%.1f", pct))
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%#x", b.RVA),
			fmt.Sprintf("%d", b.Size),
			string(b.Status),
			frontier,
			contrib,
		})
	}
	m.blocks.SetRows(rows)
}

func (m Model) View() string {
	header := titleStyle("Coverage Frontier Explorer")

	var summary string
	if m.analysis == nil {
		summary = statusStyle.Render("no module applied, pick one and press enter")
	} else {
		g := m.analysis.Graph
		strong, weak := 0, 0
		for _, n := range g.Nodes {
			switch n.FrontierStyle {
			case attribution.StyleStrong:
				strong++
			case attribution.StyleWeak:
				weak++
			}
		}
		summary = fmt.Sprintf("%s | %s | %s",
			successStyle.Render(fmt.Sprintf("%d nodes / %d edges", len(g.Nodes), len(g.Edges))),
			strongStyle.Render(fmt.Sprintf("%d strong", strong)),
			weakStyle.Render(fmt.Sprintf("%d weak", weak)))
	}

	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %s",
		m.lastUpdate.Format("15:04:05"), m.status))

	var body string
	switch m.pane {
	case paneModules:
		body = activePaneStyle.Render(m.modules.View())
	case paneFunctions:
		body = lipgloss.JoinVertical(lipgloss.Left,
			activePaneStyle.Render(m.functions.View()),
			paneStyle.Render(m.blocks.View()))
	case paneBlocks:
		body = lipgloss.JoinVertical(lipgloss.Left,
			paneStyle.Render(m.functions.View()),
			activePaneStyle.Render(m.blocks.View()))
	}

	return docStyle.Render(header + "\n" + summary + "\n" + status + "\n\n" + body)
}
