// Package browse is an interactive terminal browser for the job catalog. One
// list pane over the stored postings, filter cycling for level/category/
// remote, and a scrollable detail view per posting.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/store"
)

// Lister is the read-side slice of the store the browser needs.
type Lister interface {
	List(ctx context.Context, f store.Filter) ([]model.JobPosting, int, error)
}

// Lines per posting in the list view (title + subtitle + blank separator).
const itemHeight = 3

const queryLimit = 200

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// levelCycle and categoryCycle drive the l/c filter keys; the empty entry
// means "no filter".
var levelCycle = []model.Level{"", model.LevelInternship, model.LevelJunior, model.LevelMid}

var categoryCycle = []model.Category{
	"", model.CategoryFrontend, model.CategoryBackend, model.CategoryFullstack, model.CategoryMobile,
}

type jobsLoadedMsg struct {
	jobs  []model.JobPosting
	total int
	err   error
}

type browseModel struct {
	lister Lister

	jobs   []model.JobPosting
	total  int
	cursor int

	levelIdx    int
	categoryIdx int
	remoteOnly  bool
	loading     bool
	loadError   string

	view           viewState
	detailJob      model.JobPosting
	detailViewport viewport.Model

	listViewport viewport.Model
	width        int
	height       int
	ready        bool
	wantQuit     bool
}

func (m browseModel) Init() tea.Cmd {
	return m.loadJobs()
}

func (m browseModel) loadJobs() tea.Cmd {
	lister := m.lister
	filter := m.currentFilter()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		jobs, total, err := lister.List(ctx, filter)
		return jobsLoadedMsg{jobs: jobs, total: total, err: err}
	}
}

func (m browseModel) currentFilter() store.Filter {
	f := store.Filter{Limit: queryLimit}
	if lvl := levelCycle[m.levelIdx]; lvl != "" {
		f.Levels = []model.Level{lvl}
	}
	if cat := categoryCycle[m.categoryIdx]; cat != "" {
		f.Categories = []model.Category{cat}
	}
	if m.remoteOnly {
		remote := true
		f.Remote = &remote
	}
	return f
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case jobsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadError = fmt.Sprintf("loading jobs: %v", msg.err)
			return m, nil
		}
		m.loadError = ""
		m.jobs = msg.jobs
		m.total = msg.total
		m.cursor = clamp(m.cursor, 0, max(len(m.jobs)-1, 0))
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.wantQuit = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "l":
		m.levelIdx = (m.levelIdx + 1) % len(levelCycle)
		m.loading = true
		return m, m.loadJobs()
	case "c":
		m.categoryIdx = (m.categoryIdx + 1) % len(categoryCycle)
		m.loading = true
		return m, m.loadJobs()
	case "r":
		m.remoteOnly = !m.remoteOnly
		m.loading = true
		return m, m.loadJobs()
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailJob.URL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailJob = m.jobs[m.cursor]
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) ensureCursorVisible() {
	cursorTop := m.cursor * itemHeight
	cursorBottom := cursorTop + itemHeight - 1

	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	width := max(m.width-2, 20)
	// Header (1) + border top/bottom (2) + status bar (1).
	height := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.listViewport.Width = width
		m.listViewport.Height = height
	}
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderJobs(m.jobs, m.cursor))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) filterLabel() string {
	parts := []string{}
	if lvl := levelCycle[m.levelIdx]; lvl != "" {
		parts = append(parts, string(lvl))
	}
	if cat := categoryCycle[m.categoryIdx]; cat != "" {
		parts = append(parts, string(cat))
	}
	if m.remoteOnly {
		parts = append(parts, "remote")
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " + ")
}

func (m browseModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" Jobs (%d of %d) — %s", len(m.jobs), m.total, m.filterLabel()))
	if m.loading {
		header += subtitleStyle.Render("  loading...")
	}

	pane := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	statusText := " ↑/↓ cursor  Enter detail  l level  c category  r remote  q quit"
	if m.loadError != "" {
		statusText = " " + m.loadError
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Level", string(j.Level))
	addField("Category", string(j.Category))
	if j.Remote {
		addField("Remote", "yes")
	}
	addField("Salary", j.Salary)
	addField("Source", j.SourceName)
	if len(j.Tags) > 0 {
		addField("Tags", strings.Join(j.Tags, ", "))
	}
	if j.PostedAt != nil {
		addField("Posted", j.PostedAt.Format("2006-01-02"))
	}
	addField("Added", j.CreatedAt.Format("2006-01-02"))

	b.WriteByte('\n')
	addField("URL", j.URL)

	if j.Description != "" {
		wrapWidth := max(m.width-8, 20)
		fill := strings.Repeat("─", max(wrapWidth-len("── Description "), 3))
		b.WriteByte('\n')
		b.WriteString(dividerStyle.Render("── Description "+fill) + "\n\n")
		b.WriteString(bodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
	}

	return b.String()
}

func renderJobs(jobs []model.JobPosting, cursor int) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt := titleStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		b.WriteByte('\n')

		where := j.Location
		if j.Remote {
			if where != "" {
				where += " · remoto"
			} else {
				where = "remoto"
			}
		}
		if where == "" {
			where = "n/a"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.Company, where, j.SourceName)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the catalog browser and blocks until the user quits.
func Run(lister Lister) error {
	m := browseModel{lister: lister, loading: true}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
