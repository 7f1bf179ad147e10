package ui

import (
	"context"
	"fmt"
	"os/user"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Dicklesworthstone/proctop/internal/config"
	"github.com/Dicklesworthstone/proctop/internal/model"
	"github.com/Dicklesworthstone/proctop/internal/sampler"
)

// Model renders live snapshots from the sampler.
type Model struct {
	cfg       config.Config
	latest    model.Snapshot
	stream    <-chan model.Snapshot
	errs      <-chan error
	smp       *sampler.Sampler
	ctxCancel context.CancelFunc

	threads bool
	sortBy  string
	status  string
	users   map[uint32]string // uid -> username, display-only cache
	width   int
	height  int
}

func New(cfg config.Config) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	s := sampler.New(cfg.Interval)
	if cfg.Threads {
		s.SetThreadDetail(true)
	}
	return &Model{
		cfg:       cfg,
		stream:    s.Stream(ctx),
		errs:      s.Errors(),
		smp:       s,
		ctxCancel: cancel,
		threads:   cfg.Threads,
		sortBy:    cfg.Sort,
		users:     make(map[uint32]string),
		width:     120,
		height:    40,
	}
}

// Messages
type tickMsg struct{}

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctxCancel()
			return m, tea.Quit
		case "t":
			m.threads = !m.threads
			m.smp.SetThreadDetail(m.threads)
		case "c":
			m.sortBy = "cpu"
		case "m":
			m.sortBy = "mem"
		case "p":
			m.sortBy = "pid"
		}
	case tickMsg:
		select {
		case snap, ok := <-m.stream:
			if ok {
				m.latest = snap
				m.status = ""
			}
		default:
		}
		select {
		case err := <-m.errs:
			if err != nil {
				m.status = err.Error()
			}
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("proctop") + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05")) + "  " +
		subtleStyle.Render("up "+formatUptime(s.Uptime))

	cpuBody := "warming up…"
	if s.CPUAvg != nil {
		cpuBody = gaugeBar(*s.CPUAvg, 28)
	}
	cpuCard := card("CPU",
		fmt.Sprintf("%s  load %.2f %.2f %.2f",
			cpuBody, s.Load.One, s.Load.Five, s.Load.Fifteen))

	memCard := card("Memory",
		fmt.Sprintf("%s  %s/%s | Swap %3.0f%%",
			gaugeBar(pct(s.Memory.MemUsed, s.Memory.MemTotal), 28),
			humanize.IBytes(s.Memory.MemUsed),
			humanize.IBytes(s.Memory.MemTotal),
			pct(s.Memory.SwapUsed, s.Memory.SwapTotal)))

	countCard := card("Tasks",
		fmt.Sprintf("%d tasks, %d threads, %d kthreads",
			s.Counts.Tasks, s.Counts.Threads, s.Counts.KernelThreads))

	coreCard := ""
	if len(s.PerCPU) > 0 {
		lines := make([]string, 0, len(s.PerCPU))
		for i, p := range s.PerCPU {
			lines = append(lines, fmt.Sprintf("cpu%-2d %s", i, gaugeBar(p, 18)))
		}
		coreCard = card("Cores", strings.Join(lines, "\n"))
	}

	rows := m.tableRows(s.Processes)
	tableCard := card(fmt.Sprintf("Processes (sort: %s)", m.sortBy), rows)

	columns := []string{cpuCard, memCard, countCard}
	line1 := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, tableCard, coreCard)

	out := lipgloss.JoinVertical(lipgloss.Left, header, line1, line2)
	if m.status != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, warnStyle.Render(m.status))
	}
	help := subtleStyle.Render("q quit · t threads · c/m/p sort")
	return lipgloss.JoinVertical(lipgloss.Left, out, help)
}

func (m *Model) tableRows(procs []model.ProcessInfo) string {
	rows := make([]model.ProcessInfo, len(procs))
	copy(rows, procs)
	switch m.sortBy {
	case "mem":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Memory > rows[j].Memory })
	case "pid":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].PID < rows[j].PID })
	default:
		sort.SliceStable(rows, func(i, j int) bool { return cpuOf(rows[i]) > cpuOf(rows[j]) })
	}

	limit := m.height - 14
	if limit < 5 {
		limit = 5
	}
	if limit > len(rows) {
		limit = len(rows)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-7s %-10s %-2s %-7s %-8s %-8s %-4s %s\n",
		"pid", "user", "st", "cpu%", "res", "virt", "thr", "command")
	for i := 0; i < limit; i++ {
		r := rows[i]
		cmd := r.Cmdline
		if cmd == "" {
			cmd = "[" + r.Name + "]"
		}
		fmt.Fprintf(&b, "%-7d %-10s %-2s %-7s %-8s %-8s %-4d %s\n",
			r.PID,
			truncate(m.username(r.UID), 10),
			r.State,
			formatCPU(r.CPUPercent),
			humanize.IBytes(r.Memory),
			humanize.IBytes(r.VirtualMemory),
			r.NumThreads,
			truncate(cmd, 48))
	}
	return strings.TrimRight(b.String(), "\n")
}

// username resolves a uid for display, caching lookups for the lifetime
// of the program. Cache state is local to the UI and never shared.
func (m *Model) username(uid *uint32) string {
	if uid == nil {
		return "?"
	}
	if name, ok := m.users[*uid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(*uid), 10)
	if u, err := user.LookupId(name); err == nil && u.Username != "" {
		name = u.Username
	}
	m.users[*uid] = name
	return name
}

// Helpers

func cpuOf(p model.ProcessInfo) float64 {
	if p.CPUPercent == nil {
		return -1
	}
	return *p.CPUPercent
}

func formatCPU(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *p)
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	day := d / (24 * time.Hour)
	d -= day * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	min := d / time.Minute
	if day > 0 {
		return fmt.Sprintf("%dd %dh %dm", day, h, min)
	}
	return fmt.Sprintf("%dh %dm", h, min)
}

func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pct(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) * 100 / float64(total)
}

// RunTUI starts the Bubble Tea program.
func RunTUI(cfg config.Config) error {
	prog := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
