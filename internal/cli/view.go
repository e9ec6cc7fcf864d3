package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagraph/pkg/config"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/observability"
	"github.com/matzehuels/lineagraph/pkg/render"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

const (
	zoomStep   = 1.25
	panStep    = 4 * cellWidth
	frameDelay = time.Second / 30
	// chromeRows are the status and help lines below the canvas.
	chromeRows = 2
)

// viewCommand creates the interactive viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "view [graph.json|graph.yaml|mongo:<name>]",
		Short: "Explore a lineage graph in the terminal",
		Long: `Explore a lineage graph in the terminal.

The graph is laid out in the background and drawn as text with a minimap.

Keys:
  + / -       zoom in / out
  arrows      pan
  f           fit the content
  0           reset zoom
  n           center the next node
  r           rotate the flow direction
  q           quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runView(ctx context.Context, arg string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	in, err := c.loadInput(ctx, cfg, arg)
	if err != nil {
		return err
	}
	if in.Graph == nil {
		return fmt.Errorf("%s is a layout; view needs a graph", arg)
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	// The TUI owns the terminal; keep log output out of it.
	defer c.quiet()()

	bridge := layout.New(runner,
		layout.WithKeepPreviousGraph(cfg.Layout.KeepPreviousGraph),
		layout.WithTimeout(cfg.Layout.Timeout),
		layout.WithLogger(c.Logger),
	)
	defer bridge.Close()

	m, err := newViewModel(ctx, cfg, in.Graph, bridge)
	if err != nil {
		return err
	}
	if err := m.request(); err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

type (
	stateMsg  layout.State
	tickMsg   time.Time
	closedMsg struct{}
)

// viewModel is the bubbletea model of the viewer. Camera state lives in the
// controller, which is safe to share with the copies bubbletea makes.
type viewModel struct {
	ctx     context.Context
	bridge  *layout.Bridge
	updates <-chan layout.State
	ctrl    *viewport.Controller
	memo    *scene.Memo
	resolve layout.OptionsResolver

	graph   *graph.Graph
	dir     graph.Direction
	padding float64

	placement minimap.Placement
	miniScale float64

	state  layout.State
	scene  *scene.Scene
	ids    []string
	cursor int
	cols   int
	rows   int
	status string
}

func newViewModel(ctx context.Context, cfg config.Config, g *graph.Graph, bridge *layout.Bridge) (*viewModel, error) {
	ctrl, err := viewport.New(cfg.Viewport.ControllerOptions()...)
	if err != nil {
		return nil, err
	}
	dir := g.Direction
	if dir == "" {
		dir = graph.Direction(cfg.Layout.Direction).OrDefault()
	}
	return &viewModel{
		ctx:       ctx,
		bridge:    bridge,
		updates:   bridge.Updates(),
		ctrl:      ctrl,
		memo:      scene.NewMemo(),
		resolve:   render.DefaultRegistry().Resolver(),
		graph:     g,
		dir:       dir,
		padding:   cfg.Viewport.Padding,
		placement: cfg.Render.Placement(),
		miniScale: cfg.Render.MiniMapScale,
		state:     bridge.State(),
	}, nil
}

func (m *viewModel) request() error {
	return m.bridge.Request(m.graph.Nodes, m.graph.Edges, m.dir, m.resolve)
}

func (m *viewModel) Init() tea.Cmd {
	return m.waitState()
}

func (m *viewModel) waitState() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

// animate schedules a redraw while a camera transition runs.
func (m *viewModel) animate() tea.Cmd {
	if !m.ctrl.Animating() {
		return nil
	}
	return tea.Tick(frameDelay, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.setState(layout.State(msg))
		return m, tea.Batch(m.waitState(), m.animate())
	case closedMsg:
		return m, tea.Quit
	case tickMsg:
		return m, m.animate()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.animate()
	case tea.KeyMsg:
		if m.key(msg.String()) {
			return m, tea.Quit
		}
		return m, m.animate()
	}
	return m, nil
}

func (m *viewModel) setState(s layout.State) {
	m.state = s
	m.scene = m.memo.Get(s.Layout)
	m.ctrl.SetScene(m.scene)
	m.ids = m.ids[:0]
	for _, f := range m.scene.Nodes {
		m.ids = append(m.ids, f.Node.ID)
	}
	if m.cursor >= len(m.ids) {
		m.cursor = 0
	}
}

func (m *viewModel) resize(width, height int) {
	m.cols, m.rows = width, max(height-chromeRows, 0)
	m.ctrl.SetSize(float64(m.cols)*cellWidth, float64(m.rows)*cellHeight)
}

// key handles one key press and reports whether to quit.
func (m *viewModel) key(k string) bool {
	var (
		op      string
		changed bool
	)
	switch k {
	case "q", "ctrl+c", "esc":
		return true
	case "+", "=":
		op, changed = viewport.OpScaleZoom, m.ctrl.ScaleZoom(zoomStep)
	case "-", "_":
		op, changed = viewport.OpScaleZoom, m.ctrl.ScaleZoom(1/zoomStep)
	case "f":
		op, changed = viewport.OpFitContent, m.ctrl.FitContent(m.padding)
	case "0":
		op, changed = viewport.OpResetZoom, m.ctrl.ResetZoom()
	case "up":
		op, changed = "pan", m.ctrl.Pan(0, panStep)
	case "down":
		op, changed = "pan", m.ctrl.Pan(0, -panStep)
	case "left":
		op, changed = "pan", m.ctrl.Pan(panStep, 0)
	case "right":
		op, changed = "pan", m.ctrl.Pan(-panStep, 0)
	case "n":
		if len(m.ids) == 0 {
			return false
		}
		id := m.ids[m.cursor%len(m.ids)]
		m.cursor = (m.cursor + 1) % len(m.ids)
		op, changed = viewport.OpCenterOnPositionedNode, m.ctrl.CenterOnPositionedNode(id)
		m.status = "centered " + id
	case "r":
		m.dir = nextDirection(m.dir)
		if err := m.request(); err != nil {
			m.status = errors.UserMessage(err)
		} else {
			m.status = "direction " + string(m.dir)
		}
		return false
	default:
		return false
	}
	observability.Camera().OnCameraCommand(m.ctx, op, changed)
	return false
}

// nextDirection rotates through [graph.Directions].
func nextDirection(d graph.Direction) graph.Direction {
	i := slices.Index(graph.Directions, d.OrDefault())
	return graph.Directions[(i+1)%len(graph.Directions)]
}

// =============================================================================
// View
// =============================================================================

var (
	viewCanvasStyle = lipgloss.NewStyle().Foreground(colorWhite)
	viewStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	viewErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	viewBusyStyle   = lipgloss.NewStyle().Foreground(colorCyan)
)

func (m *viewModel) View() string {
	if m.cols == 0 || m.rows == 0 {
		return ""
	}
	t := m.ctrl.Transform()
	r := newRaster(m.cols, m.rows)
	if m.scene.Empty() {
		msg := "No data"
		r.text((m.cols-len(msg))/2, m.rows/2, msg, m.cols)
	} else {
		r.drawScene(m.scene, t)
		r.drawMiniMap(m.scene, t, m.placement, m.miniScale)
	}

	var b strings.Builder
	b.WriteString(viewCanvasStyle.Render(r.String()))
	b.WriteString("\n")
	b.WriteString(m.statusLine(t))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("+/- zoom  arrows pan  f fit  0 reset  n next node  r direction  q quit"))
	return b.String()
}

func (m *viewModel) statusLine(t viewport.Transform) string {
	parts := []string{
		viewStatusStyle.Render(fmt.Sprintf("%d nodes", m.state.Layout.NodeCount())),
		viewStatusStyle.Render("dir " + string(m.dir)),
		viewStatusStyle.Render(fmt.Sprintf("zoom %.2f", t.K)),
	}
	if m.state.IsRendering {
		parts = append(parts, viewBusyStyle.Render("laying out…"))
	}
	if m.state.Err != nil {
		parts = append(parts, viewErrorStyle.Render(errors.UserMessage(m.state.Err)))
	}
	if m.status != "" {
		parts = append(parts, StyleDim.Render(m.status))
	}
	return joinStatus(parts...)
}
