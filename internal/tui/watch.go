package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/xcbridge/internal/bridge"
	"github.com/muurk/xcbridge/internal/entity"
)

// commandTimeout bounds a single device command issued from the console.
const commandTimeout = 5 * time.Second

// Messages for async operations
type bridgeReadyMsg struct{}
type bridgeFailedMsg struct{ err error }
type entityEventMsg struct{}
type commandResultMsg struct{ err error }

// watchKeyMap defines key bindings for the live console
type watchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Dim    key.Binding
	Bright key.Binding
	Open   key.Binding
	Close  key.Binding
	Stop   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Bright, k.Dim},
		{k.Open, k.Close, k.Stop},
		{k.Help, k.Quit},
	}
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " ", "t"),
			key.WithHelp("enter/t", "toggle"),
		),
		Bright: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "brighter"),
		),
		Dim: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "dimmer"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open shade"),
		),
		Close: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "close shade"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop shade"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// rowKind distinguishes device rows from room rows in the flattened list
type rowKind int

const (
	rowDevice rowKind = iota
	rowRoom
)

// watchRow is one selectable line in the console
type watchRow struct {
	kind   rowKind
	device entity.Device
	room   *entity.Room
}

// WatchModel is the live console screen. It waits for the bridge's initial
// datapoint load, then rebuilds its rows whenever any entity broadcasts a
// new state.
type WatchModel struct {
	Bridge  *bridge.Bridge
	Address string

	// Connection state
	Ready bool
	Err   error

	// Row state
	Rows   []watchRow
	Cursor int

	// Last command error shown in the status bar
	LastCmdErr error

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap

	// events funnels entity cell broadcasts into the bubbletea loop
	events chan struct{}
	subs   []*entity.Subscription
}

// NewWatchModel creates the console model for a bridge that is already
// running its supervisor loop.
func NewWatchModel(b *bridge.Bridge, address string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		Bridge:  b,
		Address: address,
		Spinner: s,
		Help:    help.New(),
		Keys:    defaultWatchKeys(),
		events:  make(chan struct{}, 64),
	}
}

// Init starts the spinner and waits for the bridge to finish its initial
// load.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, waitForBridge(m.Bridge))
}

// waitForBridge blocks until the bridge reports the full datapoint load
func waitForBridge(b *bridge.Bridge) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := b.WaitForInitialization(ctx); err != nil {
			return bridgeFailedMsg{err: err}
		}
		return bridgeReadyMsg{}
	}
}

// waitForEvent delivers the next entity broadcast to the update loop
func (m WatchModel) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		<-events
		return entityEventMsg{}
	}
}

// notify is the subscription callback shared by every cell. A full channel
// is fine: one pending event already forces a rebuild from live state.
func (m *WatchModel) notify() {
	select {
	case m.events <- struct{}{}:
	default:
	}
}

// Update handles all messages
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.Ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case bridgeReadyMsg:
		m.Ready = true
		m.subscribeAll()
		m.Rows = buildRows(m.Bridge.Devices(), m.Bridge.Rooms())
		return m, m.waitForEvent()

	case bridgeFailedMsg:
		m.Err = msg.err
		return m, nil

	case entityEventMsg:
		m.Rows = buildRows(m.Bridge.Devices(), m.Bridge.Rooms())
		if m.Cursor >= len(m.Rows) && len(m.Rows) > 0 {
			m.Cursor = len(m.Rows) - 1
		}
		return m, m.waitForEvent()

	case commandResultMsg:
		m.LastCmdErr = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// subscribeAll attaches the shared notify callback to every entity cell.
// Called once on the ready transition; the registry only grows after that
// through snapshot reloads, which also broadcast on existing cells.
func (m *WatchModel) subscribeAll() {
	for _, d := range m.Bridge.Devices() {
		m.subs = append(m.subs, d.State().Subscribe(func(entity.DeviceState) { m.notify() }))
	}
	for _, r := range m.Bridge.Rooms() {
		m.subs = append(m.subs, r.State().Subscribe(func(entity.RoomState) { m.notify() }))
	}
}

// handleKey handles user input
func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		for _, s := range m.subs {
			s.Dispose()
		}
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}
		return m, nil

	case key.Matches(msg, m.Keys.Toggle):
		return m, m.toggleSelected()

	case key.Matches(msg, m.Keys.Bright):
		return m, m.dimSelected(+10)

	case key.Matches(msg, m.Keys.Dim):
		return m, m.dimSelected(-10)

	case key.Matches(msg, m.Keys.Open):
		return m, m.shadeSelected(func(ctx context.Context, s *entity.Shade) error { return s.MoveUp(ctx) })

	case key.Matches(msg, m.Keys.Close):
		return m, m.shadeSelected(func(ctx context.Context, s *entity.Shade) error { return s.MoveDown(ctx) })

	case key.Matches(msg, m.Keys.Stop):
		return m, m.shadeSelected(func(ctx context.Context, s *entity.Shade) error { return s.MoveStop(ctx) })
	}

	return m, nil
}

// selectedRow returns the row under the cursor, or nil
func (m WatchModel) selectedRow() *watchRow {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return nil
	}
	return &m.Rows[m.Cursor]
}

// toggleSelected flips the selected light
func (m WatchModel) toggleSelected() tea.Cmd {
	row := m.selectedRow()
	if row == nil || row.kind != rowDevice {
		return nil
	}
	light, ok := row.device.(*entity.Light)
	if !ok {
		return nil
	}

	on := true
	if state, ok := light.State().Value(); ok {
		if ls, ok := state.(entity.LightState); ok {
			on = !ls.Switch
		}
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandResultMsg{err: light.Switch(ctx, on)}
	}
}

// dimSelected nudges the selected dimmable light's brightness
func (m WatchModel) dimSelected(delta int) tea.Cmd {
	row := m.selectedRow()
	if row == nil || row.kind != rowDevice {
		return nil
	}
	light, ok := row.device.(*entity.Light)
	if !ok || !light.Dimmable() {
		return nil
	}

	value := delta
	if state, ok := light.State().Value(); ok {
		if ls, ok := state.(entity.LightState); ok {
			value = ls.DimmValue + delta
		}
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandResultMsg{err: light.Dim(ctx, value)}
	}
}

// shadeSelected runs a movement command against the selected shade
func (m WatchModel) shadeSelected(move func(context.Context, *entity.Shade) error) tea.Cmd {
	row := m.selectedRow()
	if row == nil || row.kind != rowDevice {
		return nil
	}
	shade, ok := row.device.(*entity.Shade)
	if !ok {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandResultMsg{err: move(ctx, shade)}
	}
}

// buildRows flattens the registry into a stable, ordered row list
func buildRows(devices []entity.Device, rooms []*entity.Room) []watchRow {
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID() < devices[j].DeviceID() })
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID() < rooms[j].RoomID() })

	rows := make([]watchRow, 0, len(devices)+len(rooms))
	for _, d := range devices {
		rows = append(rows, watchRow{kind: rowDevice, device: d})
	}
	for _, r := range rooms {
		rows = append(rows, watchRow{kind: rowRoom, room: r})
	}
	return rows
}

// View renders the console
func (m WatchModel) View() string {
	var content string
	switch {
	case m.Err != nil:
		content = m.buildErrorContent()
	case !m.Ready:
		content = m.buildConnectingContent()
	default:
		content = m.buildLiveContent()
	}

	helpText := m.Help.View(m.Keys)
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// buildConnectingContent renders the spinner screen shown before the bridge
// has delivered its initial load
func (m WatchModel) buildConnectingContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Connecting"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s Waiting for bridge at %s...\n", m.Spinner.View(), m.Address))
	return b.String()
}

// buildErrorContent renders the connection failure screen
func (m WatchModel) buildErrorContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Connection Failed"))
	b.WriteString("\n\n")
	b.WriteString(RenderError(m.Err.Error()))
	b.WriteString("\n\n")
	b.WriteString(RenderSubtitle("Check the bridge address and authentication key, then try again."))
	b.WriteString("\n")
	return b.String()
}

// buildLiveContent renders the device and room rows
func (m WatchModel) buildLiveContent() string {
	var b strings.Builder

	title := m.Bridge.BridgeName()
	if title == "" {
		title = m.Address
	}
	b.WriteString(RenderTitle(title))
	if fw := m.Bridge.FirmwareVersion(); fw != "" {
		b.WriteString(RenderSubtitle("  firmware " + fw))
	}
	b.WriteString("\n")

	deviceHeaderDone := false
	roomHeaderDone := false

	for i, row := range m.Rows {
		switch row.kind {
		case rowDevice:
			if !deviceHeaderDone {
				b.WriteString(SectionStyle.Render("Devices"))
				b.WriteString("\n")
				deviceHeaderDone = true
			}
			b.WriteString(renderDeviceRow(row.device, i == m.Cursor))
		case rowRoom:
			if !roomHeaderDone {
				b.WriteString(SectionStyle.Render("Rooms"))
				b.WriteString("\n")
				roomHeaderDone = true
			}
			b.WriteString(renderRoomRow(row.room, i == m.Cursor))
		}
		b.WriteString("\n")
	}

	if len(m.Rows) == 0 {
		b.WriteString(RenderSubtitle("  The bridge reported no devices or rooms."))
		b.WriteString("\n")
	}

	if m.LastCmdErr != nil {
		b.WriteString("\n")
		b.WriteString(AlertStatusStyle.Render("  last command failed: " + m.LastCmdErr.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

// renderDeviceRow renders one device line with its live status
func renderDeviceRow(d entity.Device, selected bool) string {
	line := fmt.Sprintf("%-28s %-10s %s", truncate(d.Name(), 28), DeviceKind(d), DescribeDevice(d))
	if selected {
		return SelectedRowStyle.Render("→ " + line)
	}
	return RowStyle.Render(line)
}

// renderRoomRow renders one room line with its climate status
func renderRoomRow(r *entity.Room, selected bool) string {
	line := fmt.Sprintf("%-28s %-10s %s", truncate(r.Name(), 28), "room", DescribeRoom(r))
	if selected {
		return SelectedRowStyle.Render("→ " + line)
	}
	return RowStyle.Render(line)
}

// DeviceKind returns a short label for the device variant
func DeviceKind(d entity.Device) string {
	switch v := d.(type) {
	case *entity.Light:
		if v.Dimmable() {
			return "dimmer"
		}
		return "switch"
	case *entity.Shade:
		return "shade"
	case *entity.DoorSensor:
		return "door"
	case *entity.WindowSensor:
		return "window"
	case *entity.RcTouch:
		return "rctouch"
	case *entity.Heater:
		return "heater"
	case *entity.Rocker:
		return "rocker"
	default:
		return "device"
	}
}

// DescribeDevice formats a device's current state for a console row.
// Unreported state renders as a dash rather than a zero value.
func DescribeDevice(d entity.Device) string {
	state, ok := d.State().Value()
	if !ok {
		return "—"
	}

	switch s := state.(type) {
	case entity.LightState:
		if !s.Switch {
			return OffStatusStyle.Render("off")
		}
		if light, ok := d.(*entity.Light); ok && light.Dimmable() {
			return OnStatusStyle.Render(fmt.Sprintf("on · %d%%", s.DimmValue))
		}
		return OnStatusStyle.Render("on")

	case entity.ShadeState:
		return describeShade(s)

	case entity.DoorWindowState:
		if s.IsClosed == nil {
			return "—"
		}
		if *s.IsClosed {
			return OffStatusStyle.Render("closed")
		}
		return OnStatusStyle.Render("open")

	case entity.RcTouchState:
		return fmt.Sprintf("%.1f°C · %.0f%% rh", s.Temperature, s.Humidity)

	case entity.RockerState:
		if s.IsOn {
			return OnStatusStyle.Render("on")
		}
		return OffStatusStyle.Render("off")

	case entity.RockerSensorState:
		return describeRockerSensor(s)

	default:
		return "—"
	}
}

func describeShade(s entity.ShadeState) string {
	var parts []string
	if s.Position != nil {
		switch {
		case *s.Position == 0:
			parts = append(parts, "open")
		case *s.Position == 100:
			parts = append(parts, "closed")
		default:
			parts = append(parts, fmt.Sprintf("%d%% down", *s.Position))
		}
	} else {
		parts = append(parts, "—")
	}
	if s.Safety() {
		parts = append(parts, AlertStatusStyle.Render("safety"))
	}
	return strings.Join(parts, " · ")
}

func describeRockerSensor(s entity.RockerSensorState) string {
	var parts []string
	if s.IsOn != nil {
		if *s.IsOn {
			parts = append(parts, OnStatusStyle.Render("on"))
		} else {
			parts = append(parts, OffStatusStyle.Render("off"))
		}
	}
	if s.Temperature != nil {
		parts = append(parts, fmt.Sprintf("%.1f°C", *s.Temperature))
	}
	if s.Humidity != nil {
		parts = append(parts, fmt.Sprintf("%.0f%% rh", *s.Humidity))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, " · ")
}

// DescribeRoom formats a room's climate state for a console row
func DescribeRoom(r *entity.Room) string {
	state, ok := r.State().Value()
	if !ok {
		return "—"
	}

	var parts []string
	if state.Temperature != nil {
		parts = append(parts, fmt.Sprintf("%.1f°C", *state.Temperature))
	}
	if state.Setpoint != nil {
		parts = append(parts, fmt.Sprintf("set %.1f°C", *state.Setpoint))
	}
	if state.Humidity != nil {
		parts = append(parts, fmt.Sprintf("%.0f%% rh", *state.Humidity))
	}
	if state.Mode != 0 {
		parts = append(parts, strings.ToLower(state.Mode.String()))
	}
	if state.State == entity.RctStateActive {
		parts = append(parts, OnStatusStyle.Render(fmt.Sprintf("heating %.0f%%", state.Power)))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, " · ")
}

// truncate shortens a name to fit its column
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
