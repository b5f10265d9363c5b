// Package confirm implements the modal that mediates every create and
// delete action: Closed -> Open -> Submitting -> Succeeded | Failed.
package confirm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/api"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
)

// DefaultAutoCloseDelay is how long a success message stays up
const DefaultAutoCloseDelay = 2000 * time.Millisecond

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// SubmitFunc issues the single gateway call for a confirmed action
type SubmitFunc func(ctx context.Context, values Values) (api.Result, error)

// Options configure one open/close lifecycle
type Options struct {
	Mode   model.ModalMode
	Title  string
	Prompt string
	Target *model.Entity
	Fields []Field

	Submit SubmitFunc
	// OnSuccess runs after a successful submit and again when the
	// succeeded modal closes. It must be safe to call twice.
	OnSuccess func() tea.Cmd
	// SuccessMessage renders the transient message; defaults to "Done".
	SuccessMessage func(Values) string
	// SubmitLabel names the confirm action in the hint line; defaults to "create".
	SubmitLabel string
}

// Modal is a confirm dialog. Every instance shares the tree's Guard.
type Modal struct {
	id    int
	guard *Guard
	state model.ModalState
	opts  Options

	inputs    []textinput.Model
	focus     int
	fieldErr  string
	submitted Values

	// seq changes on every open, close and destroy; results and timers
	// carrying an older seq are dropped.
	seq            int
	autoClosing    bool
	destroyed      bool
	AutoCloseDelay time.Duration

	spinner spinner.Model
	logger  *cblog.Logger
}

// New creates a closed modal bound to guard
func New(guard *Guard) *Modal {
	if guard == nil {
		guard = NewGuard()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	id := nextID()
	return &Modal{
		id:             id,
		guard:          guard,
		state:          model.ModalState{Phase: model.PhaseClosed},
		AutoCloseDelay: DefaultAutoCloseDelay,
		spinner:        s,
		logger:         cblog.With("component", "confirm", "modal", id),
	}
}

// ID returns the instance id carried by this modal's messages
func (m *Modal) ID() int { return m.id }

// State returns a copy of the modal state
func (m *Modal) State() model.ModalState { return m.state }

// Phase returns the current phase
func (m *Modal) Phase() model.ModalPhase { return m.state.Phase }

// IsOpen reports whether the modal is in any phase but Closed
func (m *Modal) IsOpen() bool { return m.state.IsOpen() }

// AutoClosePending reports whether a live auto-close timer is armed
func (m *Modal) AutoClosePending() bool {
	return m.autoClosing && m.state.Phase == model.PhaseSucceeded
}

// Open moves Closed -> Open. It returns false without side effects if this
// modal is already open, destroyed, or another modal holds the guard.
func (m *Modal) Open(opts Options) bool {
	if m.destroyed || m.state.IsOpen() {
		return false
	}
	if !m.guard.Acquire(m.id) {
		return false
	}

	m.seq++
	m.opts = opts
	m.state = model.ModalState{Phase: model.PhaseOpen, Mode: opts.Mode, Target: opts.Target}
	m.fieldErr = ""
	m.submitted = nil
	m.autoClosing = false
	m.inputs = make([]textinput.Model, len(opts.Fields))
	for i, f := range opts.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 256
		ti.SetValue(f.Default)
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
		}
		m.inputs[i] = ti
	}
	m.focus = 0
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}

	m.logger.Debug("Opened", "mode", opts.Mode, "title", opts.Title)
	return true
}

// Values returns the current form input
func (m *Modal) Values() Values {
	values := make(Values, len(m.inputs))
	for i, f := range m.opts.Fields {
		values[f.Name] = m.inputs[i].Value()
	}
	return values
}

// SetValue replaces the content of a form field
func (m *Modal) SetValue(name, value string) {
	for i, f := range m.opts.Fields {
		if f.Name == name {
			m.inputs[i].SetValue(value)
			m.edited()
			return
		}
	}
}

// CanSubmit reports whether the confirm action is enabled
func (m *Modal) CanSubmit() bool {
	switch m.state.Phase {
	case model.PhaseOpen, model.PhaseFailed:
	default:
		return false
	}
	if m.opts.Submit == nil {
		return false
	}
	_, err := Validate(m.opts.Fields, m.Values())
	return err == nil
}

// Submit moves Open/Failed -> Submitting and issues exactly one call.
// Invalid input sets an inline message and never reaches the network.
func (m *Modal) Submit() tea.Cmd {
	if m.destroyed {
		return nil
	}
	if m.state.Phase != model.PhaseOpen && m.state.Phase != model.PhaseFailed {
		return nil
	}
	values := m.Values()
	if field, err := Validate(m.opts.Fields, values); err != nil {
		m.fieldErr = validationText(err)
		m.focusField(field)
		return nil
	}
	if m.opts.Submit == nil {
		return nil
	}

	m.state.Phase = model.PhaseSubmitting
	m.state.Message = ""
	m.fieldErr = ""
	m.submitted = values

	id, seq, submit := m.id, m.seq, m.opts.Submit
	m.logger.Debug("Submitting", "seq", seq)
	call := func() tea.Msg {
		res, err := submit(context.Background(), values)
		return model.ModalResultMsg{
			ModalID:   id,
			Seq:       seq,
			Success:   err == nil && res.Success,
			ErrorKind: res.ErrorKind,
			Message:   res.Message,
			Err:       err,
		}
	}
	return tea.Batch(call, m.spinner.Tick)
}

// Close moves any phase but Submitting to Closed. Closing a succeeded
// modal runs OnSuccess again, exactly as the auto-close does.
func (m *Modal) Close() tea.Cmd {
	if !m.state.IsOpen() || m.state.Phase == model.PhaseSubmitting {
		return nil
	}
	wasSucceeded := m.state.Phase == model.PhaseSucceeded
	onSuccess := m.opts.OnSuccess

	m.reset()

	if wasSucceeded && onSuccess != nil {
		return onSuccess()
	}
	return nil
}

// Destroy releases the guard and defuses any pending result or timer
func (m *Modal) Destroy() {
	if m.destroyed {
		return
	}
	m.reset()
	m.destroyed = true
}

func (m *Modal) reset() {
	m.seq++
	m.guard.Release(m.id)
	m.state = model.ModalState{Phase: model.PhaseClosed}
	m.opts = Options{}
	m.inputs = nil
	m.fieldErr = ""
	m.submitted = nil
	m.autoClosing = false
}

// Update handles results, timers and keys addressed to this modal
func (m *Modal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case model.ModalResultMsg:
		if msg.ModalID != m.id {
			return nil
		}
		return m.handleResult(msg)
	case model.ModalAutoCloseMsg:
		if msg.ModalID != m.id || msg.Seq != m.seq || m.destroyed || !m.AutoClosePending() {
			return nil
		}
		return m.Close()
	case spinner.TickMsg:
		if m.state.Phase != model.PhaseSubmitting {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.KeyPressMsg:
		if !m.state.IsOpen() {
			return nil
		}
		return m.handleKey(msg)
	}
	return nil
}

func (m *Modal) handleResult(msg model.ModalResultMsg) tea.Cmd {
	// Late results for a destroyed or re-opened lifecycle are no-ops
	if m.destroyed || msg.Seq != m.seq || m.state.Phase != model.PhaseSubmitting {
		return nil
	}

	if msg.Err != nil {
		m.state.Phase = model.PhaseFailed
		m.state.Message = apperrors.UserMessage(msg.Err)
		m.logger.Warn("Submit failed", "err", msg.Err)
		return nil
	}
	if !msg.Success {
		m.state.Phase = model.PhaseFailed
		m.state.Message = msg.Message
		if m.state.Message == "" {
			m.state.Message = "The server rejected the request"
		}
		m.logger.Info("Submit rejected", "kind", msg.ErrorKind, "message", msg.Message)
		return nil
	}

	m.state.Phase = model.PhaseSucceeded
	m.state.Message = "Done"
	if m.opts.SuccessMessage != nil {
		m.state.Message = m.opts.SuccessMessage(m.submitted)
	}
	m.autoClosing = true
	m.logger.Info("Submit succeeded", "message", m.state.Message)

	var cmds []tea.Cmd
	if m.opts.OnSuccess != nil {
		cmds = append(cmds, m.opts.OnSuccess())
	}
	id, seq := m.id, m.seq
	cmds = append(cmds, tea.Tick(m.AutoCloseDelay, func(time.Time) tea.Msg {
		return model.ModalAutoCloseMsg{ModalID: id, Seq: seq}
	}))
	return tea.Batch(cmds...)
}

func (m *Modal) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch m.state.Phase {
	case model.PhaseSubmitting:
		return nil
	case model.PhaseSucceeded:
		switch key {
		case "enter", "esc", "q", "space":
			return m.Close()
		}
		return nil
	}

	if m.state.Mode == model.ModeDelete {
		switch key {
		case "y", "Y", "enter":
			return m.Submit()
		case "n", "N", "esc", "q":
			return m.Close()
		}
		return nil
	}

	switch key {
	case "esc":
		return m.Close()
	case "enter":
		if m.focus < len(m.inputs)-1 {
			m.focusField(m.opts.Fields[m.focus+1].Name)
			return nil
		}
		return m.Submit()
	case "ctrl+s":
		return m.Submit()
	case "tab", "down":
		if len(m.inputs) > 0 {
			m.focusField(m.opts.Fields[(m.focus+1)%len(m.inputs)].Name)
		}
		return nil
	case "shift+tab", "up":
		if len(m.inputs) > 0 {
			m.focusField(m.opts.Fields[(m.focus+len(m.inputs)-1)%len(m.inputs)].Name)
		}
		return nil
	}

	if len(m.inputs) == 0 {
		return nil
	}
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.edited()
	}
	return cmd
}

// edited clears residual messages once the operator changes the input
func (m *Modal) edited() {
	m.fieldErr = ""
	if m.state.Phase == model.PhaseFailed {
		m.state.Phase = model.PhaseOpen
		m.state.Message = ""
	}
}

func (m *Modal) focusField(name string) {
	if len(m.inputs) == 0 {
		return
	}
	for i, f := range m.opts.Fields {
		if f.Name != name {
			continue
		}
		m.inputs[m.focus].Blur()
		m.focus = i
		m.inputs[i].Focus()
		return
	}
}

func validationText(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}
