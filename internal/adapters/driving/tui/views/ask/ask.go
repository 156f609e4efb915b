// Package ask provides the question form and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Mode is the phase the view is in.
type Mode int

const (
	// ModeForm accepts a question.
	ModeForm Mode = iota
	// ModeAsking waits for an answer.
	ModeAsking
	// ModeAnswered shows an answer with its sources.
	ModeAnswered
)

const (
	fieldQuestion = iota
	fieldReference
	fieldDocument
	fieldCount
)

// View is the question form and answer view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	fields    [fieldCount]*input.Field
	focus     int
	sources   *list.SourceList
	answer    viewport.Model
	statusbar *status.Bar

	answerService driving.AnswerService
	defaults      driving.AskRequest
	ctx           context.Context

	mode     Mode
	response *driving.AskResponse
	width    int
	height   int
	ready    bool
	err      error
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:        s,
		keymap:        km,
		sources:       list.NewSourceList(s),
		answer:        viewport.New(80, 10),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
	v.fields[fieldQuestion] = input.NewField(s, "Question", "How do I ...?", 1024)
	v.fields[fieldReference] = input.NewField(s, "Reference", "expected answer (optional, enables scoring)", 2048)
	v.fields[fieldDocument] = input.NewField(s, "Document", "document id (optional)", 12)
	v.fields[fieldQuestion].Focus()
	return v
}

// WithContext sets the context used for answer requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithDefaults sets the collection and top-k sent with every question.
func (v *View) WithDefaults(req driving.AskRequest) *View {
	v.defaults = req
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.fields[v.focus].Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	switch v.mode {
	case ModeAsking:
		return v, nil
	case ModeAnswered:
		return v.handleAnswerKey(msg)
	case ModeForm:
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyTab:
		v.cycleFocus(1)
		return v, nil
	case tea.KeyShiftTab:
		v.cycleFocus(-1)
		return v, nil
	case tea.KeyEnter:
		return v.submit()
	}

	var cmd tea.Cmd
	v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
	return v, cmd
}

func (v *View) handleAnswerKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.NewQuestion):
		v.NewQuestion()
		return v, nil
	case keymap.Matches(key, v.keymap.PageUp), keymap.Matches(key, v.keymap.PageDown):
		var cmd tea.Cmd
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.sources, cmd = v.sources.Update(msg)
	return v, cmd
}

func (v *View) cycleFocus(step int) {
	v.fields[v.focus].Blur()
	v.focus = (v.focus + step + fieldCount) % fieldCount
	v.fields[v.focus].Focus()
}

// Request builds the request from the form fields.
func (v *View) Request() (driving.AskRequest, error) {
	req := v.defaults
	req.Question = strings.TrimSpace(v.fields[fieldQuestion].Value())
	req.Reference = strings.TrimSpace(v.fields[fieldReference].Value())
	req.Evaluate = req.Reference != ""
	req.FileID = nil

	if raw := strings.TrimSpace(v.fields[fieldDocument].Value()); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return req, ErrInvalidDocumentID
		}
		req.FileID = &id
	}
	return req, nil
}

func (v *View) submit() (*View, tea.Cmd) {
	req, err := v.Request()
	if err != nil {
		v.setError(err)
		return v, nil
	}
	if req.Question == "" {
		return v, nil
	}

	v.err = nil
	v.mode = ModeAsking
	v.fields[v.focus].Blur()
	return v, tea.Batch(v.statusbar.Start(), v.ask(req))
}

func (v *View) ask(req driving.AskRequest) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.AnswerReceived{Err: ErrNoAnswerService}
		}
		resp, err := v.answerService.Ask(v.ctx, req)
		return messages.AnswerReceived{Response: resp, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil || msg.Response == nil || msg.Response.Result == nil {
		err := msg.Err
		if err == nil {
			err = ErrNoAnswerService
		}
		v.setError(err)
		return
	}

	v.err = nil
	v.response = msg.Response
	v.mode = ModeAnswered
	v.sources.SetSources(msg.Response.Result.Documents)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetSourceCount(len(msg.Response.Result.Documents))
	v.statusbar.SetMessage(msg.Response.EvaluationError)
	v.refreshAnswer()
}

func (v *View) setError(err error) {
	v.err = err
	v.mode = ModeForm
	v.fields[v.focus].Focus()
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// NewQuestion clears the answer and returns to an empty form.
func (v *View) NewQuestion() {
	v.mode = ModeForm
	v.response = nil
	v.err = nil
	v.sources.SetSources(nil)
	v.answer.SetContent("")
	v.statusbar.Clear()
	v.fields[fieldQuestion].Reset()
	v.fields[fieldReference].Reset()
	v.fields[v.focus].Blur()
	v.focus = fieldQuestion
	v.fields[fieldQuestion].Focus()
}

// Reset clears the form, including the document filter.
func (v *View) Reset() {
	v.NewQuestion()
	v.fields[fieldDocument].Reset()
}

func (v *View) refreshAnswer() {
	if v.response == nil || v.response.Result == nil {
		return
	}
	content := renderMarkdown(v.response.Result.Answer, v.styles.Theme().Markdown, v.width-4)
	if scores := v.renderScores(); scores != "" {
		content += "\n" + scores
	}
	v.answer.SetContent(content)
	v.answer.GotoTop()
}

func renderMarkdown(md, style string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (v *View) renderScores() string {
	if v.response == nil || v.response.Scores == nil {
		return ""
	}
	sc := v.response.Scores
	metric := func(name string, value float64) string {
		return v.styles.Muted.Render(name+" ") + v.styles.Metric.Render(fmt.Sprintf("%.2f", value))
	}
	return strings.Join([]string{
		metric("faithfulness", sc.Faithfulness),
		metric("answer relevancy", sc.AnswerRelevancy),
		metric("context precision", sc.ContextPrecision),
		metric("context recall", sc.ContextRecall),
	}, "  ")
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("Ask the manuals"), "")

	if v.mode == ModeAnswered {
		q := v.fields[fieldQuestion].Value()
		sections = append(sections,
			v.styles.Subtitle.Render("Q: ")+v.styles.Normal.Render(q), "",
			v.answer.View(), "",
			v.sources.View(),
		)
	} else {
		for _, f := range v.fields {
			sections = append(sections, f.View())
		}
	}

	if v.err != nil {
		sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and splits the height between
// the answer and the sources.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	for _, f := range v.fields {
		f.SetWidth(width)
	}
	v.statusbar.SetWidth(width)

	// Header, question line, blank separators and the status bar.
	body := height - 9
	if body < 6 {
		body = 6
	}
	v.answer.Width = width
	v.answer.Height = body * 3 / 5
	v.sources.SetDimensions(width, body-v.answer.Height)
	v.refreshAnswer()
}

// Mode returns the current phase.
func (v *View) Mode() Mode {
	return v.mode
}

// Response returns the last answer, or nil.
func (v *View) Response() *driving.AskResponse {
	return v.response
}

// Sources returns the chunks behind the last answer.
func (v *View) Sources() []domain.RetrievedChunk {
	return v.sources.Sources()
}

// SetField sets a form field by label: "question", "reference" or "document".
func (v *View) SetField(name, value string) {
	switch name {
	case "question":
		v.fields[fieldQuestion].SetValue(value)
	case "reference":
		v.fields[fieldReference].SetValue(value)
	case "document":
		v.fields[fieldDocument].SetValue(value)
	}
}

// Focus returns the index of the focused field.
func (v *View) Focus() int {
	return v.focus
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
