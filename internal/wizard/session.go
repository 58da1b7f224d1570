package wizard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"marketing-captain/internal/llm"
	"marketing-captain/internal/metrics"
)

// Client is the generation backend a session talks to. Configured reports
// whether the active provider has a credential.
type Client interface {
	llm.Generator
	Configured() bool
}

type State int

const (
	StateIdle State = iota
	StateBuilding
	StatePending
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Options struct {
	Client Client
	Logger *slog.Logger
	Pacing Pacing
}

// Session owns one user's wizard. All state lives in a single foreground
// goroutine; public methods and background generations hand it closures
// through msgs and never touch the state directly.
type Session struct {
	client   Client
	rewriter *Rewriter
	logger   *slog.Logger
	pacing   Pacing

	ctx    context.Context
	cancel context.CancelFunc
	msgs   chan func(*state)
	done   chan struct{}
	once   sync.Once
}

type state struct {
	fields    Fields
	styles    Styles
	docs      Documents
	outputs   map[Step]string
	steps     map[Step]State
	surfaces  map[Slot]string
	revealRev map[Slot]uint64
	subs      map[*Subscription]struct{}
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		client:   opts.Client,
		rewriter: NewRewriter(opts.Client, logger),
		logger:   logger,
		pacing:   opts.Pacing,
		ctx:      ctx,
		cancel:   cancel,
		msgs:     make(chan func(*state), 64),
		done:     make(chan struct{}),
	}

	st := &state{
		fields:    Fields{},
		styles:    DefaultStyles(),
		outputs:   make(map[Step]string),
		steps:     make(map[Step]State),
		surfaces:  make(map[Slot]string),
		revealRev: make(map[Slot]uint64),
		subs:      make(map[*Subscription]struct{}),
	}
	for _, slot := range Slots() {
		st.surfaces[slot] = initialSurface(slot)
	}

	go s.loop(st)
	return s
}

func (s *Session) loop(st *state) {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.msgs:
			fn(st)
		}
	}
}

// do runs fn on the foreground loop and waits for it.
func (s *Session) do(fn func(*state)) error {
	reply := make(chan struct{})
	wrapped := func(st *state) {
		defer close(reply)
		fn(st)
	}
	select {
	case s.msgs <- wrapped:
	case <-s.done:
		return ErrClosed
	}
	select {
	case <-reply:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// post enqueues fn without waiting. Used by background work.
func (s *Session) post(fn func(*state)) {
	select {
	case s.msgs <- fn:
	case <-s.done:
	}
}

// Close stops the loop and aborts in-flight provider calls.
func (s *Session) Close() {
	s.once.Do(func() {
		_ = s.do(func(st *state) {
			for sub := range st.subs {
				sub.Close()
			}
		})
		s.cancel()
		close(s.done)
	})
}

func (st *state) setSurface(slot Slot, text string) {
	st.surfaces[slot] = text
	for sub := range st.subs {
		sub.push(Update{Slot: slot, Text: text})
	}
}

// writeSurface replaces the text and stops any reveal running on slot.
func (st *state) writeSurface(slot Slot, text string) {
	st.revealRev[slot]++
	st.setSurface(slot, text)
}

func (st *state) inputs() Inputs {
	outputs := make(map[Step]string, len(st.outputs))
	for k, v := range st.outputs {
		outputs[k] = v
	}
	return Inputs{
		Fields:    st.fields.Clone(),
		Outputs:   outputs,
		Styles:    st.styles,
		Documents: st.docs,
	}
}

// RunStep starts one generation for step. Configuration and validation
// errors are returned synchronously; provider failures land on the step's
// display surface. Re-running a pending step is allowed and the last
// completion wins.
func (s *Session) RunStep(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}
	if s.client == nil || !s.client.Configured() {
		return llm.ErrConfigurationMissing
	}

	var runErr error
	err := s.do(func(st *state) {
		if step == StepCustomer && st.fields.Get(FieldProduct) == "" {
			runErr = ErrMissingProduct
			return
		}

		st.steps[step] = StateBuilding
		prompt, err := BuildPrompt(step, st.inputs())
		if err != nil {
			st.steps[step] = StateFailed
			runErr = err
			return
		}

		st.steps[step] = StatePending
		st.writeSurface(step.Slot(), PendingText)
		metrics.RecordStepRun(step.Key(), "started")
		s.logger.Info("step started", "step", step.Key(), "prompt_len", len(prompt))

		go s.generate(step, prompt)
	})
	if err != nil {
		return err
	}
	return runErr
}

func (s *Session) generate(step Step, prompt string) {
	text, err := s.client.Generate(s.ctx, llm.Step.WithPrompt(prompt))
	s.post(func(st *state) { s.finish(st, step, text, err) })
}

func (s *Session) finish(st *state, step Step, text string, err error) {
	slot := step.Slot()
	if err != nil {
		st.steps[step] = StateFailed
		metrics.RecordStepRun(step.Key(), "failed")
		s.logger.Warn("step failed", "step", step.Key(), "err", err)
		st.writeSurface(slot, st.surfaces[slot]+fmt.Sprintf(errorSurfaceFormat, err.Error()))
		return
	}

	if strings.TrimSpace(text) == "" {
		text = llm.NoContentText
	}
	st.outputs[step] = text
	st.steps[step] = StateCompleted
	metrics.RecordStepRun(step.Key(), "completed")
	s.logger.Info("step completed", "step", step.Key(), "len", len(text))

	s.startReveal(st, slot, text)

	switch step {
	case StepSynopsis:
		s.startPoster(st)
	case StepFinalScript:
		s.startSections(st, text)
	}
}

func (s *Session) startPoster(st *state) {
	desc := PosterPrompt(st.fields)
	st.writeSurface(SlotPoster, PromptPendingText)

	go func() {
		out := s.rewriter.Rewrite(s.ctx, desc)
		s.post(func(st *state) {
			st.writeSurface(SlotPoster, FormatImagePrompt(out))
		})
	}()
}

// startSections fills the four section slots from a final script. Slots
// past the extracted entries fall back to their labels.
func (s *Session) startSections(st *state, text string) {
	prompts := Extract(text)
	found := FoundCount(prompts)
	metrics.RecordSectionPrompts(found)
	if found == 0 {
		s.logger.Warn("no image prompt markers in final script")
	}

	type job struct {
		slot Slot
		desc string
	}
	var jobs []job
	for i, slot := range SectionSlots() {
		switch {
		case i >= len(prompts):
			st.writeSurface(slot, initialSurface(slot))
		case !prompts[i].Found:
			st.writeSurface(slot, FormatImagePrompt(prompts[i].Text))
		case prompts[i].Text == "":
			st.writeSurface(slot, initialSurface(slot))
		default:
			st.writeSurface(slot, PromptPendingText)
			jobs = append(jobs, job{slot: slot, desc: prompts[i].Text})
		}
	}
	if len(jobs) == 0 {
		return
	}

	go func() {
		var g errgroup.Group
		for _, j := range jobs {
			g.Go(func() error {
				out := s.rewriter.Rewrite(s.ctx, j.desc)
				s.post(func(st *state) {
					st.writeSurface(j.slot, FormatImagePrompt(out))
				})
				return nil
			})
		}
		_ = g.Wait()
		s.logger.Debug("section prompts rewritten", "count", len(jobs))
	}()
}

func (s *Session) SetField(name Field, value string) error {
	var setErr error
	if err := s.do(func(st *state) {
		setErr = st.fields.Set(name, value)
	}); err != nil {
		return err
	}
	return setErr
}

// SetFields applies all values or none.
func (s *Session) SetFields(values map[Field]string) error {
	for name := range values {
		if _, ok := QuestionFor(name); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidField, name)
		}
	}
	return s.do(func(st *state) {
		for name, v := range values {
			_ = st.fields.Set(name, v)
		}
	})
}

// UpdateStyles applies fn to a copy of the style selection and keeps the
// result only if it is valid.
func (s *Session) UpdateStyles(fn func(*Styles)) (Styles, error) {
	var (
		out    Styles
		setErr error
	)
	err := s.do(func(st *state) {
		next := st.styles
		if fn != nil {
			fn(&next)
		}
		if setErr = next.Validate(); setErr != nil {
			out = st.styles
			return
		}
		next.Persona = strings.ToLower(strings.TrimSpace(next.Persona))
		next.Strategy = next.StrategyKey()
		st.styles = next
		out = next
	})
	if err != nil {
		return Styles{}, err
	}
	return out, setErr
}

func (s *Session) SetDocument(kind DocumentKind, text string) error {
	var setErr error
	if err := s.do(func(st *state) {
		setErr = st.docs.set(kind, text)
	}); err != nil {
		return err
	}
	return setErr
}

// LoadDocument reads path outside the loop, then stores the text.
func (s *Session) LoadDocument(kind DocumentKind, path string) error {
	if _, err := ParseDocumentKind(string(kind)); err != nil {
		return err
	}
	text, err := ReadDocument(path)
	if err != nil {
		return err
	}
	return s.SetDocument(kind, text)
}

func (s *Session) ClearDocument(kind DocumentKind) error {
	return s.SetDocument(kind, "")
}

func (s *Session) Surface(slot Slot) (string, error) {
	var (
		text string
		ok   bool
	)
	if err := s.do(func(st *state) {
		text, ok = st.surfaces[slot]
	}); err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return text, nil
}

// Export saves the surface text exactly as currently shown.
func (s *Session) Export(slot Slot, path string) (string, error) {
	text, err := s.Surface(slot)
	if err != nil {
		return "", err
	}
	return Export(path, text)
}

func (s *Session) Inputs() (Inputs, error) {
	var in Inputs
	err := s.do(func(st *state) {
		in = st.inputs()
	})
	return in, err
}

type StepStatus struct {
	Step   string `json:"step"`
	Title  string `json:"title"`
	State  State  `json:"state"`
	Output string `json:"output,omitempty"`
}

type Snapshot struct {
	Fields    map[Field]string      `json:"fields"`
	Styles    Styles                `json:"styles"`
	Documents map[DocumentKind]bool `json:"documents"`
	Steps     []StepStatus          `json:"steps"`
	Surfaces  map[Slot]string       `json:"surfaces"`
}

func (s Snapshot) Step(step Step) StepStatus {
	for _, st := range s.Steps {
		if st.Step == step.Key() {
			return st
		}
	}
	return StepStatus{Step: step.Key(), State: StateIdle}
}

func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func(st *state) {
		snap.Fields = st.fields.Clone()
		snap.Styles = st.styles
		snap.Documents = map[DocumentKind]bool{
			DocumentPersona:      strings.TrimSpace(st.docs.Persona) != "",
			DocumentWritingRules: strings.TrimSpace(st.docs.WritingRules) != "",
		}
		for _, step := range Steps() {
			snap.Steps = append(snap.Steps, StepStatus{
				Step:   step.Key(),
				Title:  step.Title(),
				State:  st.steps[step],
				Output: st.outputs[step],
			})
		}
		snap.Surfaces = make(map[Slot]string, len(st.surfaces))
		for k, v := range st.surfaces {
			snap.Surfaces[k] = v
		}
	})
	return snap, err
}

// Subscribe registers for surface updates. The current text of every
// surface is delivered first.
func (s *Session) Subscribe() (*Subscription, error) {
	sub := newSubscription()
	sub.cancel = func() {
		go s.post(func(st *state) { delete(st.subs, sub) })
	}
	err := s.do(func(st *state) {
		st.subs[sub] = struct{}{}
		for _, slot := range Slots() {
			sub.push(Update{Slot: slot, Text: st.surfaces[slot]})
		}
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
