package study

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"studyguideai/internal/gemini"
	"studyguideai/internal/markdown"
	"studyguideai/internal/metrics"
	"studyguideai/internal/quiz"
	"studyguideai/internal/settings"

	"golang.org/x/time/rate"
)

// Generator produces text for one pipeline step.
type Generator interface {
	Generate(ctx context.Context, apiKey, model string, task gemini.Task, text string) (string, error)
	DefaultModel() string
}

// Orchestrator runs the guide-then-quiz pipeline for sessions. At most one
// run per session is active; runs of different sessions are independent.
type Orchestrator struct {
	store    Store
	gen      Generator
	cooldown time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	running  map[string]context.CancelFunc
	limiters map[string]*rate.Limiter
}

// NewOrchestrator creates an orchestrator. cooldown separates the guide and
// quiz calls and spaces successive calls of a session; timeout bounds a run.
func NewOrchestrator(store Store, gen Generator, cooldown, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:    store,
		gen:      gen,
		cooldown: cooldown,
		timeout:  timeout,
		running:  make(map[string]context.CancelFunc),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Busy reports whether a run is active for the session.
func (o *Orchestrator) Busy(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.running[id]
	return ok
}

// Cancel aborts the session's active run, if any.
func (o *Orchestrator) Cancel(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	cancel, ok := o.running[id]
	if ok {
		cancel()
	}
	return ok
}

func (o *Orchestrator) limiter(id string) *rate.Limiter {
	lim, ok := o.limiters[id]
	if !ok {
		every := rate.Inf
		if o.cooldown > 0 {
			every = rate.Every(o.cooldown)
		}
		lim = rate.NewLimiter(every, 1)
		o.limiters[id] = lim
	}
	return lim
}

// pruneLimiters drops limiters of idle sessions that have refilled. A full
// limiter is indistinguishable from a new one, so sessions that expired
// without a Forget call do not accumulate. Callers hold o.mu.
func (o *Orchestrator) pruneLimiters() {
	for id, lim := range o.limiters {
		if _, busy := o.running[id]; busy {
			continue
		}
		if lim.Tokens() >= float64(lim.Burst()) {
			delete(o.limiters, id)
		}
	}
}

// Forget drops per-session bookkeeping once a session is gone.
func (o *Orchestrator) Forget(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.limiters, id)
}

// Run generates the study guide, waits the cooldown, then generates the quiz.
// Settings are read once by the caller and apply to the whole run. The guide
// and quiz are installed together only when both calls succeed; on any error
// the session returns to idle with its previous content untouched. A quiz
// response that cannot be decoded installs an empty quiz.
func (o *Orchestrator) Run(ctx context.Context, id string, st settings.Settings) (*Session, error) {
	if st.APIKey == "" {
		return nil, gemini.ErrMissingAPIKey
	}

	sess, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.ExtractedText == "" {
		return nil, ErrNoDocument
	}

	o.mu.Lock()
	if _, busy := o.running[id]; busy {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.pruneLimiters()
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	o.running[id] = cancel
	lim := o.limiter(id)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.running, id)
		o.mu.Unlock()
		cancel()
	}()

	model := st.Model
	if model == "" {
		model = o.gen.DefaultModel()
	}

	if _, err := o.setStage(ctx, id, gemini.TaskStudyGuide); err != nil {
		return nil, err
	}
	log.Printf("INFO: Generation started for session %s with model %s (%d characters)", id, model, len([]rune(sess.ExtractedText)))

	guide, err := o.step(runCtx, lim, st.APIKey, model, gemini.TaskStudyGuide, sess.ExtractedText)
	if err != nil {
		return nil, o.fail(ctx, runCtx, id, err)
	}

	if err := sleep(runCtx, o.cooldown); err != nil {
		return nil, o.fail(ctx, runCtx, id, err)
	}
	if _, err := o.setStage(ctx, id, gemini.TaskQuiz); err != nil {
		return nil, o.fail(ctx, runCtx, id, err)
	}

	raw, err := o.step(runCtx, lim, st.APIKey, model, gemini.TaskQuiz, sess.ExtractedText)
	if err != nil {
		return nil, o.fail(ctx, runCtx, id, err)
	}
	items := quiz.Decode(raw)
	guideHTML := markdown.RenderHTML(guide)

	done, err := o.store.Update(context.WithoutCancel(ctx), id, func(s *Session) error {
		s.Install(model, guide, guideHTML, items)
		s.State = StateReady
		s.Stage = ""
		s.LastError = ""
		return nil
	})
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	log.Printf("INFO: Generation finished for session %s: guide %d characters, %d quiz questions", id, len(guide), len(items))
	return done, nil
}

func (o *Orchestrator) step(ctx context.Context, lim *rate.Limiter, apiKey, model string, task gemini.Task, text string) (string, error) {
	if err := lim.Wait(ctx); err != nil {
		return "", err
	}
	return o.gen.Generate(ctx, apiKey, model, task, text)
}

func (o *Orchestrator) setStage(ctx context.Context, id string, stage gemini.Task) (*Session, error) {
	return o.store.Update(ctx, id, func(s *Session) error {
		s.State = StateProcessing
		s.Stage = stage
		s.LastError = ""
		return nil
	})
}

// fail returns the session to idle and normalises cancellation.
func (o *Orchestrator) fail(ctx, runCtx context.Context, id string, err error) error {
	if errors.Is(runCtx.Err(), context.Canceled) {
		err = ErrCancelled
	}
	outcome := "error"
	if errors.Is(err, ErrCancelled) {
		outcome = "cancelled"
	}
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	log.Printf("ERROR: Generation failed for session %s: %v", id, err)

	if _, uerr := o.store.Update(context.WithoutCancel(ctx), id, func(s *Session) error {
		s.State = StateIdle
		s.Stage = ""
		s.LastError = err.Error()
		return nil
	}); uerr != nil {
		log.Printf("WARN: Failed to reset session %s after generation error: %v", id, uerr)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
