package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oxhq/mclint/analysis"
	"github.com/oxhq/mclint/core"
)

var (
	// ErrNoSession is returned when a session has no cached result.
	ErrNoSession = errors.New("no cached result for session")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("orchestrator closed")
)

// SnapshotStore persists the latest analysis result per session.
type SnapshotStore interface {
	SaveLatest(sessionID string, dialect core.Dialect, result core.LiveAnalysisResult) error
	LoadLatest(sessionID string) (core.LiveAnalysisResult, error)
	DeleteLatest(sessionID string) error
}

// window is one debounce cycle. Every caller that contributed a payload to
// the window blocks on done and receives the result computed from the
// window's final payload.
type window struct {
	done   chan struct{}
	result core.LiveAnalysisResult
	err    error
}

// session tracks one editing session. seq increments on every scheduled
// cycle; a completing cycle installs its result only when no newer cycle
// has been applied, which keeps stale completions out of the cache.
type session struct {
	timer   *time.Timer
	win     *window
	seq     uint64
	applied uint64
	code    string
	dialect core.Dialect
	cached  *core.LiveAnalysisResult
}

// Orchestrator coordinates debounced per-session analysis. Pass failures
// degrade to the cached result and never reach the caller as errors.
type Orchestrator struct {
	facade *analysis.Facade
	logger *zap.Logger
	store  SnapshotStore

	mu       sync.Mutex
	cfg      Config
	sessions map[string]*session
	closed   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithStore enables snapshot persistence.
func WithStore(s SnapshotStore) Option {
	return func(o *Orchestrator) { o.store = s }
}

// New creates an orchestrator over the given facade.
func New(facade *analysis.Facade, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		facade:   facade,
		logger:   zap.NewNop(),
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AnalyzeCodeRealTime schedules a debounced analysis cycle for the session
// and blocks until the cycle covering this payload completes. Rapid calls
// within one debounce window collapse into a single cycle computed from the
// last payload; every superseded caller receives that same result.
func (o *Orchestrator) AnalyzeCodeRealTime(ctx context.Context, code string, dialect core.Dialect, sessionID string) (core.LiveAnalysisResult, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return core.EmptyResult(), ErrClosed
	}
	cfg := o.cfg
	if !cfg.EnableLiveValidation {
		if s := o.sessions[sessionID]; s != nil && s.cached != nil {
			r := *s.cached
			o.mu.Unlock()
			return r, nil
		}
		o.mu.Unlock()
		return core.EmptyResult(), nil
	}

	s := o.session(sessionID)
	s.code = code
	s.dialect = dialect
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.win == nil {
		s.win = &window{done: make(chan struct{})}
	}
	win := s.win
	s.timer = time.AfterFunc(cfg.debounce(), func() { o.run(sessionID, seq) })
	o.mu.Unlock()

	select {
	case <-win.done:
		return win.result, win.err
	case <-ctx.Done():
		return core.EmptyResult(), ctx.Err()
	}
}

// run is the timer callback for one scheduled cycle.
func (o *Orchestrator) run(sessionID string, seq uint64) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	s := o.sessions[sessionID]
	if s == nil || seq != s.seq {
		// A newer keystroke rescheduled this window; its timer owns it now.
		o.mu.Unlock()
		return
	}
	win := s.win
	s.win = nil // calls arriving during analysis open a fresh cycle
	code, dialect := s.code, s.dialect
	cfg := o.cfg
	var fallback *core.LiveAnalysisResult
	if s.cached != nil {
		r := *s.cached
		fallback = &r
	}
	o.mu.Unlock()

	if cfg.Debug {
		o.logger.Debug("analysis cycle start",
			zap.String("session", sessionID),
			zap.String("dialect", string(dialect)),
			zap.Uint64("seq", seq))
	}

	result, err := o.analyze(code, dialect, cfg)
	if err != nil {
		o.logger.Warn("analysis cycle failed, serving fallback",
			zap.String("session", sessionID), zap.Error(err))
		if fallback != nil {
			result = *fallback
		} else {
			result = core.EmptyResult()
		}
	}

	o.mu.Lock()
	installed := false
	if cur := o.sessions[sessionID]; cur != nil && seq > cur.applied {
		cur.applied = seq
		r := result
		cur.cached = &r
		installed = true
	}
	o.mu.Unlock()

	if installed && err == nil && o.store != nil && cfg.DatabaseURL != "" {
		if serr := o.store.SaveLatest(sessionID, dialect, result); serr != nil {
			o.logger.Warn("snapshot persist failed",
				zap.String("session", sessionID), zap.Error(serr))
		}
	}

	if win != nil {
		win.result = result
		close(win.done)
	}
}

// analyze runs the validator and enforcer passes together and merges their
// findings into one snapshot.
func (o *Orchestrator) analyze(code string, dialect core.Dialect, cfg Config) (core.LiveAnalysisResult, error) {
	var (
		vres       core.ValidationResult
		violations []core.Violation
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("validator pass: %v", r)
			}
		}()
		vres, err = o.facade.Validate(code, dialect)
		return err
	})
	if cfg.EnableBestPractices {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("best-practices pass: %v", r)
				}
			}()
			violations = o.facade.BestPracticeViolations(code, dialect)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.LiveAnalysisResult{}, err
	}

	return merge(vres, violations), nil
}

// merge folds rule-table violations into the validator bundle. Violations
// already reported by a validator at the same (rule, line, column) are
// dropped; the rest land in Errors or Warnings by severity and are also
// projected to advisory suggestions.
func merge(vres core.ValidationResult, violations []core.Violation) core.LiveAnalysisResult {
	out := core.LiveAnalysisResult{
		Errors:      append([]core.Diagnostic{}, vres.Errors...),
		Warnings:    append([]core.Diagnostic{}, vres.Warnings...),
		Suggestions: append([]core.Suggestion{}, vres.Suggestions...),
		ComputedAt:  time.Now().UTC(),
	}

	seen := make(map[string]struct{}, len(out.Errors)+len(out.Warnings))
	for _, d := range out.Errors {
		seen[core.ViolationID(d.Rule, d.Line, d.Column)] = struct{}{}
	}
	for _, d := range out.Warnings {
		seen[core.ViolationID(d.Rule, d.Line, d.Column)] = struct{}{}
	}

	for _, v := range violations {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}

		if v.Severity == core.SeverityError {
			out.Errors = append(out.Errors, v.Diagnostic)
		} else {
			out.Warnings = append(out.Warnings, v.Diagnostic)
		}

		msg := v.Suggestion
		if msg == "" {
			msg = v.Message
		}
		out.Suggestions = append(out.Suggestions, core.Suggestion{
			Message: fmt.Sprintf("[%s impact] %s", impactFor(v.Severity), msg),
			Kind:    core.SuggestionBestPractice,
		})
	}

	out.Valid = len(out.Errors) == 0
	return out
}

func impactFor(s core.Severity) core.Impact {
	switch s {
	case core.SeverityError:
		return core.ImpactHigh
	case core.SeverityWarning:
		return core.ImpactMedium
	}
	return core.ImpactLow
}

// ValidateSyntaxImmediate bypasses the debounce for fast-feedback syntax
// checks.
func (o *Orchestrator) ValidateSyntaxImmediate(code string, dialect core.Dialect) ([]core.Diagnostic, error) {
	return o.facade.ValidateSyntax(code, dialect)
}

// CalculatePerformanceMetrics runs the metrics pass. A disabled pass
// returns an empty report.
func (o *Orchestrator) CalculatePerformanceMetrics(code string, dialect core.Dialect) core.PerformanceMetrics {
	o.mu.Lock()
	enabled := o.cfg.EnablePerformanceMetrics
	o.mu.Unlock()
	if !enabled {
		return core.PerformanceMetrics{Recommendations: []core.Recommendation{}}
	}
	return o.facade.AnalyzePerformance(code, dialect)
}

// EnforceBestPractices runs the rule table. A disabled pass returns an
// empty, non-nil slice.
func (o *Orchestrator) EnforceBestPractices(code string, dialect core.Dialect) []core.Violation {
	o.mu.Lock()
	enabled := o.cfg.EnableBestPractices
	o.mu.Unlock()
	if !enabled {
		return []core.Violation{}
	}
	return o.facade.BestPracticeViolations(code, dialect)
}

// CachedResult returns the last completed snapshot for a session. When the
// session is unknown locally, the snapshot store is consulted.
func (o *Orchestrator) CachedResult(sessionID string) (core.LiveAnalysisResult, error) {
	o.mu.Lock()
	if s := o.sessions[sessionID]; s != nil && s.cached != nil {
		r := *s.cached
		o.mu.Unlock()
		return r, nil
	}
	store := o.store
	o.mu.Unlock()

	if store != nil {
		if r, err := store.LoadLatest(sessionID); err == nil {
			return r, nil
		}
	}
	return core.LiveAnalysisResult{}, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
}

// ClearCache drops the session. A pending window completes immediately with
// an empty valid result; an in-flight cycle finishes but its completion is
// rejected as stale.
func (o *Orchestrator) ClearCache(sessionID string) {
	o.mu.Lock()
	s := o.sessions[sessionID]
	if s != nil {
		if s.timer != nil {
			s.timer.Stop()
		}
		if s.win != nil {
			s.win.result = core.EmptyResult()
			close(s.win.done)
			s.win = nil
		}
		delete(o.sessions, sessionID)
	}
	store := o.store
	o.mu.Unlock()

	if store != nil {
		if err := store.DeleteLatest(sessionID); err != nil {
			o.logger.Warn("snapshot delete failed",
				zap.String("session", sessionID), zap.Error(err))
		}
	}
}

// UpdateConfig applies a partial update and returns the effective config.
func (o *Orchestrator) UpdateConfig(u ConfigUpdate) Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = o.cfg.apply(u)
	return o.cfg
}

// Close stops all timers and unblocks pending callers with ErrClosed.
// In-flight cycles drain without installing results.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	for id, s := range o.sessions {
		if s.timer != nil {
			s.timer.Stop()
		}
		if s.win != nil {
			s.win.err = ErrClosed
			close(s.win.done)
			s.win = nil
		}
		delete(o.sessions, id)
	}
	return nil
}

// session returns the tracked session, creating it when absent. Callers
// hold o.mu.
func (o *Orchestrator) session(id string) *session {
	s := o.sessions[id]
	if s == nil {
		s = &session{}
		o.sessions[id] = s
	}
	return s
}
