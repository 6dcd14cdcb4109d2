package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/llm"
)

type State string

const (
	StateIdle       State = "idle"
	StateStaging    State = "staging"
	StateGenerating State = "generating"
	StateComplete   State = "complete"
	StateAborted    State = "aborted"
	StateFailed     State = "failed"
)

func (s State) Terminal() bool {
	return s == StateComplete || s == StateAborted || s == StateFailed
}

// Run is one orchestration of a single user message. It owns its own
// cancellation token; cancelling one run never affects another.
type Run struct {
	id       string
	analysis analyzer.InputAnalysis
	cb       Callbacks
	cancel   context.CancelFunc
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	accumulated strings.Builder
	msg         *EnhancedChatMessage

	// cbMu serializes chunk delivery against Cancel so no OnChunk lands
	// after Cancel has returned.
	cbMu sync.Mutex

	done     chan struct{}
	doneOnce sync.Once
}

func newRun(analysis analyzer.InputAnalysis, cb Callbacks, log zerolog.Logger) *Run {
	runID := xid.New().String()
	return &Run{
		id:       runID,
		analysis: analysis,
		cb:       cb,
		log:      log.With().Str("run_id", runID).Str("mode", string(analysis.Mode.Type)).Logger(),
		state:    StateIdle,
		msg: &EnhancedChatMessage{
			ID:          uuid.NewString(),
			Role:        llm.RoleAssistant,
			Timestamp:   time.Now(),
			Mode:        analysis.Mode.Type,
			IsStreaming: true,
		},
		done: make(chan struct{}),
	}
}

func (r *Run) ID() string {
	return r.id
}

func (r *Run) Mode() analyzer.Mode {
	return r.analysis.Mode.Type
}

func (r *Run) Analysis() analyzer.InputAnalysis {
	return r.analysis
}

func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Message returns a snapshot of the message as accumulated so far.
func (r *Run) Message() EnhancedChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.msg
}

// Done is closed once the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel aborts the run. Outstanding network calls are cancelled at the
// transport level and no further callbacks fire: Cancel waits out a chunk
// delivery already in flight, so nothing lands after it returns.
func (r *Run) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
	r.cbMu.Lock()
	r.mu.Lock()
	if !r.state.Terminal() {
		r.state = StateAborted
		r.msg.IsStreaming = false
		r.log.Debug().Msg("Run cancelled")
	}
	r.mu.Unlock()
	r.cbMu.Unlock()
	r.closeDone()
}

func (r *Run) closeDone() {
	r.doneOnce.Do(func() {
		close(r.done)
	})
}

// start moves idle to staging and announces the resolved mode.
func (r *Run) start() {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return
	}
	r.state = StateStaging
	r.mu.Unlock()
	if r.cb.OnStart != nil {
		r.cb.OnStart(r.analysis.Mode.Type)
	}
}

func (r *Run) setGenerating() {
	r.mu.Lock()
	if r.state == StateStaging {
		r.state = StateGenerating
	}
	r.mu.Unlock()
}

// emit appends text and delivers the accumulated content. Returns false
// once the run is terminal, which pipelines treat as a stop signal.
func (r *Run) emit(text string) bool {
	if text == "" {
		return !r.State().Terminal()
	}
	r.cbMu.Lock()
	defer r.cbMu.Unlock()

	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return false
	}
	r.accumulated.WriteString(text)
	r.msg.Content = r.accumulated.String()
	snapshot := r.msg.Content
	mode := r.analysis.Mode.Type
	r.mu.Unlock()

	if r.cb.OnChunk != nil {
		r.cb.OnChunk(snapshot, mode)
	}
	return true
}

func (r *Run) addSource(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msg.Sources) < maxSources {
		r.msg.Sources = append(r.msg.Sources, source)
	}
}

func (r *Run) finishComplete() {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		r.closeDone()
		return
	}
	r.state = StateComplete
	r.msg.IsStreaming = false
	final := *r.msg
	r.mu.Unlock()

	r.log.Debug().Int("content_len", len(final.Content)).Int("sources", len(final.Sources)).Msg("Run complete")
	if r.cb.OnComplete != nil {
		r.cb.OnComplete(&final)
	}
	r.closeDone()
}

func (r *Run) finishError(diag *Diagnostic) {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		r.closeDone()
		return
	}
	r.state = StateFailed
	r.msg.IsStreaming = false
	mode := r.analysis.Mode.Type
	r.mu.Unlock()

	r.log.Warn().Err(diag.Err).Str("code", string(diag.Code)).Msg("Run failed")
	if r.cb.OnError != nil {
		r.cb.OnError(diag, mode)
	}
	r.closeDone()
}

func (r *Run) finishAborted() {
	r.mu.Lock()
	if !r.state.Terminal() {
		r.state = StateAborted
		r.msg.IsStreaming = false
	}
	r.mu.Unlock()
	r.closeDone()
}
