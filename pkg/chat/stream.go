package chat

import (
	"context"
	"strings"
	"time"

	"github.com/stella-dust/blogreader/pkg/llm"
)

// relayStream forwards provider deltas to the run as they arrive. Returns
// nil on a complete event, the stream error otherwise.
func (o *Orchestrator) relayStream(ctx context.Context, run *Run, events <-chan llm.StreamEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				// Providers always send a terminal event before closing;
				// a bare close means the stream died mid-flight.
				return context.Canceled
			}
			switch event.Type {
			case llm.StreamEventDelta:
				if !run.emit(event.Delta) {
					return context.Canceled
				}
			case llm.StreamEventError:
				return event.Error
			case llm.StreamEventComplete:
				return nil
			}
		}
	}
}

// simulatedChunkRunes is how many runes each simulated chunk carries.
const simulatedChunkRunes = 2

// simulateStream delivers a pre-synthesized answer incrementally, pausing
// longer after sentence punctuation so the pacing reads naturally. The
// abort signal is checked on every chunk.
func (o *Orchestrator) simulateStream(ctx context.Context, run *Run, text string) error {
	if o.chunkDelay <= 0 {
		if !run.emit(text) {
			return context.Canceled
		}
		return nil
	}

	runes := []rune(text)
	for start := 0; start < len(runes); start += simulatedChunkRunes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		end := start + simulatedChunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if !run.emit(chunk) {
			return context.Canceled
		}

		delay := o.chunkDelay
		if strings.ContainsAny(chunk, "。！？.!?\n") {
			delay *= 3
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}
