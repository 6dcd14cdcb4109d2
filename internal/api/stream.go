package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chat"
	"github.com/stella-dust/blogreader/pkg/llm"
)

type chatStreamRequest struct {
	Input   string        `json:"input"`
	History []llm.Message `json:"history,omitempty"`

	ArticleTitle   string `json:"articleTitle,omitempty"`
	ArticleURL     string `json:"articleUrl,omitempty"`
	ArticleContent string `json:"articleContent,omitempty"`
}

type streamEvent struct {
	name string
	data any
}

type startPayload struct {
	Mode analyzer.Mode `json:"mode"`
}

type chunkPayload struct {
	Content string        `json:"content"`
	Mode    analyzer.Mode `json:"mode"`
}

type errorPayload struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Mode    analyzer.Mode `json:"mode"`
}

// chatStream runs one chat turn and streams its progress as server-sent
// events: start, a chunk per accumulated update, then exactly one of
// complete or error. A dropped connection cancels the run.
func (s *Server) chatStream(w http.ResponseWriter, r *http.Request) {
	if s.processor == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}
	var req chatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Generously buffered so slow clients do not stall the run's callbacks.
	events := make(chan streamEvent, 256)
	cb := chat.Callbacks{
		OnStart: func(mode analyzer.Mode) {
			events <- streamEvent{name: "start", data: startPayload{Mode: mode}}
		},
		OnChunk: func(accumulated string, mode analyzer.Mode) {
			// Chunks carry the full accumulated text, so dropping one under
			// backpressure loses nothing once the next arrives.
			select {
			case events <- streamEvent{name: "chunk", data: chunkPayload{Content: accumulated, Mode: mode}}:
			default:
			}
		},
		OnComplete: func(message *chat.EnhancedChatMessage) {
			events <- streamEvent{name: "complete", data: message}
		},
		OnError: func(diag *chat.Diagnostic, mode analyzer.Mode) {
			events <- streamEvent{name: "error", data: errorPayload{
				Code:    string(diag.Code),
				Message: diag.Message,
				Mode:    mode,
			}}
		},
	}

	run, err := s.processor.Process(r.Context(), chat.ProcessRequest{
		Input:          req.Input,
		Settings:       s.currentSettings(),
		History:        req.History,
		ArticleTitle:   req.ArticleTitle,
		ArticleURL:     req.ArticleURL,
		ArticleContent: req.ArticleContent,
	}, cb)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			run.Cancel()
			drainEvents(events)
			return
		case event := <-events:
			sendSSE(w, event)
			flusher.Flush()
			if event.name == "complete" || event.name == "error" {
				return
			}
		case <-run.Done():
			// Terminal callbacks land on the channel before Done closes;
			// flush whatever is still queued.
			for {
				select {
				case event := <-events:
					sendSSE(w, event)
					flusher.Flush()
					if event.name == "complete" || event.name == "error" {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func sendSSE(w http.ResponseWriter, event streamEvent) {
	payload, _ := json.Marshal(event.data)
	fmt.Fprintf(w, "event: %s\n", event.name)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func drainEvents(events <-chan streamEvent) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
