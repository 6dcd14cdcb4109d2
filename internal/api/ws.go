package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/stella-dust/blogreader/pkg/analyzer"
	"github.com/stella-dust/blogreader/pkg/chat"
)

// wsFrame is one message on the chat WebSocket. Type mirrors the
// orchestrator callbacks: start, chunk, complete, error.
type wsFrame struct {
	Type    string                    `json:"type"`
	Mode    analyzer.Mode             `json:"mode,omitempty"`
	Content string                    `json:"content,omitempty"`
	Message *chat.EnhancedChatMessage `json:"message,omitempty"`
	Code    string                    `json:"code,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// chatWS streams one chat turn over a WebSocket. The client sends a single
// request object, the server streams frames mapping 1:1 onto the callback
// contract, and closing the socket cancels the run.
func (s *Server) chatWS(w http.ResponseWriter, r *http.Request) {
	if s.processor == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var req chatStreamRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		_ = wsjson.Write(ctx, conn, wsFrame{Type: "error", Error: "input is required"})
		_ = conn.Close(websocket.StatusPolicyViolation, "input is required")
		return
	}

	frames := make(chan wsFrame, 256)
	cb := chat.Callbacks{
		OnStart: func(mode analyzer.Mode) {
			frames <- wsFrame{Type: "start", Mode: mode}
		},
		OnChunk: func(accumulated string, mode analyzer.Mode) {
			// Accumulated snapshots supersede each other, so dropping one
			// under backpressure is safe.
			select {
			case frames <- wsFrame{Type: "chunk", Mode: mode, Content: accumulated}:
			default:
			}
		},
		OnComplete: func(message *chat.EnhancedChatMessage) {
			frames <- wsFrame{Type: "complete", Message: message}
		},
		OnError: func(diag *chat.Diagnostic, mode analyzer.Mode) {
			frames <- wsFrame{Type: "error", Mode: mode, Code: string(diag.Code), Error: diag.Message}
		},
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	run, err := s.processor.Process(runCtx, chat.ProcessRequest{
		Input:          req.Input,
		Settings:       s.currentSettings(),
		History:        req.History,
		ArticleTitle:   req.ArticleTitle,
		ArticleURL:     req.ArticleURL,
		ArticleContent: req.ArticleContent,
	}, cb)
	if err != nil {
		_ = wsjson.Write(ctx, conn, wsFrame{Type: "error", Error: err.Error()})
		_ = conn.Close(websocket.StatusPolicyViolation, "bad request")
		return
	}

	// Any further read means the client went away or asked to stop.
	go func() {
		if _, _, err := conn.Read(ctx); err != nil {
			run.Cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			run.Cancel()
			return
		case frame := <-frames:
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				run.Cancel()
				return
			}
			if frame.Type == "complete" || frame.Type == "error" {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		case <-run.Done():
			for {
				select {
				case frame := <-frames:
					if err := wsjson.Write(ctx, conn, frame); err != nil {
						return
					}
					if frame.Type == "complete" || frame.Type == "error" {
						_ = conn.Close(websocket.StatusNormalClosure, "")
						return
					}
				default:
					_ = conn.Close(websocket.StatusNormalClosure, "")
					return
				}
			}
		}
	}
}
