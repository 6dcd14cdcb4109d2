package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stella-dust/blogreader/pkg/chat"
	"github.com/stella-dust/blogreader/pkg/llm"
)

type processRequest struct {
	// Action selects a built-in prompt: "translate" or "interpret".
	// A custom Prompt overrides it.
	Action  string `json:"action,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Content string `json:"content"`
}

type processResponse struct {
	Result string `json:"result"`
}

// process runs a single non-streamed generation over the given content.
// Powers the translate and interpret actions.
func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "no llm provider configured")
		return
	}
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	systemPrompt := strings.TrimSpace(req.Prompt)
	if systemPrompt == "" {
		switch req.Action {
		case "translate":
			systemPrompt = chat.TranslateSystemPrompt
		case "interpret":
			systemPrompt = chat.InterpretSystemPrompt
		default:
			writeError(w, http.StatusBadRequest, "prompt or a known action is required")
			return
		}
	}

	result, err := s.generator.Generate(r.Context(), llm.GenerateParams{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: req.Content}},
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, processResponse{Result: result})
}
