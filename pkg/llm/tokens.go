package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// getTokenizer returns a cached tiktoken encoder for the given model.
func getTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	if tkm, ok := tokenizerCache[model]; ok {
		tokenizerCacheMu.RUnlock()
		return tkm, nil
	}
	tokenizerCacheMu.RUnlock()

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Non-OpenAI models are not in tiktoken's registry; cl100k_base is
		// a close enough approximation for budgeting purposes.
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}

	tokenizerCache[model] = tkm
	return tkm, nil
}

// CountTokens estimates the token count of text for the given model.
func CountTokens(text, model string) (int, error) {
	tkm, err := getTokenizer(model)
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}

// TrimToTokenBudget cuts text down so it encodes to at most budget tokens.
// On tokenizer failure the text is returned unchanged; budgeting is an
// optimization, not a correctness requirement.
func TrimToTokenBudget(text, model string, budget int) string {
	if budget <= 0 {
		return text
	}
	tkm, err := getTokenizer(model)
	if err != nil {
		return text
	}
	tokens := tkm.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return tkm.Decode(tokens[:budget])
}
