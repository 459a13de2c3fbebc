package openai

import (
	"github.com/foduucom/themeconv/core"
	"github.com/tmc/langchaingo/llms"
)

// usageFromResponse reads the token counters langchaingo stores in the
// generation info of each choice.
func usageFromResponse(resp *llms.ContentResponse) core.Usage {
	var u core.Usage
	if resp == nil {
		return u
	}
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		info := choice.GenerationInfo
		u = u.Add(core.Usage{
			InputTokens:  intFromInfo(info, "PromptTokens"),
			OutputTokens: intFromInfo(info, "CompletionTokens"),
			TotalTokens:  intFromInfo(info, "TotalTokens"),
		})
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
