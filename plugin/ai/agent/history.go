package agent

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hrygo/lexagent/plugin/ai"
	"github.com/hrygo/lexagent/plugin/ai/session"
)

// DefaultHistoryTokens bounds the conversation history sent with each
// completion request.
const DefaultHistoryTokens = 6000

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// CountTokens returns the cl100k_base token count of text, or a rune based
// estimate when the encoding can not be loaded.
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

func estimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	return estimate
}

// buildHistory converts session events into chat messages. Whole turns
// (events sharing an invocation id) are dropped oldest first until the
// history fits within budget; the latest turn is always kept.
func buildHistory(events []*session.Event, budget int) []ai.Message {
	type turn struct {
		messages []ai.Message
		tokens   int
	}

	var turns []*turn
	lastInvocation := ""
	for _, ev := range events {
		if len(turns) == 0 || ev.InvocationID != lastInvocation {
			turns = append(turns, &turn{})
			lastInvocation = ev.InvocationID
		}
		t := turns[len(turns)-1]
		for _, msg := range eventMessages(ev) {
			t.messages = append(t.messages, msg)
			t.tokens += messageTokens(msg)
		}
	}
	if len(turns) == 0 {
		return nil
	}

	start := len(turns) - 1
	total := turns[start].tokens
	for start > 0 && (budget <= 0 || total+turns[start-1].tokens <= budget) {
		start--
		total += turns[start].tokens
	}

	var messages []ai.Message
	for _, t := range turns[start:] {
		messages = append(messages, t.messages...)
	}
	return messages
}

func messageTokens(msg ai.Message) int {
	n := CountTokens(msg.Content)
	for _, tc := range msg.ToolCalls {
		n += CountTokens(tc.Function.Name) + CountTokens(tc.Function.Arguments)
	}
	return n + 4
}

// eventMessages maps one event to the chat messages it contributes.
func eventMessages(ev *session.Event) []ai.Message {
	switch ev.Author {
	case session.AuthorUser:
		if !ev.HasText() {
			return nil
		}
		return []ai.Message{ai.UserMessage(ev.Text())}

	case session.AuthorAgent:
		msg := ai.AssistantMessage(ev.Text())
		for _, fc := range ev.FunctionCalls() {
			msg.ToolCalls = append(msg.ToolCalls, ai.ToolCall{
				ID:   fc.ID,
				Type: "function",
				Function: ai.FunctionCall{
					Name:      fc.Name,
					Arguments: fc.Args,
				},
			})
		}
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			return nil
		}
		return []ai.Message{msg}

	case session.AuthorTool:
		var msgs []ai.Message
		for _, p := range ev.Content {
			if p.FunctionResponse != nil {
				msgs = append(msgs, ai.ToolMessage(p.FunctionResponse.ID, p.FunctionResponse.Response))
			}
		}
		return msgs
	}
	return nil
}
