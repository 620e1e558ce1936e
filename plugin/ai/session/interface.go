// Package session provides durable, cached conversation session state for AI agents.
package session

import (
	"context"
	"strings"
	"time"
)

// Service defines the session persistence service interface.
// Consumers: the turn runner and the HTTP session endpoints.
type Service interface {
	// Create allocates a fresh session, persists it and returns its id.
	Create(ctx context.Context, appName, userID string) (string, error)

	// Get returns the session, or nil when no durable record exists.
	Get(ctx context.Context, appName, userID, sessionID string) (*Session, error)

	// Update replaces the cached copy and persists it immediately.
	Update(ctx context.Context, session *Session) error

	// Delete removes the durable record and the cached copy.
	Delete(ctx context.Context, appName, userID, sessionID string) error

	// List enumerates durably known session ids.
	List(ctx context.Context, appName, userID string) ([]string, error)
}

// Author is the role that produced an event.
type Author string

const (
	AuthorUser  Author = "user"
	AuthorAgent Author = "agent"
	AuthorTool  Author = "tool"
)

// Session is an ordered, append-only event log owned by one app/user pair.
type Session struct {
	ID        string   `json:"id"`
	AppName   string   `json:"app_name"`
	UserID    string   `json:"user_id"`
	Events    []*Event `json:"events"`
	CreatedTs int64    `json:"created_ts"`
	UpdatedTs int64    `json:"updated_ts"`
}

// Event is an immutable, authored unit of conversation content.
type Event struct {
	ID           string `json:"id"`
	Author       Author `json:"author"`
	InvocationID string `json:"invocation_id"`
	Content      []Part `json:"content"`
	// Final marks the completion service's final response for a turn.
	Final     bool  `json:"final,omitempty"`
	Timestamp int64 `json:"timestamp"`
}

// Part is one content item of an event: text or a typed payload.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

// FunctionCall is a tool invocation requested by the agent.
type FunctionCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"` // JSON object text
}

// FunctionResponse is the result of a tool invocation.
type FunctionResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Response string `json:"response"`
}

// TextPart returns a text content part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// Text concatenates the event's text parts in order.
func (e *Event) Text() string {
	var b strings.Builder
	for _, p := range e.Content {
		b.WriteString(p.Text)
	}
	return b.String()
}

// HasText reports whether any text part is non-empty.
func (e *Event) HasText() bool {
	for _, p := range e.Content {
		if p.Text != "" {
			return true
		}
	}
	return false
}

// FunctionCalls returns the tool invocations carried by the event.
func (e *Event) FunctionCalls() []*FunctionCall {
	var calls []*FunctionCall
	for _, p := range e.Content {
		if p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

// Append adds events to the log and bumps UpdatedTs.
func (s *Session) Append(events ...*Event) {
	s.Events = append(s.Events, events...)
	s.UpdatedTs = time.Now().Unix()
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Events = make([]*Event, len(s.Events))
	for i, e := range s.Events {
		c.Events[i] = e.clone()
	}
	return &c
}

func (e *Event) clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Content = make([]Part, len(e.Content))
	for i, p := range e.Content {
		if p.FunctionCall != nil {
			fc := *p.FunctionCall
			p.FunctionCall = &fc
		}
		if p.FunctionResponse != nil {
			fr := *p.FunctionResponse
			p.FunctionResponse = &fr
		}
		c.Content[i] = p
	}
	return &c
}
