// Package timeout defines centralized timeout and limit constants for AI operations.
package timeout

import "time"

// AI operation timeout constants.
const (
	// LLMRequestTimeout bounds a single completion request, retries included.
	LLMRequestTimeout = 2 * time.Minute

	// ToolExecutionTimeout is the timeout for individual tool execution.
	ToolExecutionTimeout = 30 * time.Second

	// WebSearchTimeout is the deadline after which a pending web search is
	// abandoned and reported as timed out.
	WebSearchTimeout = 10 * time.Second

	// EmbeddingTimeout is the timeout for embedding generation.
	EmbeddingTimeout = 30 * time.Second

	// MaxTurnEvents is the safety ceiling on events consumed in one turn.
	MaxTurnEvents = 30

	// RetrievalLimit is the number of passages returned by vector search.
	RetrievalLimit = 5

	// WebSearchMaxResults is the number of web results requested per query.
	WebSearchMaxResults = 5

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
