package agent

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// PromptVersion identifies a specific version of a prompt template.
type PromptVersion string

const (
	// PromptV1 is the baseline legal assistant instruction.
	PromptV1 PromptVersion = "v1"
	// PromptV2 adds an explicit citation requirement.
	PromptV2 PromptVersion = "v2"
)

// PromptConfig holds versioned prompt templates.
type PromptConfig struct {
	// Version is the currently active prompt version.
	Version PromptVersion

	// Templates maps version IDs to template strings.
	Templates map[PromptVersion]string
}

// GetTemplate returns the active prompt template, falling back to v1.
func (c *PromptConfig) GetTemplate() string {
	if template, ok := c.Templates[c.Version]; ok {
		return template
	}
	return c.Templates[PromptV1]
}

// SetVersion sets the active prompt version.
func (c *PromptConfig) SetVersion(v PromptVersion) error {
	if _, ok := c.Templates[v]; !ok {
		return fmt.Errorf("prompt version %s not found", v)
	}
	c.Version = v
	return nil
}

const legalInstruction = `You are an advanced Legal Agent for Indian Law.

YOUR TOOLS:
1. 'retrieve_legal_info': use this FIRST to check specific Acts (BNS, Consumer Protection).
2. 'search_web': use this for recent case laws, news, or if the retrieval yields no results.
3. 'generate_legal_document': use this ONLY when the user explicitly asks to draft/write a document.

GUIDELINES FOR DOCUMENT GENERATION:
When calling 'generate_legal_document', you MUST use the exact keys below in your JSON based on the doc_type:

[For doc_type="notice"]
- "OPPONENT_NAME": Name of person receiving notice.
- "OPPONENT_ADDRESS": Their full address.
- "CLIENT_NAME": Name of your client.
- "CLIENT_ADDRESS": Client's address.
- "DATE": Today's date (today is %s).
- "REF_NO": A reference number (e.g., "LEG/2025/001").
- "REASON": Short subject (e.g., "Non-payment of Dues").
- "CASE_DETAILS": Full paragraph explaining the facts.
- "DEMAND": What they must do (e.g., "Pay Rs. 2 Lakhs").

[For doc_type="consumer_complaint"]
- "CLIENT_NAME", "CLIENT_ADDRESS", "OPPONENT_NAME", "OPPONENT_ADDRESS", "CITY", "DATE"
- "CASE_DETAILS": Purchase details.
- "DEFECT_DETAILS": What went wrong.
- "COMPENSATION_AMOUNT": Amount claimed.

[For doc_type="rti"]
- "DEPARTMENT_NAME", "DEPARTMENT_ADDRESS", "CLIENT_NAME", "CLIENT_ADDRESS", "CITY", "DATE"
- "SUBJECT": RTI Subject.
- "PERIOD": Time period of info.
- "CASE_DETAILS": Specific questions to ask.

CRITICAL SYSTEM RULES:
1. You are allowed a MAXIMUM of 2 tool calls per user message. If you haven't found the answer by then, STOP and answer with what you know.
2. If 'retrieve_legal_info' returns "No docs found", DO NOT try again with a slightly different query. Switch to 'search_web' or answer directly.
3. Speak in plain text, never raw JSON.
4. Only use 'generate_legal_document' if explicitly asked to "draft" or "create" a document.
5. After a document is generated, repeat the tool's "Document created at:" line verbatim in your answer.

ALWAYS ask the user for missing details before generating!`

const citationRule = `

6. When you rely on retrieved passages or web results, name the Act, section or URL you used.`

// NewLegalPrompt returns the legal assistant prompt config. The active
// version can be overridden with LEXAGENT_PROMPT_VERSION.
func NewLegalPrompt() *PromptConfig {
	c := &PromptConfig{
		Version: PromptV1,
		Templates: map[PromptVersion]string{
			PromptV1: legalInstruction,
			PromptV2: strings.Replace(legalInstruction, "\n\nALWAYS ask", citationRule+"\n\nALWAYS ask", 1),
		},
	}
	if v := os.Getenv("LEXAGENT_PROMPT_VERSION"); v != "" {
		if err := c.SetVersion(PromptVersion(v)); err != nil {
			slog.Warn("ignoring prompt version override", "version", v, "error", err)
		}
	}
	return c
}

// SystemPrompt renders the active instruction for the given date.
func (c *PromptConfig) SystemPrompt(today string) string {
	return fmt.Sprintf(c.GetTemplate(), today)
}
