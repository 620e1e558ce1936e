package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/lexagent/plugin/ai/session"
	aierrors "github.com/hrygo/lexagent/server/internal/errors"
)

const transcriptToolOutputLimit = 1500

var transcriptMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// GetTranscript renders a session as a readable transcript, HTML by
// default or markdown with ?format=markdown.
// GET /api/v1/sessions/:id/transcript
func (s *APIV1Service) GetTranscript(c echo.Context) error {
	sess, aiErr := s.loadSession(c)
	if aiErr != nil {
		return errorResponse(c, aiErr)
	}

	md := TranscriptMarkdown(sess)
	if c.QueryParam("format") == "markdown" {
		return c.Blob(http.StatusOK, "text/markdown; charset=UTF-8", []byte(md))
	}

	var body bytes.Buffer
	if err := transcriptMarkdown.Convert([]byte(md), &body); err != nil {
		return errorResponse(c, aierrors.Wrap(err, aierrors.ErrCodeServiceUnavailable, "render transcript"))
	}
	page := fmt.Sprintf("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Session %s</title></head><body>\n%s</body></html>\n",
		sess.ID, body.String())
	return c.HTML(http.StatusOK, page)
}

// TranscriptMarkdown renders the session's events as markdown.
func TranscriptMarkdown(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", sess.ID)
	if sess.CreatedTs > 0 {
		fmt.Fprintf(&b, "Started %s by `%s`.\n\n", time.Unix(sess.CreatedTs, 0).UTC().Format(time.RFC1123), sess.UserID)
	}

	for _, ev := range sess.Events {
		switch ev.Author {
		case session.AuthorUser:
			fmt.Fprintf(&b, "## User\n\n%s\n\n", ev.Text())
		case session.AuthorAgent:
			if text := ev.Text(); text != "" {
				fmt.Fprintf(&b, "## Assistant\n\n%s\n\n", text)
			}
			for _, fc := range ev.FunctionCalls() {
				fmt.Fprintf(&b, "> Tool call `%s`\n>\n> ```json\n> %s\n> ```\n\n", fc.Name, fc.Args)
			}
		case session.AuthorTool:
			for _, p := range ev.Content {
				if p.FunctionResponse == nil {
					continue
				}
				out := p.FunctionResponse.Response
				if r := []rune(out); len(r) > transcriptToolOutputLimit {
					out = string(r[:transcriptToolOutputLimit]) + "\n..."
				}
				fmt.Fprintf(&b, "<details><summary>%s result</summary>\n\n```\n%s\n```\n\n</details>\n\n", p.FunctionResponse.Name, out)
			}
		}
	}
	return b.String()
}
