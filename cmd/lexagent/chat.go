package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// chatClient talks to a running server's chat surface.
type chatClient struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

type chatReply struct {
	Response  string  `json:"response"`
	Filename  *string `json:"filename"`
	SessionID string  `json:"session_id"`
}

func newChatCommand() *cobra.Command {
	var (
		serverURL string
		sessionID string
		userID    string
		message   string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running server from the terminal",
		Long: `chat opens a session on a running server and relays messages typed on stdin.
Pass --message to send a single message and exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &chatClient{
				baseURL:    strings.TrimRight(serverURL, "/"),
				userID:     userID,
				httpClient: &http.Client{Timeout: 5 * time.Minute},
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if message != "" {
				reply, err := client.send(ctx, sessionID, message)
				if err != nil {
					return err
				}
				printReply(out, client.baseURL, reply)
				return nil
			}

			if sessionID == "" {
				id, err := client.newSession(ctx)
				if err != nil {
					return err
				}
				sessionID = id
			}
			fmt.Fprintf(out, "Session %s. Type your question, or \"exit\" to quit.\n", sessionID)
			return client.repl(ctx, cmd.InOrStdin(), out, sessionID)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "server base URL")
	cmd.Flags().StringVar(&sessionID, "session", "", "continue an existing session")
	cmd.Flags().StringVar(&userID, "user", "", "user id sent with each message")
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and exit")
	return cmd
}

func (c *chatClient) repl(ctx context.Context, in io.Reader, out io.Writer, sessionID string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		reply, err := c.send(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		sessionID = reply.SessionID
		printReply(out, c.baseURL, reply)
	}
}

func (c *chatClient) newSession(ctx context.Context) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.post(ctx, "/session", nil, &resp); err != nil {
		return "", errors.Wrap(err, "failed to create session")
	}
	return resp.SessionID, nil
}

func (c *chatClient) send(ctx context.Context, sessionID, message string) (*chatReply, error) {
	body := map[string]string{"message": message}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	if c.userID != "" {
		body["user_id"] = c.userID
	}
	var reply chatReply
	if err := c.post(ctx, "/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *chatClient) post(ctx context.Context, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &detail) == nil && detail.Detail != "" {
			return errors.Errorf("server returned %d: %s", resp.StatusCode, detail.Detail)
		}
		return errors.Errorf("server returned %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}

func printReply(out io.Writer, baseURL string, reply *chatReply) {
	fmt.Fprintln(out, reply.Response)
	if reply.Filename != nil {
		fmt.Fprintf(out, "\nDownload: %s/downloads/%s\n", baseURL, *reply.Filename)
	}
}

