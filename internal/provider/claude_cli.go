package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"trendsift/internal/config"
	"trendsift/internal/retry"
)

// ClaudeCLIClient implements Client using the Claude Code CLI subprocess.
// It executes `claude -p --output-format json --model <model>` and parses
// the JSON response. The CLI is subscription-billed, which is why this tier
// sorts ahead of the metered API tiers.
type ClaudeCLIClient struct {
	binary  string
	model   string
	timeout time.Duration
}

// claudeCLIResponse is the JSON shape of `claude --output-format json`.
type claudeCLIResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	IsRateLimited bool `json:"is_rate_limited,omitempty"`
}

// NewClaudeCLIClient creates a CLI client. Nil config applies defaults
// (binary "claude", model "sonnet", 300s timeout).
func NewClaudeCLIClient(cfg *config.ClaudeCLIConfig) *ClaudeCLIClient {
	binary := "claude"
	model := "sonnet"
	timeout := 300 * time.Second

	if cfg != nil {
		if cfg.Binary != "" {
			binary = cfg.Binary
		}
		if cfg.Model != "" {
			model = cfg.Model
		}
		if cfg.Timeout > 0 {
			timeout = time.Duration(cfg.Timeout) * time.Second
		}
	}

	return &ClaudeCLIClient{binary: binary, model: model, timeout: timeout}
}

// Available reports whether the CLI binary can be found on PATH. The router
// pre-checks this so a missing binary never costs a doomed subprocess call.
func (c *ClaudeCLIClient) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Complete sends a prompt to the CLI and returns the completion.
func (c *ClaudeCLIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with an optional system message. The
// system prompt is prepended since the CLI takes a single -p input.
func (c *ClaudeCLIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var combined string
	if strings.TrimSpace(systemPrompt) != "" {
		combined = fmt.Sprintf("[System Instructions]\n%s\n\n[User Request]\n%s", systemPrompt, userPrompt)
	} else {
		combined = userPrompt
	}
	return c.executeCLI(ctx, combined)
}

func (c *ClaudeCLIClient) executeCLI(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-p", prompt,
		"--output-format", "json",
		"--model", c.model,
	}
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("claude CLI timed out after %v: %w", c.timeout, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("claude CLI execution canceled: %w", ctx.Err())
		}

		stderrStr := stderr.String()
		if isRateLimitMessage(stderrStr) {
			return "", &retry.RateLimitError{Provider: "claude-cli", RawResponse: stderrStr}
		}
		return "", fmt.Errorf("claude CLI execution failed: %w (stderr: %s)", err, truncateString(stderrStr, 500))
	}

	return c.parseResponse(stdout.Bytes())
}

// parseResponse extracts the assistant message text from the CLI JSON.
func (c *ClaudeCLIClient) parseResponse(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty response from claude CLI")
	}

	var resp claudeCLIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal claude CLI response: %w (raw: %s)", err, truncateString(string(data), 500))
	}

	if resp.IsRateLimited {
		return "", &retry.RateLimitError{Provider: "claude-cli", RawResponse: string(data)}
	}
	if resp.Error != nil {
		if isRateLimitMessage(resp.Error.Message) || isRateLimitMessage(resp.Error.Type) {
			return "", &retry.RateLimitError{Provider: "claude-cli", RawResponse: resp.Error.Message}
		}
		return "", fmt.Errorf("claude CLI error: %s (type: %s)", resp.Error.Message, resp.Error.Type)
	}

	var result strings.Builder
	for _, content := range resp.Result.Content {
		if content.Type == "text" {
			result.WriteString(content.Text)
		}
	}

	text := strings.TrimSpace(result.String())
	if text == "" {
		return "", errors.New("no text content in claude CLI response")
	}
	return text, nil
}

// SetModel changes the model used for completions.
func (c *ClaudeCLIClient) SetModel(model string) { c.model = model }

// GetModel returns the current model.
func (c *ClaudeCLIClient) GetModel() string { return c.model }

// SetTimeout changes the timeout for CLI execution.
func (c *ClaudeCLIClient) SetTimeout(timeout time.Duration) { c.timeout = timeout }

// GetTimeout returns the current timeout.
func (c *ClaudeCLIClient) GetTimeout() time.Duration { return c.timeout }

func isRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "429")
}
