package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// EvalProvider runs model-authored snippets through a local interpreter
// subprocess (node by default). Output is plain text, hard-capped.
type EvalProvider struct {
	interpreter string
	timeout     time.Duration
}

func NewEvalProvider(interpreter string, timeoutSeconds int) *EvalProvider {
	if interpreter == "" {
		interpreter = "node"
	}
	t := 30
	if timeoutSeconds > 0 {
		t = timeoutSeconds
	}
	return &EvalProvider{
		interpreter: interpreter,
		timeout:     time.Duration(t) * time.Second,
	}
}

func (p *EvalProvider) ListTools(_ context.Context) ([]schema.ToolDescriptor, error) {
	return []schema.ToolDescriptor{
		{
			Name:        "evaluate_code",
			Description: "Evaluate a JavaScript snippet and return its output. An optional chat:// resource is piped to stdin.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code": map[string]any{
						"type":        "string",
						"description": "JavaScript source to evaluate",
					},
					"input": map[string]any{
						"type":        "string",
						"format":      "uri",
						"description": "Optional chat:// resource piped to stdin",
					},
				},
				"required":             []any{"code"},
				"additionalProperties": false,
			},
		},
	}, nil
}

func (p *EvalProvider) CallTool(ctx context.Context, _, name string, args map[string]any) (*schema.ToolResult, error) {
	if name != "evaluate_code" {
		return nil, fmt.Errorf("eval provider has no tool %q", name)
	}
	code, _ := args["code"].(string)
	if code == "" {
		return schema.NewErrorResult("Error: code is required"), nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, p.interpreter, "-e", code)
	if input, ok := args["input"].(string); ok && input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cmdCtx.Err() != nil {
		return schema.NewErrorResult(fmt.Sprintf("Error: evaluation timed out after %v", p.timeout)), nil
	}

	var parts []string
	if out := stdout.String(); out != "" {
		parts = append(parts, out)
	}
	if errOut := stderr.String(); strings.TrimSpace(errOut) != "" {
		parts = append(parts, "STDERR:\n"+errOut)
	}
	if runErr != nil && cmd.ProcessState != nil && cmd.ProcessState.ExitCode() != 0 {
		parts = append(parts, fmt.Sprintf("Exit code: %d", cmd.ProcessState.ExitCode()))
	}

	result := strings.Join(parts, "\n")
	if result == "" {
		result = "(no output)"
	}
	const maxLen = 10000
	if len(result) > maxLen {
		result = result[:maxLen] + fmt.Sprintf("\n... (truncated, %d more chars)", len(result)-maxLen)
	}
	return schema.NewToolResult(schema.NewTextPart(result)), nil
}
