package providers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// streamAnthropic speaks the native Anthropic Messages API with SSE.
func (p *OpenAIProvider) streamAnthropic(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	model string,
	maxTokens int,
	temperature float64,
) (<-chan schema.StreamEvent, error) {
	system, converted := convertMessagesToAnthropic(messages)

	body := map[string]any{
		"model":       model,
		"messages":    converted,
		"max_tokens":  maxTokens,
		"temperature": temperature,
		"stream":      true,
	}
	if system != "" {
		body["system"] = system
	}
	if len(tools) > 0 {
		body["tools"] = convertToolsToAnthropic(tools)
	}

	resp, err := p.post(ctx, p.apiBase+"/messages", body, map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return nil, err
	}

	events := make(chan schema.StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		consumeAnthropicStream(ctx, resp.Body, events)
	}()
	return events, nil
}

// anthropicEvent covers every SSE payload variant; Type discriminates.
type anthropicEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Message *struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"` // message_start
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"` // content_block_start
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`         // text_delta
		PartialJSON string `json:"partial_json"` // input_json_delta
		Thinking    string `json:"thinking"`     // thinking_delta
		StopReason  string `json:"stop_reason"`  // message_delta
	} `json:"delta"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"` // message_delta
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func consumeAnthropicStream(ctx context.Context, r io.Reader, events chan<- schema.StreamEvent) {
	var content, reasoning strings.Builder
	blocks := map[int]*toolAccum{} // tool_use blocks only
	var blockOrder []int
	stop := ""
	usage := map[string]int{}

	emit := func(ev schema.StreamEvent) bool {
		select {
		case <-ctx.Done():
			return false
		case events <- ev:
			return true
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}

		var ev anthropicEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				usage["prompt_tokens"] = ev.Message.Usage.InputTokens
			}
		case "content_block_start":
			// Plain tool_use maps to a function call. Variants such as
			// server_tool_use keep their wire type so the driver can refuse
			// them instead of the call silently vanishing.
			if ev.ContentBlock != nil && strings.HasSuffix(ev.ContentBlock.Type, "tool_use") {
				acc := &toolAccum{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
				if ev.ContentBlock.Type != "tool_use" {
					acc.typ = ev.ContentBlock.Type
				}
				blocks[ev.Index] = acc
				blockOrder = append(blockOrder, ev.Index)
			}
		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				content.WriteString(ev.Delta.Text)
				if !emit(schema.StreamEvent{Delta: ev.Delta.Text}) {
					return
				}
			case "input_json_delta":
				if acc := blocks[ev.Index]; acc != nil {
					acc.args.WriteString(ev.Delta.PartialJSON)
				}
			case "thinking_delta":
				reasoning.WriteString(ev.Delta.Thinking)
			}
		case "message_delta":
			if ev.Delta != nil && ev.Delta.StopReason != "" {
				stop = ev.Delta.StopReason
			}
			if ev.Usage != nil {
				usage["completion_tokens"] = ev.Usage.OutputTokens
				usage["total_tokens"] = usage["prompt_tokens"] + ev.Usage.OutputTokens
			}
		case "error":
			msg := "stream error"
			if ev.Error != nil {
				msg = ev.Error.Message
			}
			emit(schema.StreamEvent{Err: fmt.Errorf("anthropic: %s", msg)})
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() == nil {
			emit(schema.StreamEvent{Err: fmt.Errorf("read stream: %w", err)})
		}
		return
	}

	var toolCalls []schema.ToolCall
	for _, i := range blockOrder {
		acc := blocks[i]
		toolCalls = append(toolCalls, schema.ToolCall{
			ID:        acc.id,
			Type:      acc.typ,
			Name:      acc.name,
			Arguments: acc.args.String(),
		})
	}

	finish := "stop"
	switch {
	case stop == "tool_use":
		finish = "tool_calls"
	case stop != "" && stop != "end_turn":
		finish = stop
	}

	emit(schema.StreamEvent{Final: &schema.LLMResponse{
		Content:          nonEmpty(content.String()),
		ToolCalls:        toolCalls,
		FinishReason:     finish,
		Usage:            usage,
		ReasoningContent: nonEmpty(reasoning.String()),
	}})
}

// ---------------------------------------------------------------------------
// Format conversion
// ---------------------------------------------------------------------------

// convertMessagesToAnthropic converts typed messages to Anthropic's wire
// format. Returns (system_prompt, converted_messages).
func convertMessagesToAnthropic(messages schema.Messages) (string, []map[string]any) {
	var system string
	var out []map[string]any

	for _, msg := range messages.Messages {
		switch msg.Role {
		case "system":
			if s, ok := msg.Content.(string); ok {
				if system != "" {
					system += "\n\n"
				}
				system += s
			}

		case "user":
			out = append(out, map[string]any{
				"role":    "user",
				"content": anthropicUserContent(msg.Content),
			})

		case "tool":
			block := map[string]any{
				"type":        "tool_result",
				"tool_use_id": msg.ToolCallID,
				"content":     anyToString(msg.Content),
			}
			// Merge consecutive tool results into one user message.
			if len(out) > 0 && out[len(out)-1]["role"] == "user" {
				prev := out[len(out)-1]
				switch c := prev["content"].(type) {
				case []any:
					prev["content"] = append(c, block)
				default:
					prev["content"] = []any{block}
				}
			} else {
				out = append(out, map[string]any{"role": "user", "content": []any{block}})
			}

		case "assistant":
			var blocks []any
			if s, ok := msg.Content.(*string); ok && s != nil && *s != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": *s})
			} else if s, ok := msg.Content.(string); ok && s != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": s})
			}
			calls := msg.ToolCalls
			if msg.FunctionCall != nil {
				calls = []schema.ToolCall{*msg.FunctionCall}
			}
			for _, tc := range calls {
				var input map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil || input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": input,
				})
			}
			if len(blocks) == 0 {
				blocks = []any{map[string]any{"type": "text", "text": ""}}
			}
			out = append(out, map[string]any{"role": "assistant", "content": blocks})
		}
	}
	return system, out
}

// anthropicUserContent converts user content to Anthropic blocks. Plain
// strings pass through; image_url blocks with data URLs become base64 image
// blocks; audio has no Anthropic equivalent and degrades to a text marker.
func anthropicUserContent(content any) any {
	blocks, ok := content.([]schema.ContentBlock)
	if !ok {
		if content == nil {
			return ""
		}
		return content
	}
	var out []any
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out = append(out, map[string]any{"type": "text", "text": b.Text})
		case "image_url":
			url, _ := b.ImageURL["url"].(string)
			if mediaType, data, ok := splitDataURL(url); ok {
				out = append(out, map[string]any{
					"type": "image",
					"source": map[string]any{
						"type":       "base64",
						"media_type": mediaType,
						"data":       data,
					},
				})
			}
		case "input_audio":
			out = append(out, map[string]any{"type": "text", "text": "[audio attachment]"})
		}
	}
	return out
}

// splitDataURL decomposes "data:<mime>;base64,<data>".
func splitDataURL(url string) (mediaType, data string, ok bool) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", "", false
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", false
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	return mediaType, data, true
}

// convertToolsToAnthropic converts OpenAI function schemas to Anthropic tool
// format. Key difference: "parameters" → "input_schema".
func convertToolsToAnthropic(tools []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		fn, _ := t["function"].(map[string]any)
		if fn == nil {
			continue
		}
		at := map[string]any{
			"name":         fn["name"],
			"description":  fn["description"],
			"input_schema": fn["parameters"],
		}
		if cc, ok := t["cache_control"]; ok {
			at["cache_control"] = cc
		}
		out = append(out, at)
	}
	return out
}
