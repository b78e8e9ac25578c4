package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/llm"
)

const (
	gateHistoryTurns   = 4
	gateHistoryCharCap = 160
)

const gateSystemPrompt = `你是一个检索决策器。判断回答用户最新的问题是否需要查询商家运营知识库（平台规则、店铺管理、评价申诉、活动报名等资料）。
仅输出严格的JSON，格式为 {"useKnowledgeBase": true或false, "reason": "简短理由"}，不要输出任何其他内容。
闲聊、问候、感谢等不需要知识库；涉及平台规则、操作流程、政策条款的问题需要知识库。`

// GateDecision is the outcome of the retrieval gate.
type GateDecision struct {
	UseKnowledgeBase bool   `json:"useKnowledgeBase"`
	Reason           string `json:"reason"`
}

// Gate is an LLM-backed binary classifier deciding whether a query needs a
// knowledge-base lookup at all.
type Gate struct {
	llmClient ChatCompleter
	model     string
}

// NewGate creates a retrieval gate using the given model for classification.
func NewGate(llmClient ChatCompleter, model string) *Gate {
	return &Gate{llmClient: llmClient, model: model}
}

// Decide classifies the query. Any model or parse failure fails open: the
// safer default is to attempt retrieval, never to silently skip it. An empty
// query short-circuits to true without calling the model.
func (g *Gate) Decide(ctx context.Context, query string, history []llm.ChatMessage) GateDecision {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return GateDecision{UseKnowledgeBase: true, Reason: "empty query"}
	}

	messages := []llm.ChatMessage{
		{Role: "system", Content: gateSystemPrompt},
		{Role: "user", Content: g.buildGatePrompt(query, history)},
	}

	raw, _, err := g.llmClient.Complete(ctx, messages, llm.ChatOptions{
		Model:       g.model,
		Temperature: 0,
	})
	if err != nil {
		logger.WarnContext(ctx, "retrieval gate request failed, defaulting to retrieval", "error", err)
		return GateDecision{UseKnowledgeBase: true, Reason: "gate unavailable"}
	}

	decision, err := parseGateResponse(raw)
	if err != nil {
		logger.WarnContext(ctx, "retrieval gate response unparsable, defaulting to retrieval",
			"error", err,
			"response", truncateRunes(raw, 200),
		)
		return GateDecision{UseKnowledgeBase: true, Reason: "gate response unparsable"}
	}

	logger.DebugContext(ctx, "retrieval gate decided",
		"useKnowledgeBase", decision.UseKnowledgeBase,
		"reason", decision.Reason,
	)
	return decision
}

func (g *Gate) buildGatePrompt(query string, history []llm.ChatMessage) string {
	var sb strings.Builder

	if len(history) > gateHistoryTurns {
		history = history[len(history)-gateHistoryTurns:]
	}
	if len(history) > 0 {
		sb.WriteString("对话历史：\n")
		for _, turn := range history {
			label := "用户"
			if turn.Role == "assistant" {
				label = "助手"
			}
			sb.WriteString(label)
			sb.WriteString(": ")
			sb.WriteString(truncateRunes(turn.Content, gateHistoryCharCap))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("最新问题：")
	sb.WriteString(query)
	return sb.String()
}

// gateBooleanKeys lists accepted spellings of the decision field, checked in
// order. Older prompt revisions produced several of these.
var gateBooleanKeys = []string{
	"useKnowledgeBase",
	"use_knowledge_base",
	"useKnowledgebase",
	"useKB",
	"use_kb",
	"needKnowledgeBase",
	"knowledgeBase",
}

func parseGateResponse(raw string) (GateDecision, error) {
	cleaned := stripCodeFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return GateDecision{}, fmt.Errorf("no JSON object in gate response")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &fields); err != nil {
		return GateDecision{}, fmt.Errorf("failed to parse gate response: %w", err)
	}

	for _, key := range gateBooleanKeys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		use, ok := asBool(value)
		if !ok {
			return GateDecision{}, fmt.Errorf("gate field %q is not a boolean", key)
		}
		reason, _ := fields["reason"].(string)
		return GateDecision{UseKnowledgeBase: use, Reason: reason}, nil
	}
	return GateDecision{}, fmt.Errorf("gate response has no decision field")
}

func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
