package service

import (
	"strings"
	"testing"

	"merchant-assistant/internal/rag"
	"merchant-assistant/internal/storage"
)

func TestComposePrompt_WithReferences(t *testing.T) {
	history := []storage.Message{
		{Role: "user", Content: "店铺怎么开通？"},
		{Role: "assistant", Content: "按以下步骤操作……"},
	}
	refs := []rag.Reference{
		{DocumentTitle: "评价管理规则", Content: "差评申诉需在7天内提交。"},
		{DocumentTitle: "活动报名指南", Content: "报名入口在商家后台。"},
	}

	messages := composePrompt("系统人设", history, "差评如何申诉？", refs, true)

	if messages[0].Role != "system" || messages[0].Content != "系统人设" {
		t.Errorf("first message = %+v, want the system prompt", messages[0])
	}
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4 (system + 2 history + final)", len(messages))
	}
	if messages[1].Content != "店铺怎么开通？" || messages[2].Content != "按以下步骤操作……" {
		t.Error("history turns are not mapped 1:1")
	}

	final := messages[len(messages)-1]
	if final.Role != "user" {
		t.Errorf("final role = %s, want user", final.Role)
	}
	if !strings.Contains(final.Content, "【资料1】") || !strings.Contains(final.Content, "【资料2】") {
		t.Error("final prompt is missing numbered reference blocks")
	}
	if !strings.Contains(final.Content, "评价管理规则") || !strings.Contains(final.Content, "差评申诉需在7天内提交。") {
		t.Error("final prompt is missing reference title or content")
	}
	if !strings.Contains(final.Content, "差评如何申诉？") {
		t.Error("final prompt is missing the query")
	}
}

func TestComposePrompt_RetrievalSkipped(t *testing.T) {
	messages := composePrompt("系统人设", nil, "你好", nil, false)

	final := messages[len(messages)-1]
	if !strings.Contains(final.Content, "常识") {
		t.Error("skipped-retrieval prompt should instruct a common-sense answer")
	}
	if strings.Contains(final.Content, "【资料") {
		t.Error("skipped-retrieval prompt should not contain reference blocks")
	}
}

func TestComposePrompt_NoReferencesFound(t *testing.T) {
	messages := composePrompt("系统人设", nil, "差评如何申诉？", nil, true)

	final := messages[len(messages)-1]
	if !strings.Contains(final.Content, "没有找到") {
		t.Error("empty-retrieval prompt should state that no material was found")
	}
	if strings.Contains(final.Content, "【资料") {
		t.Error("empty-retrieval prompt should not contain reference blocks")
	}
}

func TestComposePrompt_DropsSystemHistoryTurns(t *testing.T) {
	history := []storage.Message{
		{Role: "system", Content: "旧系统消息"},
		{Role: "user", Content: "问题"},
	}
	messages := composePrompt("系统人设", history, "新问题", nil, false)
	for _, msg := range messages[1 : len(messages)-1] {
		if msg.Role == "system" {
			t.Error("history system turns must not be forwarded")
		}
	}
	if len(messages) != 3 {
		t.Errorf("got %d messages, want 3", len(messages))
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "short query unchanged", query: "差评如何申诉？", want: "差评如何申诉？"},
		{name: "whitespace trimmed", query: "  活动报名  ", want: "活动报名"},
		{
			name:  "long query truncated to 30 runes",
			query: strings.Repeat("规", 45),
			want:  strings.Repeat("规", 30) + "...",
		},
		{
			name:  "exactly 30 runes keeps no ellipsis",
			query: strings.Repeat("规", 30),
			want:  strings.Repeat("规", 30),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveTitle(tt.query); got != tt.want {
				t.Errorf("deriveTitle(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
