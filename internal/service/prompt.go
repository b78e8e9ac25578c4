package service

import (
	"fmt"
	"strings"

	"merchant-assistant/internal/llm"
	"merchant-assistant/internal/rag"
	"merchant-assistant/internal/storage"
)

const (
	answerWithoutRetrievalPrompt = "请基于常识直接回答用户的问题。如果问题涉及平台具体规则而你不确定，请如实说明并建议用户查阅官方帮助中心。\n\n用户问题：%s"

	answerWithoutReferencesPrompt = "知识库中没有找到与该问题相关的可靠资料。请基于常识谨慎回答，明确告知用户答案未经平台资料核实，必要时建议联系平台客服。\n\n用户问题：%s"

	answerWithReferencesPrompt = "请根据以下资料回答用户的问题。引用资料时用【资料N】标注来源编号；资料中没有的信息不要编造。\n\n%s\n用户问题：%s"
)

// composePrompt assembles the chat-completion message list: the system
// persona, the prior turns mapped 1:1, and the final user turn replaced with
// a synthesized prompt that reflects the retrieval outcome.
func composePrompt(systemPrompt string, history []storage.Message, query string, refs []rag.Reference, retrievalAttempted bool) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: systemPrompt})

	for _, msg := range history {
		role := msg.Role
		if role != "user" && role != "assistant" {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: msg.Content})
	}

	messages = append(messages, llm.ChatMessage{
		Role:    "user",
		Content: finalUserPrompt(query, refs, retrievalAttempted),
	})
	return messages
}

func finalUserPrompt(query string, refs []rag.Reference, retrievalAttempted bool) string {
	if !retrievalAttempted {
		return fmt.Sprintf(answerWithoutRetrievalPrompt, query)
	}
	if len(refs) == 0 {
		return fmt.Sprintf(answerWithoutReferencesPrompt, query)
	}

	var sb strings.Builder
	for i, ref := range refs {
		sb.WriteString(fmt.Sprintf("【资料%d】《%s》\n%s\n\n", i+1, ref.DocumentTitle, ref.Content))
	}
	return fmt.Sprintf(answerWithReferencesPrompt, sb.String(), query)
}

// deriveTitle builds a conversation title from the first query: the first 30
// characters, ellipsis-suffixed when longer.
func deriveTitle(query string) string {
	const maxTitleRunes = 30
	trimmed := strings.TrimSpace(query)
	runes := []rune(trimmed)
	if len(runes) <= maxTitleRunes {
		return trimmed
	}
	return string(runes[:maxTitleRunes]) + "..."
}
