// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm generates AI responses by streaming from a local Ollama server.
package llm

import (
	"fmt"
	"strings"

	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/util"
)

// =============================================================================
// SYSTEM PROMPTS
// =============================================================================

// SystemPromptSend guides plain-message responses.
const SystemPromptSend = "You are an AI chat assistant. You will be given the past few messages of the conversation. Use the conversation history to respond helpfully and concisely. Format responses with markdown, including headers, lists, and other formatting."

// SystemPromptReply guides responses to a reply chain.
const SystemPromptReply = "You are an AI chat assistant. You will be given a chain of replies that the user has made. Use the conversation history to respond helpfully and concisely. Format responses with markdown, including headers, lists, and other formatting."

// maxQuoteRunes caps quoted passages in the reply note; longer text keeps
// its head and tail around an ellipsis.
const maxQuoteRunes = 100

// =============================================================================
// PROMPT CONSTRUCTION
// =============================================================================

// BuildSendMessages converts chat history into the prompt for a plain send.
func BuildSendMessages(history []*model.Message) []Message {
	return buildMessages(history, SystemPromptSend, "")
}

// BuildReplyMessages converts a resolved reply-chain context into the prompt
// for a reply. The parent message closes the history, and a system note tells
// the model which text the user replied to and what they said.
//
// Parameters: chain is the resolved context ending at the parent message,
// parent is the message being replied to, and replyContent is the user's
// reply text.
func BuildReplyMessages(chain []*model.Message, parent *model.Message, replyContent string) []Message {
	referenced := parent.Content
	if len(chain) > 0 {
		referenced = contextContent(chain[len(chain)-1])
	}

	note := fmt.Sprintf("The user replied specifically to this text: '%s'. Their reply content was: '%s'.",
		util.ElideMiddle(referenced, maxQuoteRunes),
		util.ElideMiddle(replyContent, maxQuoteRunes))

	// The parent's full content closes the history so the model sees what is
	// being replied to even when the chain entry was cropped.
	history := append(append([]*model.Message{}, chain...), parent)
	return buildMessages(history, SystemPromptReply, note)
}

// buildMessages assembles the role-tagged prompt: an optional system message
// followed by the history in chronological order.
func buildMessages(history []*model.Message, systemPrompt, extraNote string) []Message {
	messages := make([]Message, 0, len(history)+1)

	var parts []string
	if systemPrompt != "" {
		parts = append(parts, systemPrompt)
	}
	if extraNote != "" {
		parts = append(parts, extraNote)
	}
	if len(parts) > 0 {
		messages = append(messages, Message{Role: "system", Content: strings.Join(parts, "\n\n")})
	}

	for _, msg := range history {
		role := "assistant"
		if msg.Sender == model.SenderUser {
			role = "user"
		}
		messages = append(messages, Message{Role: role, Content: contextContent(msg)})
	}
	return messages
}

// contextContent is the message content as it appears in prompt context.
// A reply carrying a quote range contributes only the quoted span.
func contextContent(msg *model.Message) string {
	if msg.ReplyMetadata != nil && msg.ReplyMetadata.Range != nil {
		r := msg.ReplyMetadata.Range
		if cropped := util.SafeSubstring(msg.Content, r.Start, r.End); cropped != "" {
			return cropped
		}
	}
	return msg.Content
}
