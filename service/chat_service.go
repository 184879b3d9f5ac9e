package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"compliance-backend/judge"
	"compliance-backend/models"
	"compliance-backend/store"
)

// chatTopK limits how many retrieved clauses back a chat answer
const chatTopK = 5

const noContextAnswer = "I couldn't find any relevant information in your documents. Please upload some documents first."

const chatPromptFormat = `You are a helpful compliance assistant.

Answer the user's question using the numbered context references below.
Cite references as [DOC n] or [KB n] when an answer is derived from them.
If the context does not cover the question, answer from general
compliance and engineering knowledge and say so.

End with a SOURCES section listing each cited reference once, formatted:
- [Source Type] File: filename | Clause: ID | Page: #
Omit the SOURCES section entirely when nothing was cited.

Conversation History:
%s

Context:
%s

Question: %s`

// ChatService answers free-form questions over the session's documents
// and the knowledge base
type ChatService struct {
	store     *store.SessionStore
	retriever *Retriever
	oracle    judge.Oracle
}

// NewChatService creates a chat service
func NewChatService(sessionStore *store.SessionStore, retriever *Retriever, oracle judge.Oracle) *ChatService {
	return &ChatService{store: sessionStore, retriever: retriever, oracle: oracle}
}

// Answer retrieves context for the query and asks the oracle for a
// grounded answer. History is an optional prior conversation transcript.
func (s *ChatService) Answer(ctx context.Context, sessionID, query string, useKB bool, history []*models.ChatMessage) (string, error) {
	matches := s.retriever.Retrieve(ctx, sessionID, query, RetrieveOptions{TopK: chatTopK, UseKB: useKB})
	if len(matches) == 0 {
		return noContextAnswer, nil
	}

	contextParts := make([]string, 0, len(matches))
	for i, m := range matches {
		meta := m.Record.Metadata

		// Prefer the store's filename; the metadata copy covers records
		// whose document is gone (e.g. permanent KB entries).
		docName := meta.DocName
		if docID, err := strconv.Atoi(meta.DocID); err == nil {
			if doc := s.store.GetDocument(sessionID, docID); doc != nil {
				docName = doc.Filename
			}
		}

		contextParts = append(contextParts, fmt.Sprintf(
			"REF [%d]:\nFile: %s | Clause: %s | Page: %d\nContent: %s",
			i+1, docName, meta.ClauseID, meta.PageNumber, m.Record.Text))
	}

	var historyLines []string
	for _, m := range history {
		historyLines = append(historyLines, m.Role+": "+m.Content)
	}

	prompt := fmt.Sprintf(chatPromptFormat,
		strings.Join(historyLines, "\n"),
		strings.Join(contextParts, "\n\n---\n\n"),
		query)

	answer, err := s.oracle.Judge(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}
	return answer, nil
}
