package service

import (
	"context"
	"testing"

	"compliance-backend/models"
	"compliance-backend/retrieval"
	"compliance-backend/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureOracle struct {
	response string
	prompt   string
}

func (o *captureOracle) Judge(ctx context.Context, prompt string) (string, error) {
	o.prompt = prompt
	return o.response, nil
}

func TestChatAnswerBuildsReferenceBlocks(t *testing.T) {
	s := store.NewSessionStore()
	idx := retrieval.NewFlatIndex(echoEmbedder{})
	ctx := context.Background()

	doc := s.AddDocument("sess", "policy.txt", models.FileTypeCustomer, "v1")
	require.NoError(t, idx.Add(ctx, retrieval.SessionNamespace("sess"), []retrieval.Record{
		{
			Text: "All customer data shall be encrypted at rest.",
			Metadata: retrieval.Metadata{
				ClauseID:   "A.10.1",
				DocName:    "stale-name.txt",
				DocID:      "1",
				PageNumber: 2,
			},
		},
	}))

	oracle := &captureOracle{response: "Your data is encrypted at rest. SOURCES:\n- [DOC] File: policy.txt | Clause: A.10.1 | Page: 2"}
	svc := NewChatService(s, NewRetriever(idx), oracle)

	history := []*models.ChatMessage{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi, upload a document to begin"},
	}
	answer, err := svc.Answer(ctx, "sess", "is my data encrypted?", false, history)
	require.NoError(t, err)
	assert.Equal(t, oracle.response, answer)

	assert.Contains(t, oracle.prompt, "REF [1]:")
	// The store's current filename wins over the indexed metadata copy
	assert.Contains(t, oracle.prompt, "File: "+doc.Filename)
	assert.Contains(t, oracle.prompt, "Clause: A.10.1 | Page: 2")
	assert.Contains(t, oracle.prompt, "All customer data shall be encrypted at rest.")
	assert.Contains(t, oracle.prompt, "user: hello")
	assert.Contains(t, oracle.prompt, "assistant: hi, upload a document to begin")
	assert.Contains(t, oracle.prompt, "Question: is my data encrypted?")
}

func TestChatAnswerWithoutContext(t *testing.T) {
	s := store.NewSessionStore()
	idx := retrieval.NewFlatIndex(echoEmbedder{})
	oracle := &captureOracle{response: "should never be called"}
	svc := NewChatService(s, NewRetriever(idx), oracle)

	answer, err := svc.Answer(context.Background(), "sess", "anything there?", true, nil)
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer)
	assert.Empty(t, oracle.prompt)
}
