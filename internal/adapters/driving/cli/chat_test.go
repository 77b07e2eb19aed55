package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// executeCommand runs the root command with the given args and returns
// the combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetChatFlags() {
	chatProject = 0
	chatAgent = false
	chatDocument = ""
	chatSession = ""
	chatJSON = false
	chatNoRetrieval = false
}

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat [message]", chatCmd.Use)
}

func TestChatCmd_Flags(t *testing.T) {
	for _, name := range []string{"project", "agent", "document", "session", "json", "no-retrieval"} {
		assert.NotNil(t, chatCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestChat_SendsMessage(t *testing.T) {
	t.Cleanup(resetChatFlags)
	mock := &mockAssistantService{
		response: &domain.AssistantResponse{
			Message:    "Here is my answer.",
			SessionID:  "session-42",
			TokensUsed: 17,
		},
	}
	cleanup := setupTestServices(mock, nil, nil)
	defer cleanup()

	output, err := executeCommand(t, "chat", "hello there")

	require.NoError(t, err)
	assert.Equal(t, "hello there", mock.request.Message)
	assert.Empty(t, mock.request.Mode)
	assert.Contains(t, output, "Here is my answer.")
	assert.Contains(t, output, "Session: session-42")
	assert.Contains(t, output, "Tokens: 17")
}

func TestChat_AgentFlagAndDocument(t *testing.T) {
	t.Cleanup(resetChatFlags)
	mock := &mockAssistantService{}
	cleanup := setupTestServices(mock, nil, nil)
	defer cleanup()

	docPath := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(docPath, []byte("# Draft\n\nBody."), 0o600))

	_, err := executeCommand(t, "chat", "improve this", "--agent", "--document", docPath)

	require.NoError(t, err)
	assert.Equal(t, domain.ModeAgent, mock.request.Mode)
	assert.Equal(t, docPath, mock.request.DocumentID)
	assert.Equal(t, "# Draft\n\nBody.", mock.request.DocumentContent)
}

func TestChat_ProjectAndRetrievalFlags(t *testing.T) {
	t.Cleanup(resetChatFlags)
	mock := &mockAssistantService{}
	cleanup := setupTestServices(mock, nil, nil)
	defer cleanup()

	_, err := executeCommand(t, "chat", "question", "--project", "9", "--no-retrieval", "--session", "abc")

	require.NoError(t, err)
	assert.Equal(t, 9, mock.request.ProjectID)
	assert.True(t, mock.request.DisableRetrieval)
	assert.Equal(t, "abc", mock.request.SessionID)
}

func TestChat_MissingDocumentFile(t *testing.T) {
	t.Cleanup(resetChatFlags)
	cleanup := setupTestServices(&mockAssistantService{}, nil, nil)
	defer cleanup()

	_, err := executeCommand(t, "chat", "hi", "--document", filepath.Join(t.TempDir(), "missing.md"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading document")
}

func TestChat_TextOutputListsOperationsAndSources(t *testing.T) {
	t.Cleanup(resetChatFlags)
	mock := &mockAssistantService{
		response: &domain.AssistantResponse{
			Message:   "Proposed an edit.",
			SessionID: "s1",
			Operations: []domain.Operation{
				{Type: domain.OpReplace, TargetFile: "draft.md"},
			},
			Sources: []domain.RetrievalResult{
				{Text: "background chunk", Score: 0.87, ResourceID: 3},
			},
		},
	}
	cleanup := setupTestServices(mock, nil, nil)
	defer cleanup()

	output, err := executeCommand(t, "chat", "rewrite")

	require.NoError(t, err)
	assert.Contains(t, output, "Proposed operations:")
	assert.Contains(t, output, "replace")
	assert.Contains(t, output, "draft.md")
	assert.Contains(t, output, "Sources:")
	assert.Contains(t, output, "background chunk")
	assert.Contains(t, output, "0.87")
}

func TestChat_JSONOutput(t *testing.T) {
	t.Cleanup(resetChatFlags)
	mock := &mockAssistantService{
		response: &domain.AssistantResponse{Message: "hi", SessionID: "s2"},
	}
	cleanup := setupTestServices(mock, nil, nil)
	defer cleanup()

	output, err := executeCommand(t, "chat", "hello", "--json")

	require.NoError(t, err)
	assert.Contains(t, output, `"message": "hi"`)
	assert.Contains(t, output, `"session_id": "s2"`)
}

func TestChat_ServiceError(t *testing.T) {
	t.Cleanup(resetChatFlags)
	mock := &mockAssistantService{err: errors.New("llm unavailable")}
	cleanup := setupTestServices(mock, nil, nil)
	defer cleanup()

	_, err := executeCommand(t, "chat", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat failed")
}

func TestChat_NoService(t *testing.T) {
	t.Cleanup(resetChatFlags)
	orig := assistantService
	assistantService = nil
	defer func() { assistantService = orig }()

	_, err := executeCommand(t, "chat", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "assistant service not configured")
}
