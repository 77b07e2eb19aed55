package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

func resetKBFlags() {
	kbSearchLimit = 5
	kbSearchJSON = false
}

func TestKBCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range kbCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["index"])
	assert.True(t, names["search"])
	assert.True(t, names["remove"])
}

func TestKBIndex(t *testing.T) {
	mock := &mockKnowledgeService{chunks: 4}
	cleanup := setupTestServices(nil, mock, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some reference text"), 0o600))

	output, err := executeCommand(t, "kb", "index", "3", "7", path)

	require.NoError(t, err)
	assert.Equal(t, 3, mock.indexedProject)
	assert.Equal(t, 7, mock.indexedResource)
	assert.Contains(t, output, "Indexed notes.txt into project 3: 4 chunks")
}

func TestKBIndex_InvalidProjectID(t *testing.T) {
	cleanup := setupTestServices(nil, &mockKnowledgeService{}, nil)
	defer cleanup()

	_, err := executeCommand(t, "kb", "index", "zero", "7", "file.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project id")
}

func TestKBIndex_MissingFile(t *testing.T) {
	cleanup := setupTestServices(nil, &mockKnowledgeService{}, nil)
	defer cleanup()

	_, err := executeCommand(t, "kb", "index", "1", "2", filepath.Join(t.TempDir(), "nope.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading file")
}

func TestKBSearch(t *testing.T) {
	t.Cleanup(resetKBFlags)
	mock := &mockKnowledgeService{
		results: []domain.RetrievalResult{
			{Text: "matched chunk", Score: 0.91, ResourceID: 2, Metadata: map[string]any{"filename": "guide.md"}},
		},
	}
	cleanup := setupTestServices(nil, mock, nil)
	defer cleanup()

	output, err := executeCommand(t, "kb", "search", "5", "how does indexing work", "--limit", "3")

	require.NoError(t, err)
	assert.Equal(t, "how does indexing work", mock.searchQuery)
	assert.Equal(t, 3, mock.searchTopK)
	assert.Contains(t, output, "matched chunk")
	assert.Contains(t, output, "guide.md")
	assert.Contains(t, output, "0.91")
}

func TestKBSearch_NoResults(t *testing.T) {
	t.Cleanup(resetKBFlags)
	cleanup := setupTestServices(nil, &mockKnowledgeService{}, nil)
	defer cleanup()

	output, err := executeCommand(t, "kb", "search", "5", "anything")

	require.NoError(t, err)
	assert.Contains(t, output, "No results found.")
}

func TestKBSearch_JSON(t *testing.T) {
	t.Cleanup(resetKBFlags)
	mock := &mockKnowledgeService{
		results: []domain.RetrievalResult{{Text: "chunk", Score: 0.5, ResourceID: 1}},
	}
	cleanup := setupTestServices(nil, mock, nil)
	defer cleanup()

	output, err := executeCommand(t, "kb", "search", "1", "query", "--json")

	require.NoError(t, err)
	assert.Contains(t, output, `"text": "chunk"`)
	assert.Contains(t, output, `"resource_id": 1`)
}

func TestKBRemove(t *testing.T) {
	mock := &mockKnowledgeService{}
	cleanup := setupTestServices(nil, mock, nil)
	defer cleanup()

	output, err := executeCommand(t, "kb", "remove", "3", "9")

	require.NoError(t, err)
	assert.Equal(t, 3, mock.removedProject)
	assert.Equal(t, 9, mock.removedResource)
	assert.Contains(t, output, "Removed resource 9 from project 3")
}

func TestKBRemove_ServiceError(t *testing.T) {
	mock := &mockKnowledgeService{err: errors.New("store offline")}
	cleanup := setupTestServices(nil, mock, nil)
	defer cleanup()

	_, err := executeCommand(t, "kb", "remove", "1", "2")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove failed")
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  int
		wantErr bool
	}{
		{name: "valid", input: "12", wantID: 12},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "negative rejected", input: "-3", wantErr: true},
		{name: "non-numeric rejected", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseID(tt.input, "project id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
