package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

var (
	chatProject     int
	chatAgent       bool
	chatDocument    string
	chatSession     string
	chatJSON        bool
	chatNoRetrieval bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the assistant",
	Long: `Send one message to the assistant and print its reply.

Simple mode (default) makes a single model call and may propose one
document operation. Agent mode (--agent) runs the tool-calling loop
over a document; without --document it falls back to simple mode.

When --project is set and the project has an indexed knowledge base,
relevant chunks are retrieved and cited as sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVarP(&chatProject, "project", "p", 0, "project id for knowledge-base retrieval")
	chatCmd.Flags().BoolVar(&chatAgent, "agent", false, "use the tool-calling agent mode")
	chatCmd.Flags().StringVarP(&chatDocument, "document", "d", "", "path of the document to work on")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "conversation session id")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "output the full response as JSON")
	chatCmd.Flags().BoolVar(&chatNoRetrieval, "no-retrieval", false, "skip knowledge-base retrieval")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	req := domain.AssistantRequest{
		Message:          args[0],
		SessionID:        chatSession,
		ProjectID:        chatProject,
		DisableRetrieval: chatNoRetrieval,
	}
	if chatAgent {
		req.Mode = domain.ModeAgent
	}
	if chatDocument != "" {
		content, err := os.ReadFile(chatDocument)
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
		req.DocumentID = chatDocument
		req.DocumentContent = string(content)
	}

	resp, err := assistantService.Chat(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if chatJSON {
		return outputChatJSON(cmd, resp)
	}
	return outputChatText(cmd, resp)
}

func outputChatJSON(cmd *cobra.Command, resp *domain.AssistantResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChatText(cmd *cobra.Command, resp *domain.AssistantResponse) error {
	cmd.Println(resp.Message)

	if len(resp.Operations) > 0 {
		cmd.Println()
		cmd.Println("Proposed operations:")
		for i, op := range resp.Operations {
			cmd.Printf("  [%d] %s", i+1, op.Type)
			if op.TargetFile != "" {
				cmd.Printf(" -> %s", op.TargetFile)
			}
			cmd.Println()
		}
		cmd.Println("Review the operations before applying them.")
	}

	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range resp.Sources {
			cmd.Printf("  [%d] (%.2f) %s\n", i+1, src.Score, src.Text)
		}
	}

	cmd.Println()
	cmd.Printf("Session: %s  Tokens: %d\n", resp.SessionID, resp.TokensUsed)
	return nil
}
