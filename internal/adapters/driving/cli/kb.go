package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	kbSearchLimit int
	kbSearchJSON  bool
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage project knowledge bases",
	Long: `Index, search, and remove resources in per-project knowledge bases.

Each project owns one vector collection; resources are chunked and
embedded on indexing and retrieved by cosine similarity.`,
}

var kbIndexCmd = &cobra.Command{
	Use:   "index [project-id] [resource-id] [file]",
	Short: "Index a file into a project knowledge base",
	Long: `Chunk and embed the file's text, then store it in the project's
knowledge base. Re-indexing an existing resource replaces its chunks.`,
	Args: cobra.ExactArgs(3),
	RunE: runKBIndex,
}

var kbSearchCmd = &cobra.Command{
	Use:   "search [project-id] [query]",
	Short: "Search a project knowledge base",
	Args:  cobra.ExactArgs(2),
	RunE:  runKBSearch,
}

var kbRemoveCmd = &cobra.Command{
	Use:   "remove [project-id] [resource-id]",
	Short: "Remove a resource from a project knowledge base",
	Args:  cobra.ExactArgs(2),
	RunE:  runKBRemove,
}

func init() {
	kbSearchCmd.Flags().IntVarP(&kbSearchLimit, "limit", "n", 5, "maximum number of results")
	kbSearchCmd.Flags().BoolVar(&kbSearchJSON, "json", false, "output results as JSON")
	kbCmd.AddCommand(kbIndexCmd)
	kbCmd.AddCommand(kbSearchCmd)
	kbCmd.AddCommand(kbRemoveCmd)
	rootCmd.AddCommand(kbCmd)
}

func runKBIndex(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	projectID, err := parseID(args[0], "project id")
	if err != nil {
		return err
	}
	resourceID, err := parseID(args[1], "resource id")
	if err != nil {
		return err
	}

	content, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	chunks, err := knowledgeService.IndexResource(cmd.Context(),
		projectID, resourceID, string(content), filepath.Base(args[2]))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	cmd.Printf("Indexed %s into project %d: %d chunks\n", filepath.Base(args[2]), projectID, chunks)
	return nil
}

func runKBSearch(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	projectID, err := parseID(args[0], "project id")
	if err != nil {
		return err
	}

	results, err := knowledgeService.Search(cmd.Context(), projectID, args[1], kbSearchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if kbSearchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		filename, _ := r.Metadata["filename"].(string)
		cmd.Printf("  [%d] resource %d", i+1, r.ResourceID)
		if filename != "" {
			cmd.Printf(" (%s)", filename)
		}
		cmd.Printf(" score %.2f\n", r.Score)
		cmd.Printf("      %s\n", r.Text)
		cmd.Println()
	}
	return nil
}

func runKBRemove(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	projectID, err := parseID(args[0], "project id")
	if err != nil {
		return err
	}
	resourceID, err := parseID(args[1], "resource id")
	if err != nil {
		return err
	}

	if err := knowledgeService.RemoveResource(cmd.Context(), projectID, resourceID); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	cmd.Printf("Removed resource %d from project %d\n", resourceID, projectID)
	return nil
}

func parseID(s, what string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", what, s)
	}
	return id, nil
}
