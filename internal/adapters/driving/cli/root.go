// Package cli is the cobra command-line driving adapter. Commands talk
// to the core exclusively through the driving ports; service wiring is
// injected by main via SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driving"
	"github.com/Qq88537794/Xingyun/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected services. Commands check for nil and fail with a readable
// message instead of panicking.
var (
	assistantService driving.AssistantService
	knowledgeService driving.KnowledgeService
	settingsService  driving.SettingsService
	promptStore      driven.PromptStore
)

// Services aggregates the dependencies the CLI commands use.
type Services struct {
	Assistant driving.AssistantService
	Knowledge driving.KnowledgeService
	Settings  driving.SettingsService
	Prompts   driven.PromptStore
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	assistantService = s.Assistant
	knowledgeService = s.Knowledge
	settingsService = s.Settings
	promptStore = s.Prompts
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "xingyun",
	Short: "AI writing assistant with a project knowledge base",
	Long: `Xingyun is an AI writing assistant core.

It chats about and edits documents through a tool-calling agent, and
grounds its answers in per-project knowledge bases built from your own
resources (chunked, embedded, and searched by similarity).`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
