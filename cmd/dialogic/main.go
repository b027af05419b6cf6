package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dialogic/internal/config"
	"dialogic/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dialogic",
	Short: "dialogic - LLM-powered language tutor",
	Long: `dialogic is a terminal language tutor built around short role-play
scenarios. The coach replies in your target language, corrects your
mistakes in your base language, and after each scenario produces a
performance report whose weak concepts seed the next one.

Supported backends: OpenAI, Anthropic, Gemini, and a local Ollama server.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (stderr output would tear
		// the TUI) unless verbose was asked for explicitly.
		if cmd.Use == "dialogic" && cmd.CalledAs() == "dialogic" && !verbose {
			return nil
		}
		return logging.Initialize(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return runInteractiveChat()
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dialogic version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.DefaultConfig().Version)
	},
}

// loadConfig loads the YAML config, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func init() {
	// Credentials may live in a .env next to the binary.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.dialogic/config.yaml)")

	authCmd.AddCommand(authConnectCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)

	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
