package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dialogic/internal/config"
	"dialogic/internal/provider"
	"dialogic/internal/store"
)

// validateTimeout bounds each credential check so a dead endpoint cannot
// hang the command.
const validateTimeout = 15 * time.Second

var (
	authKeyFlag  string
	authHostFlag string
)

// authCmd manages LLM provider credentials
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider credentials",
	Long: `Configure credentials for the supported LLM backends.

Available subcommands:
  connect - Validate and store a credential, making the provider active
  status  - Check every stored credential against its backend
  logout  - Remove all stored credentials`,
}

// authConnectCmd validates and stores a provider credential
var authConnectCmd = &cobra.Command{
	Use:   "connect <provider>",
	Short: "Connect a provider (openai, anthropic, gemini, ollama)",
	Long: `Validate a credential against the provider's API and store it.

The key is read from --key, from the provider's environment variable, or
interactively from stdin. For ollama the "credential" is the server host
URL and may be omitted to use the default.

On success the provider becomes the active backend for chat.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthConnect,
}

// authStatusCmd checks all stored credentials concurrently
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential status for every provider",
	RunE:  runAuthStatus,
}

// authLogoutCmd wipes stored credentials
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove all stored credentials",
	Long: `Remove every stored API key along with the active provider and
active conversation pointers. The learner profile and saved conversations
are kept.`,
	RunE: runAuthLogout,
}

func init() {
	authConnectCmd.Flags().StringVar(&authKeyFlag, "key", "", "API key; prompts if omitted")
	authConnectCmd.Flags().StringVar(&authHostFlag, "host", "", "Server host URL (ollama only)")
}

func runAuthConnect(cmd *cobra.Command, args []string) error {
	p, err := provider.Parse(args[0])
	if err != nil {
		return err
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	secret := authKeyFlag
	if secret == "" && p == provider.ProviderOllama {
		secret = authHostFlag
	}
	if secret == "" {
		secret = config.EnvCredential(p)
	}
	if secret == "" && p == provider.ProviderOllama {
		secret = cfg.Ollama.Host
	}
	if secret == "" {
		secret, err = promptSecret(fmt.Sprintf("Enter API key for %s: ", p))
		if err != nil {
			return err
		}
	}
	if secret == "" {
		return fmt.Errorf("no credential provided for %s", p)
	}

	client, err := provider.New(p, secret)
	if err != nil {
		return err
	}
	provider.SetModel(client, cfg.ModelFor(p))

	fmt.Printf("Validating %s credential...\n", p)
	ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
	defer cancel()

	if !client.Validate(ctx) {
		return fmt.Errorf("validation failed for %s: the credential was rejected or the backend is unreachable", p)
	}

	if err := st.SetProviderKey(p, secret); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if err := st.SetActiveProvider(p); err != nil {
		return fmt.Errorf("failed to set active provider: %w", err)
	}

	fmt.Printf("✓ Connected. Active provider: %s\n", p)
	if model := cfg.ModelFor(p); model != "" {
		fmt.Printf("  Model: %s\n", model)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	active, err := st.GetActiveProvider()
	if err != nil {
		return err
	}

	type result struct {
		stored bool
		valid  bool
	}
	results := make(map[provider.Provider]result)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, p := range provider.All() {
		secret, err := credentialFor(cfg, st, p)
		if err != nil {
			return err
		}
		if secret == "" {
			mu.Lock()
			results[p] = result{}
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			client, err := provider.New(p, secret)
			if err != nil {
				mu.Lock()
				results[p] = result{stored: true}
				mu.Unlock()
				return nil
			}

			vctx, cancel := context.WithTimeout(ctx, validateTimeout)
			defer cancel()
			ok := client.Validate(vctx)

			mu.Lock()
			results[p] = result{stored: true, valid: ok}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	providers := provider.All()
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

	fmt.Println("Provider credential status")
	fmt.Println(strings.Repeat("-", 40))
	for _, p := range providers {
		r := results[p]
		var status string
		switch {
		case !r.stored:
			status = "not configured"
		case r.valid:
			status = "✓ valid"
		default:
			status = "✗ invalid or unreachable"
		}

		marker := " "
		if p == active {
			marker = "*"
		}
		fmt.Printf("%s %-10s %s\n", marker, p, status)
	}
	if active != "" {
		fmt.Println("\n* active provider")
	} else {
		fmt.Println("\nNo active provider. Run 'dialogic auth connect <provider>'.")
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ClearAllCredentials(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	fmt.Println("All credentials removed. Profile and conversation history kept.")
	return nil
}

// openStore loads config and opens the local store; callers close it.
func openStore() (*config.Config, *store.LocalStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.NewLocalStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}
	return cfg, st, nil
}

// promptSecret reads one line from stdin. Input echoes; piping the key in
// works the same way.
func promptSecret(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return strings.TrimSpace(line), nil
}
