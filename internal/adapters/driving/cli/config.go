package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage agent configuration",
	Long: `View and set configuration values stored in the ferry config file.

Keys use dot notation, for example:
  ferry config set ingester.base_url https://ingest.example.com
  ferry config set scm.token
  ferry config set extensions md,pdf,docx

Secrets (ingester.api_key, scm.token, webdav.password) can also come
from the FERRY_INGESTER_API_KEY, FERRY_SCM_TOKEN and
FERRY_WEBDAV_PASSWORD environment variables.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and saves the config file. When the value is
omitted it is prompted for; secret keys are read without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// secretKeys are masked on display and prompted without echo.
var secretKeys = map[string]bool{
	"ingester.api_key": true,
	"scm.token":        true,
	"webdav.password":  true,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	s := agentSettings

	cmd.Printf("Configuration file: %s\n\n", configStore.Path())

	cmd.Println("[Ingester]")
	cmd.Printf("  Base URL: %s\n", valueOrUnset(s.Ingester.BaseURL))
	cmd.Printf("  API key:  %s\n", maskSecret(s.Ingester.APIKey))
	cmd.Printf("  Timeout:  %s\n", s.Ingester.Timeout)
	cmd.Printf("  Status:   %s\n", configuredLabel(s.Ingester.IsConfigured()))
	cmd.Println()

	cmd.Println("[SCM]")
	cmd.Printf("  Endpoint:    %s\n", valueOrUnset(s.SCM.Endpoint))
	cmd.Printf("  Token:       %s\n", maskSecret(s.SCM.Token))
	cmd.Printf("  Clone dir:   %s\n", valueOrUnset(s.SCM.CloneDir))
	cmd.Printf("  Git timeout: %s\n", s.SCM.GitTimeout)
	cmd.Println()

	cmd.Println("[WebDAV]")
	cmd.Printf("  Endpoint: %s\n", valueOrUnset(s.WebDAV.Endpoint))
	cmd.Printf("  Username: %s\n", valueOrUnset(s.WebDAV.Username))
	cmd.Printf("  Password: %s\n", maskSecret(s.WebDAV.Password))
	cmd.Printf("  Status:   %s\n", configuredLabel(s.WebDAV.IsConfigured()))
	cmd.Println()

	cmd.Println("[General]")
	cmd.Printf("  Extensions:     %s\n", strings.Join(s.Extensions, ", "))
	cmd.Printf("  Max concurrent: %d\n", s.MaxConcurrent)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	key := args[0]

	value, ok := configStore.Get(key)
	if !ok {
		return fmt.Errorf("key %s is not set", key)
	}
	if secretKeys[key] {
		cmd.Println(maskSecret(fmt.Sprintf("%v", value)))
		return nil
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	key := args[0]

	var raw string
	if len(args) == 2 {
		raw = args[1]
	} else {
		raw = promptValue(cmd, key)
	}
	if raw == "" {
		return errors.New("empty value")
	}

	if err := configStore.Set(key, parseConfigValue(key, raw)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	cmd.Printf("Set %s.\n", key)
	return nil
}

// parseConfigValue coerces the CLI string into the type the settings
// loader reads for the key. Secrets stay strings no matter what they
// look like; extensions split on commas.
func parseConfigValue(key, raw string) any {
	if secretKeys[key] {
		return raw
	}
	if key == "extensions" {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

// promptValue reads a value interactively. Secret keys are read
// without echo when stdin is a terminal.
func promptValue(cmd *cobra.Command, key string) string {
	cmd.Printf("Enter %s: ", key)
	if secretKeys[key] {
		value := readPassword()
		cmd.Println()
		return value
	}
	return readLine(bufio.NewReader(cmd.InOrStdin()))
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readPassword reads without echo when stdin is a terminal, falling
// back to a regular line read.
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(bufio.NewReader(os.Stdin))
}

func valueOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func configuredLabel(configured bool) string {
	if configured {
		return "configured"
	}
	return "not configured"
}

// maskSecret hides the middle of a secret, keeping just enough to
// recognise it.
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
