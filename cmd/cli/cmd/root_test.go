package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
	viper.SetEnvPrefix("SRCBOOK")
	viper.AutomaticEnv()
}

// execute runs srcctl with args against url and returns the combined output.
func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	resetViper()
	viper.Set("url", url)
	viper.Set("api_key", "test-key")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_DefaultURL(t *testing.T) {
	resetViper()

	cmd := &cobra.Command{}
	cmd.PersistentFlags().String("url", "http://localhost:8080", "srcbook server URL")
	viper.BindPFlag("url", cmd.PersistentFlags().Lookup("url"))

	if url := viper.GetString("url"); url != "http://localhost:8080" {
		t.Errorf("expected default url http://localhost:8080, got: %s", url)
	}
}

func TestRootCommand_EnvVarBinding(t *testing.T) {
	resetViper()

	t.Setenv("SRCBOOK_API_KEY", "env-key-value")
	t.Setenv("SRCBOOK_URL", "http://custom-url:8080")

	if key := viper.GetString("api_key"); key != "env-key-value" {
		t.Errorf("expected api key from env var, got: %s", key)
	}
	if url := viper.GetString("url"); url != "http://custom-url:8080" {
		t.Errorf("expected url from env var, got: %s", url)
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := map[string]bool{
		"pending": false, "book [run_id]": false, "unbook [run_id]": false,
		"mods": false, "games": false, "whoami": false, "fetch": false, "cleanup": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Use]; ok {
			want[cmd.Use] = true
		}
	}
	for use, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered", use)
		}
	}
}

func TestExecute_ReturnsError(t *testing.T) {
	resetViper()
	rootCmd.SetArgs([]string{"unknown-command-xyz"})

	if err := Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestRootCommand_CustomConfigFile(t *testing.T) {
	resetViper()

	tmpFile, err := os.CreateTemp("", "srcctl-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.WriteString("url: http://custom-from-config:9999\napi_key: config-key\n")
	tmpFile.Close()

	cfgFile = tmpFile.Name()
	defer func() { cfgFile = "" }()
	initConfig()

	if url := viper.GetString("url"); url != "http://custom-from-config:9999" {
		t.Errorf("expected url from config file, got: %s", url)
	}
	if key := viper.GetString("api_key"); key != "config-key" {
		t.Errorf("expected api key from config file, got: %s", key)
	}
}
