package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"run", "serve", "export"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "newsdesk", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	for _, name := range []string{"run", "serve", "export", "NEWSDESK_"} {
		assert.Contains(t, rootCmd.Long, name)
	}
}

func TestRunCommand_Flags(t *testing.T) {
	require.NotNil(t, runCmd.Flags().Lookup("city"), "run command should have --city flag")
	require.NotNil(t, runCmd.Flags().Lookup("country"), "run command should have --country flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	tests := []struct {
		name string
		def  string
	}{
		{"out", "articles.xlsx"},
		{"format", "xlsx"},
		{"location", ""},
		{"min-credibility", "0"},
		{"limit", "0"},
	}
	for _, tt := range tests {
		flag := exportCmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "export command should have --%s flag", tt.name)
		assert.Equal(t, tt.def, flag.DefValue)
	}
}
