package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"validate", "sql", "extract", "seed", "snapshot"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "migrate", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestConvertCommands_Flags(t *testing.T) {
	for _, cmd := range []string{"sql", "extract"} {
		t.Run(cmd, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{cmd})
			require.NoError(t, err)
			for _, flag := range []string{"input", "output", "profile", "review", "workers"} {
				assert.NotNil(t, c.Flags().Lookup(flag), "missing --%s", flag)
			}
		})
	}

	assert.NotNil(t, sqlCmd.Flags().Lookup("table"))
	assert.NotNil(t, extractCmd.Flags().Lookup("format"))
	assert.NotNil(t, snapshotCmd.PersistentFlags().Lookup("db"))

	workers := sqlCmd.Flags().Lookup("workers")
	require.NotNil(t, workers)
	assert.Equal(t, "0", workers.DefValue)
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		path     string
		fallback string
		want     string
	}{
		{name: "explicit wins", explicit: "XLSX", path: "out.csv", fallback: "sql", want: formatXLSX},
		{name: "extension", path: "out.SQL", fallback: "csv", want: formatSQL},
		{name: "xlsx extension", path: "dir/out.xlsx", want: formatXLSX},
		{name: "config fallback", path: "out.txt", fallback: "sql", want: formatSQL},
		{name: "default", path: "out", want: formatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputFormat(tt.explicit, tt.path, tt.fallback))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
