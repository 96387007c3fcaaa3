package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "plot", cmd.Use)
	assert.Contains(t, cmd.Long, "plotfile.yaml")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"entity", "create"},
		{"entity", "remove"},
		{"entity", "list"},
		{"event", "save"},
		{"event", "list"},
		{"experience", "save"},
		{"experience", "list"},
		{"history"},
	}

	for _, path := range commands {
		t.Run(filepath.Join(path...), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	fileFlag := cmd.PersistentFlags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "f", fileFlag.Shorthand)
	assert.Equal(t, "", fileFlag.DefValue)

	journalFlag := cmd.PersistentFlags().Lookup("journal")
	require.NotNil(t, journalFlag)
	assert.Equal(t, "", journalFlag.DefValue)
}

func TestEventSaveFlags(t *testing.T) {
	cmd := NewRootCommand()
	saveCmd, _, err := cmd.Find([]string{"event", "save"})
	require.NoError(t, err)

	nameFlag := saveCmd.Flags().Lookup("name")
	require.NotNil(t, nameFlag)
	assert.Equal(t, "n", nameFlag.Shorthand)

	intervalFlag := saveCmd.Flags().Lookup("interval")
	require.NotNil(t, intervalFlag)
	assert.Equal(t, "i", intervalFlag.Shorthand)
}

func TestExperienceSaveRequiredFlags(t *testing.T) {
	h := newHarness(t)

	res := h.run("experience", "save", "--entity", "Ana")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, `required flag(s) "event" not set`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
}

func TestDefaultPlotFile(t *testing.T) {
	t.Setenv(EnvPlotFile, "/tmp/story.yaml")
	file, err := defaultPlotFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/story.yaml", file)

	home := t.TempDir()
	t.Setenv(EnvPlotFile, "")
	t.Setenv("HOME", home)
	file, err = defaultPlotFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".plotline", "plotfile.yaml"), file)
}
