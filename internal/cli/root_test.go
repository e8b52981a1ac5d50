package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prefs/internal/testutil"
)

// testCLI runs commands against a private PREFS_HOME. State persists across
// runs through the file backend unless a run overrides --backend.
type testCLI struct {
	dir string
	env map[string]string
	ids *testutil.SequentialIDs
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()
	return &testCLI{
		dir: dir,
		env: map[string]string{
			"PREFS_HOME":          dir,
			"PREFS_CONFIG":        filepath.Join(dir, "config.toml"),
			"PREFS_STORE_BACKEND": "file",
			"PREFS_LOG_LEVEL":     "warn",
		},
		ids: testutil.NewSequentialIDs("acct"),
	}
}

func (c *testCLI) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return c.runWithInput(t, nil, args...)
}

func (c *testCLI) runWithInput(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{
		Env:        c.env,
		DotEnvPath: filepath.Join(c.dir, ".env"),
		IDs:        c.ids,
	}
	cmd := newRootCommand(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (c *testCLI) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, "prefs %s", strings.Join(args, " "))
	return out
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "prefs", cmd.Use)
	assert.Contains(t, cmd.Long, "key-value store")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"get"}, {"set"}, {"rm"}, {"list"}, {"export"}, {"import"}, {"seed"},
		{"settings", "show"}, {"settings", "lang"}, {"settings", "reset"}, {"settings", "remove"},
		{"account", "new"}, {"account", "show"}, {"account", "list"}, {"account", "delete"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, "_"), func(t *testing.T) {
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

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	for _, name := range []string{"backend", "store", "log-level"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestSetCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	setCmd, _, err := cmd.Find([]string{"set"})
	require.NoError(t, err)

	typeFlag := setCmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "t", typeFlag.Shorthand)
	assert.Equal(t, "string", typeFlag.DefValue)
}

func TestSeedCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	seedCmd, _, err := cmd.Find([]string{"seed"})
	require.NoError(t, err)

	for _, name := range []string{"overwrite", "dry-run"} {
		flag := seedCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestSettingsLangAcceptedValues(t *testing.T) {
	cmd := NewRootCommand()
	langCmd, _, err := cmd.Find([]string{"settings", "lang"})
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "fi", "sv"}, langCmd.ValidArgs)
	assert.Contains(t, langCmd.Long, "Accepted values: en, fi, sv,")
}

func TestInvalidFormat(t *testing.T) {
	c := newTestCLI(t)
	_, err := c.run(t, "--format", "xml", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
