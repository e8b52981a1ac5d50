package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prefs/internal/config"
	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/store"
)

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestSetAndGet(t *testing.T) {
	c := newTestCLI(t)

	out := c.mustRun(t, "set", "some_flag", "true", "--type", "bool")
	assert.Equal(t, "true\n", out)

	out = c.mustRun(t, "get", "some_flag")
	assert.Equal(t, "true\n", out)

	out = c.mustRun(t, "set", "languageKey", "sv")
	assert.Equal(t, "\"sv\"\n", out)

	out = c.mustRun(t, "--format", "json", "get", "languageKey")
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{
		"key":   "languageKey",
		"kind":  "string",
		"value": map[string]any{"type": "string", "value": "sv"},
	}, resp.Data)

	st, err := store.OpenFile(filepath.Join(c.dir, "prefs.yaml"))
	require.NoError(t, err)
	v, ok, err := st.Get("some_flag")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plist.Bool(true), v)
}

func TestSetTypes(t *testing.T) {
	c := newTestCLI(t)

	tests := []struct {
		typ, text, want string
	}{
		{"int", "42", "42\n"},
		{"float", "0.5", "0.5\n"},
		{"date", "2024-01-02T03:04:05Z", "2024-01-02T03:04:05Z\n"},
		{"data", "aGk=", "<6869>\n"},
		{"null", "", "null\n"},
		{"json", `{"type":"dict","value":{"a":{"type":"int","value":1}}}`, "{\"a\": 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			c.mustRun(t, "set", "k_"+tt.typ, tt.text, "--type", tt.typ)
			out := c.mustRun(t, "get", "k_"+tt.typ)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSetInvalidValue(t *testing.T) {
	c := newTestCLI(t)

	tests := [][]string{
		{"set", "n", "forty", "--type", "int"},
		{"set", "n", "NaN", "--type", "float"},
		{"set", "n", "yes please", "--type", "bool"},
		{"set", "n", "tomorrow", "--type", "date"},
		{"set", "n", "!!", "--type", "data"},
		{"set", "n", "{}", "--type", "json"},
		{"set", "n", "x", "--type", "uuid"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[2:], " "), func(t *testing.T) {
			_, err := c.run(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}

	out, err := c.run(t, "--format", "json", "set", "n", "forty", "--type", "int")
	require.Error(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidValue, resp.Error.Code)
}

func TestGetMissingKey(t *testing.T) {
	c := newTestCLI(t)

	_, err := c.run(t, "get", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := c.run(t, "--format", "json", "get", "nope")
	require.Error(t, err)
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestRemoveAndList(t *testing.T) {
	c := newTestCLI(t)

	c.mustRun(t, "set", "b", "2", "-t", "int")
	c.mustRun(t, "set", "a", "x")
	c.mustRun(t, "set", "c", "true", "-t", "bool")

	out := c.mustRun(t, "list")
	assert.Equal(t, "a\tstring\t\"x\"\nb\tint\t2\nc\tbool\ttrue\n", out)

	out = c.mustRun(t, "rm", "b", "missing")
	assert.Equal(t, "removed b\nremoved missing\n", out)

	out = c.mustRun(t, "--format", "json", "list")
	resp := decodeResponse(t, out)
	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].(map[string]any)["key"])
	assert.Equal(t, "c", items[1].(map[string]any)["key"])
}

func TestKeysAreNormalized(t *testing.T) {
	c := newTestCLI(t)

	c.mustRun(t, "set", "cafe\u0301", "x")
	out := c.mustRun(t, "get", "caf\u00e9")
	assert.Equal(t, "\"x\"\n", out)
}

func TestEmptyKeyIsRejected(t *testing.T) {
	c := newTestCLI(t)
	c.mustRun(t, "set", "a", "x")

	for _, args := range [][]string{
		{"set", "", "x"},
		{"get", ""},
		{"rm", "a", ""},
	} {
		_, err := c.run(t, args...)
		require.Error(t, err, "prefs %v", args)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.ErrorIs(t, err, key.ErrNotBound)
	}

	out, err := c.run(t, "--format", "json", "get", "")
	require.Error(t, err)
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidValue, resp.Error.Code)

	out = c.mustRun(t, "list")
	assert.Equal(t, "a\tstring\t\"x\"\n", out, "nothing written and nothing removed")
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestCLI(t)
	src.mustRun(t, "set", "when", "2024-01-02T03:04:05Z", "-t", "date")
	src.mustRun(t, "set", "blob", "aGk=", "-t", "data")
	src.mustRun(t, "set", "ratio", "2", "-t", "float")
	src.mustRun(t, "set", "tags", `{"type":"array","value":[{"type":"string","value":"a"}]}`, "-t", "json")

	exported := src.mustRun(t, "export")
	assert.Contains(t, exported, "!!binary")
	assert.Contains(t, exported, "2.0")

	dst := newTestCLI(t)
	dst.mustRun(t, "set", "stale", "x")
	out, err := dst.runWithInput(t, strings.NewReader(exported), "import", "--replace", "-")
	require.NoError(t, err)
	assert.Equal(t, "imported 4 entries, removed 1\n", out)

	assert.Equal(t, src.mustRun(t, "list"), dst.mustRun(t, "list"))
}

func TestExportToFileAndImportMerge(t *testing.T) {
	src := newTestCLI(t)
	src.mustRun(t, "set", "a", "1", "-t", "int")
	path := filepath.Join(t.TempDir(), "backup.yaml")
	out := src.mustRun(t, "export", "-o", path)
	assert.Empty(t, out)

	dst := newTestCLI(t)
	dst.mustRun(t, "set", "keep", "x")
	out = dst.mustRun(t, "--format", "json", "import", path)
	resp := decodeResponse(t, out)
	assert.Equal(t, map[string]any{"written": []any{"a"}, "removed": []any{}}, resp.Data)

	assert.Equal(t, "a\tint\t1\nkeep\tstring\t\"x\"\n", dst.mustRun(t, "list"))
}

func TestImportInvalidDocument(t *testing.T) {
	c := newTestCLI(t)
	_, err := c.runWithInput(t, strings.NewReader("- not\n- a mapping\n"), "import", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = c.run(t, "import", filepath.Join(c.dir, "missing.yaml"))
	require.Error(t, err)
}

const manifestSrc = `
defaults: {
	languageKey: "fi"
	some_flag:   true
	retries:     3
}
`

func TestSeed(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(c.dir, "defaults.cue")
	require.NoError(t, os.WriteFile(path, []byte(manifestSrc), 0o600))

	c.mustRun(t, "set", "retries", "7", "-t", "int")

	out := c.mustRun(t, "seed", "--dry-run", path)
	assert.Contains(t, out, "would seed 3 keys")
	_, err := c.run(t, "get", "languageKey")
	require.Error(t, err)

	out = c.mustRun(t, "seed", path)
	assert.Contains(t, out, "seeded 2 keys")
	assert.Contains(t, out, "  = retries")
	assert.Equal(t, "7\n", c.mustRun(t, "get", "retries"))
	assert.Equal(t, "\"fi\"\n", c.mustRun(t, "get", "languageKey"))

	c.mustRun(t, "seed", "--overwrite", path)
	assert.Equal(t, "3\n", c.mustRun(t, "get", "retries"))
}

func TestSeedFromConfiguredManifest(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(c.dir, "defaults.cue")
	require.NoError(t, os.WriteFile(path, []byte(manifestSrc), 0o600))

	_, err := c.run(t, "seed")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	c.env["PREFS_MANIFEST"] = path
	out := c.mustRun(t, "--format", "json", "seed")
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, path, data["source"])
	assert.Len(t, data["written"], 3)
}

func TestSeedInvalidManifest(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(c.dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`defaults: {x: int}`), 0o600))

	out, err := c.run(t, "--format", "json", "seed", path)
	require.Error(t, err)
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeManifest, resp.Error.Code)
}

func TestSettingsCommands(t *testing.T) {
	c := newTestCLI(t)

	out := c.mustRun(t, "settings", "show")
	assert.Contains(t, out, "flag_with_initial_value      true")
	assert.Contains(t, out, "optional_flag_default_true   true")
	assert.Contains(t, out, "optional_flag_default_nil    (unset)")
	assert.Contains(t, out, "languageWithInitialValueKey  Finnish")
	assert.Contains(t, out, "languageKey                  English")

	// opening the settings wrote the initial values
	assert.Equal(t, "\"fi\"\n", c.mustRun(t, "get", "languageWithInitialValueKey"))

	assert.Equal(t, "English (en)\n", c.mustRun(t, "settings", "lang"))
	assert.Equal(t, "Swedish (sv)\n", c.mustRun(t, "settings", "lang", "swedish"))
	assert.Equal(t, "\"sv\"\n", c.mustRun(t, "get", "languageKey"))

	_, err := c.run(t, "settings", "lang", "klingon")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	// a stored value that no longer maps to a language reads as the default
	c.mustRun(t, "set", "languageKey", "de")
	out = c.mustRun(t, "--format", "json", "settings", "lang")
	resp := decodeResponse(t, out)
	assert.Equal(t, map[string]any{"code": "en", "name": "English"}, resp.Data)

	c.mustRun(t, "set", "languageWithInitialValueKey", "sv")
	assert.Equal(t, "reset 7 keys\n", c.mustRun(t, "settings", "reset"))
	assert.Equal(t, "\"fi\"\n", c.mustRun(t, "get", "languageWithInitialValueKey"))
	_, err = c.run(t, "get", "languageKey")
	require.Error(t, err)

	assert.Equal(t, "removed 7 keys\n", c.mustRun(t, "settings", "remove"))
	assert.Empty(t, c.mustRun(t, "list"))
}

func TestSettingsShowJSON(t *testing.T) {
	c := newTestCLI(t)
	c.mustRun(t, "set", "fixed_optional_flag", "false", "-t", "bool")

	out := c.mustRun(t, "--format", "json", "settings", "show")
	resp := decodeResponse(t, out)
	assert.Equal(t, map[string]any{
		"some_flag":                   false,
		"flag_with_initial_value":     true,
		"optional_flag_default_true":  true,
		"optional_flag_default_nil":   nil,
		"fixed_optional_flag":         false,
		"language_with_initial_value": "fi",
		"language":                    "en",
	}, resp.Data)
}

func TestAccountCommands(t *testing.T) {
	c := newTestCLI(t)

	out := c.mustRun(t, "account", "new", "--name", "Aino", "--lang", "fi")
	assert.Contains(t, out, "id:            acct-1\n")
	assert.Contains(t, out, "name:          Aino\n")
	assert.Contains(t, out, "language:      Finnish\n")
	assert.Contains(t, out, "notifications: true\n")

	// without --lang the account follows the user's language
	c.mustRun(t, "settings", "lang", "sv")
	out = c.mustRun(t, "--format", "json", "account", "new")
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "acct-2", data["id"])
	assert.Equal(t, "sv", data["language"])
	assert.NotContains(t, data, "display_name")

	assert.Equal(t, "acct-1\nacct-2\n", c.mustRun(t, "account", "list"))
	assert.Equal(t, "\"Aino\"\n", c.mustRun(t, "get", "account.acct-1.display_name"))

	out = c.mustRun(t, "account", "show", "acct-1")
	assert.Contains(t, out, "name:          Aino\n")

	_, err := c.run(t, "account", "show", "acct-9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Equal(t, "removed 5 keys\n", c.mustRun(t, "account", "delete", "acct-1"))
	assert.Equal(t, "acct-2\n", c.mustRun(t, "account", "list"))
	_, err = c.run(t, "get", "account.acct-1.display_name")
	require.Error(t, err)

	_, err = c.run(t, "account", "new", "--lang", "xx")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBackendOverrides(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		c := newTestCLI(t)
		dbPath := filepath.Join(c.dir, "nested", "prefs.db")
		c.mustRun(t, "--backend", "sqlite", "--store", dbPath, "set", "n", "5", "-t", "int")
		assert.Equal(t, "5\n", c.mustRun(t, "--backend", "sqlite", "--store", dbPath, "get", "n"))
		assert.FileExists(t, dbPath)

		// the file backend is a separate store
		_, err := c.run(t, "get", "n")
		require.Error(t, err)
	})

	t.Run("memory", func(t *testing.T) {
		c := newTestCLI(t)
		c.mustRun(t, "--backend", "memory", "set", "n", "5", "-t", "int")
		_, err := c.run(t, "--backend", "memory", "get", "n")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})

	t.Run("config file", func(t *testing.T) {
		c := newTestCLI(t)
		delete(c.env, "PREFS_STORE_BACKEND")
		dbPath := filepath.Join(c.dir, "from-config.db")
		cfgPath := filepath.Join(c.dir, "custom.toml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("[store]\nbackend = \"sqlite\"\npath = \""+filepath.ToSlash(dbPath)+"\"\n"), 0o600))

		c.mustRun(t, "--config", cfgPath, "set", "x", "y")
		assert.FileExists(t, dbPath)
	})
}

func TestInvalidConfig(t *testing.T) {
	c := newTestCLI(t)
	c.env["PREFS_STORE_BACKEND"] = "etcd"

	_, err := c.run(t, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
