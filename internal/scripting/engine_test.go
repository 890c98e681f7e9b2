package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRegisterAndInvoke(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "echo.lua", `
register_command("echo", "echoes its arguments", function(caller, args)
    return caller .. ": " .. table.concat(args, " ")
end)
`)

	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	require.Len(t, e.Commands(), 1)

	out, err := e.Invoke("echo", "player", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "player: a b", out)
}

func TestInvokeUnknownCommand(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Invoke("missing", "player", nil)
	assert.Error(t, err)
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `this is not lua`)

	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}

func TestMissingDirIsNotAnError(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	require.NoError(t, err)
	e.Close()
}
