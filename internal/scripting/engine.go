package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Command is a chat command implemented in Lua.
type Command struct {
	Name  string
	Help  string
	luaFn *lua.LFunction
}

// Engine wraps a single gopher-lua VM hosting scripted chat commands.
// Requests run concurrently, so every VM entry takes the engine lock.
type Engine struct {
	mu       sync.Mutex
	vm       *lua.LState
	commands map[string]*Command
	log      *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. Scripts call register_command(name, help, fn) at load time.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:       vm,
		commands: make(map[string]*Command),
		log:      log,
	}
	vm.SetGlobal("register_command", vm.NewFunction(e.registerCommand))

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Close() {
	e.mu.Lock()
	e.vm.Close()
	e.mu.Unlock()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// registerCommand is exposed to Lua as register_command(name, help, fn).
func (e *Engine) registerCommand(L *lua.LState) int {
	name := L.CheckString(1)
	help := L.CheckString(2)
	fn := L.CheckFunction(3)
	e.commands[name] = &Command{Name: name, Help: help, luaFn: fn}
	e.log.Debug("registered lua command", zap.String("command", name))
	return 0
}

// Commands returns the names of all scripted commands.
func (e *Engine) Commands() []*Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Command, 0, len(e.commands))
	for _, c := range e.commands {
		out = append(out, c)
	}
	return out
}

// Invoke runs a scripted command. The Lua function receives the caller's
// name and an array table of arguments, and returns the reply string.
func (e *Engine) Invoke(name, caller string, args []string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd, ok := e.commands[name]
	if !ok {
		return "", fmt.Errorf("no lua command %q", name)
	}

	argTable := e.vm.NewTable()
	for _, a := range args {
		argTable.Append(lua.LString(a))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      cmd.luaFn,
		NRet:    1,
		Protect: true,
	}, lua.LString(caller), argTable); err != nil {
		return "", fmt.Errorf("lua command %s: %w", name, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if s, ok := ret.(lua.LString); ok {
		return string(s), nil
	}
	return "", nil
}
