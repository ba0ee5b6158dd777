package scripting

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed scripts/*.lua
var builtin embed.FS

// Engine wraps a single gopher-lua VM for game formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads the built-in scripts, then every .lua file in scriptsDir.
// Scripts in scriptsDir may redefine built-in functions.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadBuiltin(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadBuiltin() error {
	entries, err := builtin.ReadDir("scripts")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		src, err := builtin.ReadFile("scripts/" + entry.Name())
		if err != nil {
			return err
		}
		if err := e.vm.DoString(string(src)); err != nil {
			return fmt.Errorf("load %s: %w", entry.Name(), err)
		}
	}
	return nil
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

// XPForLevel calls Lua xp_for_level(level). It satisfies unit.LevelCurve.
func (e *Engine) XPForLevel(level uint32) uint64 {
	n, ok := e.call("xp_for_level", lua.LNumber(level))
	if !ok || n < 0 {
		return 0
	}
	return uint64(n)
}

// KillContext is packed into the table passed to kill_xp and drop_chance.
type KillContext struct {
	KillerLevel uint32
	VictimLevel uint32
	BaseXP      uint64
	BaseChance  float64
	ItemFind    float64
}

func (e *Engine) pack(ctx KillContext) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("killer_level", lua.LNumber(ctx.KillerLevel))
	t.RawSetString("victim_level", lua.LNumber(ctx.VictimLevel))
	t.RawSetString("base_xp", lua.LNumber(ctx.BaseXP))
	t.RawSetString("base_chance", lua.LNumber(ctx.BaseChance))
	t.RawSetString("item_find", lua.LNumber(ctx.ItemFind))
	return t
}

// KillXP calls Lua kill_xp(ctx). On script failure the base xp is granted.
func (e *Engine) KillXP(ctx KillContext) uint64 {
	n, ok := e.call("kill_xp", e.pack(ctx))
	if !ok {
		return ctx.BaseXP
	}
	return uint64(max(n, 0))
}

// DropChance calls Lua drop_chance(ctx). On script failure the base chance is used.
func (e *Engine) DropChance(ctx KillContext) float64 {
	n, ok := e.call("drop_chance", e.pack(ctx))
	if !ok {
		return ctx.BaseChance
	}
	return float64(n)
}

func (e *Engine) call(name string, args ...lua.LValue) (lua.LNumber, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0, false
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number",
			zap.String("func", name), zap.String("type", result.Type().String()))
		return 0, false
	}
	return n, true
}

func (e *Engine) Close() {
	e.vm.Close()
}
