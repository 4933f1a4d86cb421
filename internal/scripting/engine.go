package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for game formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	combatPath := filepath.Join(scriptsDir, "combat")
	if err := e.loadDir(combatPath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load combat scripts: %w", err)
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
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

// LoadString runs a chunk of Lua source, replacing any globals it defines.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// ShellDamageContext holds pre-packed data for one shell impact.
type ShellDamageContext struct {
	BaseDamage  float64
	Alignment   float64 // 0 = glancing along the hull, 1 = square to the side
	TargetClass string
	TargetHP    float64
	TargetMaxHP float64
}

// DamageModel turns an impact into hit points removed.
type DamageModel interface {
	CalcShellDamage(ctx ShellDamageContext) float64
}

// FallbackDamage is the built-in formula used when no script is loaded.
type FallbackDamage struct{}

func (FallbackDamage) CalcShellDamage(ctx ShellDamageContext) float64 {
	a := math.Max(0, math.Min(1, ctx.Alignment))
	return ctx.BaseDamage * (0.5 + 0.5*a)
}

// CalcShellDamage calls the Lua calc_shell_damage function.
func (e *Engine) CalcShellDamage(ctx ShellDamageContext) float64 {
	fn := e.vm.GetGlobal("calc_shell_damage")
	if fn == lua.LNil {
		return FallbackDamage{}.CalcShellDamage(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("alignment", lua.LNumber(ctx.Alignment))

	tgt := e.vm.NewTable()
	tgt.RawSetString("class", lua.LString(ctx.TargetClass))
	tgt.RawSetString("hp", lua.LNumber(ctx.TargetHP))
	tgt.RawSetString("max_hp", lua.LNumber(ctx.TargetMaxHP))
	t.RawSetString("target", tgt)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_shell_damage error", zap.Error(err))
		return FallbackDamage{}.CalcShellDamage(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_shell_damage returned non-number", zap.String("type", result.Type().String()))
		return FallbackDamage{}.CalcShellDamage(ctx)
	}
	d := float64(n)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}
