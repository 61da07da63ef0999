package plugin

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"

	"github.com/ayusman/toolsuite/internal/ui"
)

// LuaExt marks a Lua entry file.
const LuaExt = ".lua"

const widgetTypeName = "toolsuite.widget"

// luaModule is one imported Lua entry file with its own interpreter state.
//
// gopher-lua states are not goroutine-safe. The state is only entered from Main,
// widget callbacks and Close, all of which the lifecycle host runs under its lock.
type luaModule struct {
	L      *lua.LState
	main   *lua.LFunction
	log    hclog.Logger
	closed bool
}

// loadLua executes path in a fresh state and resolves its global main function.
// Plugin code runs with full trust: every standard library is open.
func loadLua(desc Descriptor, path string) (Loaded, error) {
	m := &luaModule{
		L:   lua.NewState(),
		log: hclog.NewNullLogger(),
	}
	m.install()

	if err := m.L.DoFile(path); err != nil {
		m.L.Close()
		return nil, newLoadError(KindImportFailure, desc.Name, err)
	}

	fn, ok := m.L.GetGlobal("main").(*lua.LFunction)
	if !ok {
		m.L.Close()
		return nil, newLoadError(KindNoEntryPoint, desc.Name, nil)
	}
	m.main = fn

	return m, nil
}

// Main calls main(host, log) and returns the widget it returned, if any.
func (m *luaModule) Main(host *ui.Widget, log hclog.Logger) (*ui.Widget, error) {
	if m.closed {
		return nil, fmt.Errorf("lua module is closed")
	}
	if log != nil {
		m.log = log
	}

	L := m.L
	if err := L.CallByParam(lua.P{Fn: m.main, NRet: 1, Protect: true}, m.wrap(host), m.logTable()); err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}
	if ud, ok := ret.(*lua.LUserData); ok {
		if w, ok := ud.Value.(*ui.Widget); ok {
			return w, nil
		}
	}
	return nil, fmt.Errorf("main returned %s, want a widget or nil", ret.Type())
}

// Close shuts the interpreter down. Callbacks after Close are ignored.
func (m *luaModule) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.L.Close()
	return nil
}

// invoke runs a Lua callback, logging instead of propagating its errors.
func (m *luaModule) invoke(fn *lua.LFunction, args ...lua.LValue) {
	if m.closed {
		return
	}
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		m.log.Error("lua callback failed", "error", err)
	}
}

// install registers the widget type and the global ui constructors.
func (m *luaModule) install() {
	L := m.L

	mt := L.NewTypeMetatable(widgetTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"id":         m.widgetID,
		"add":        m.widgetAdd,
		"container":  m.childCtor(func(L *lua.LState, i int) *ui.Widget { return ui.NewContainer(L.OptString(i, "")) }),
		"label":      m.childCtor(func(L *lua.LState, i int) *ui.Widget { return ui.NewLabel(L.OptString(i, "")) }),
		"text":       m.childCtor(func(L *lua.LState, i int) *ui.Widget { return ui.NewText(L.OptString(i, "")) }),
		"input":      m.childCtor(func(L *lua.LState, i int) *ui.Widget { return ui.NewInput(L.CheckString(i), L.OptString(i+1, "")) }),
		"button":     m.childCtor(m.newButton),
		"get_text":   m.widgetGetText,
		"set_text":   m.widgetSetText,
		"value":      m.widgetValue,
		"set_value":  m.widgetSetValue,
		"on_click":   m.widgetOnClick,
		"on_change":  m.widgetOnChange,
		"on_release": m.widgetOnRelease,
		"clear":      m.widgetClear,
		"count":      m.widgetCount,
	}))

	L.SetGlobal("ui", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"container": m.ctor(func(L *lua.LState, i int) *ui.Widget { return ui.NewContainer(L.OptString(i, "")) }),
		"label":     m.ctor(func(L *lua.LState, i int) *ui.Widget { return ui.NewLabel(L.OptString(i, "")) }),
		"text":      m.ctor(func(L *lua.LState, i int) *ui.Widget { return ui.NewText(L.OptString(i, "")) }),
		"input":     m.ctor(func(L *lua.LState, i int) *ui.Widget { return ui.NewInput(L.CheckString(i), L.OptString(i+1, "")) }),
		"button":    m.ctor(m.newButton),
	}))
}

func (m *luaModule) wrap(w *ui.Widget) *lua.LUserData {
	ud := m.L.NewUserData()
	ud.Value = w
	m.L.SetMetatable(ud, m.L.GetTypeMetatable(widgetTypeName))
	return ud
}

func (m *luaModule) check(L *lua.LState, n int) *ui.Widget {
	ud := L.CheckUserData(n)
	w, ok := ud.Value.(*ui.Widget)
	if !ok {
		L.ArgError(n, "widget expected")
		return nil
	}
	return w
}

func (m *luaModule) newButton(L *lua.LState, i int) *ui.Widget {
	w := ui.NewButton(L.OptString(i, ""), nil)
	if fn, ok := L.Get(i + 1).(*lua.LFunction); ok {
		w.OnClick(func() { m.invoke(fn) })
	}
	return w
}

// ctor builds an unattached widget from arguments starting at 1.
func (m *luaModule) ctor(build func(L *lua.LState, first int) *ui.Widget) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(m.wrap(build(L, 1)))
		return 1
	}
}

// childCtor builds a widget from arguments starting at 2 and adds it to the receiver.
func (m *luaModule) childCtor(build func(L *lua.LState, first int) *ui.Widget) lua.LGFunction {
	return func(L *lua.LState) int {
		parent := m.check(L, 1)
		child := build(L, 2)
		if err := parent.Add(child); err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(m.wrap(child))
		return 1
	}
}

func (m *luaModule) widgetID(L *lua.LState) int {
	L.Push(lua.LString(m.check(L, 1).ID()))
	return 1
}

func (m *luaModule) widgetAdd(L *lua.LState) int {
	parent := m.check(L, 1)
	child := m.check(L, 2)
	if err := parent.Add(child); err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(L.Get(2))
	return 1
}

func (m *luaModule) widgetGetText(L *lua.LState) int {
	L.Push(lua.LString(m.check(L, 1).Text()))
	return 1
}

func (m *luaModule) widgetSetText(L *lua.LState) int {
	m.check(L, 1).SetText(L.CheckString(2))
	return 0
}

func (m *luaModule) widgetValue(L *lua.LState) int {
	L.Push(lua.LString(m.check(L, 1).Value()))
	return 1
}

func (m *luaModule) widgetSetValue(L *lua.LState) int {
	if err := m.check(L, 1).SetValue(L.CheckString(2)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (m *luaModule) widgetOnClick(L *lua.LState) int {
	w := m.check(L, 1)
	fn := L.CheckFunction(2)
	w.OnClick(func() { m.invoke(fn) })
	return 0
}

func (m *luaModule) widgetOnChange(L *lua.LState) int {
	w := m.check(L, 1)
	fn := L.CheckFunction(2)
	w.OnChange(func(v string) { m.invoke(fn, lua.LString(v)) })
	return 0
}

func (m *luaModule) widgetOnRelease(L *lua.LState) int {
	w := m.check(L, 1)
	fn := L.CheckFunction(2)
	w.OnRelease(func() { m.invoke(fn) })
	return 0
}

func (m *luaModule) widgetClear(L *lua.LState) int {
	m.check(L, 1).Clear()
	return 0
}

func (m *luaModule) widgetCount(L *lua.LState) int {
	L.Push(lua.LNumber(m.check(L, 1).Count()))
	return 1
}

// logTable exposes the plugin logger as log.debug/info/warn/error(msg).
func (m *luaModule) logTable() *lua.LTable {
	emit := func(level hclog.Level) lua.LGFunction {
		return func(L *lua.LState) int {
			m.log.Log(level, L.CheckString(1))
			return 0
		}
	}
	return m.L.SetFuncs(m.L.NewTable(), map[string]lua.LGFunction{
		"debug": emit(hclog.Debug),
		"info":  emit(hclog.Info),
		"warn":  emit(hclog.Warn),
		"error": emit(hclog.Error),
	})
}
