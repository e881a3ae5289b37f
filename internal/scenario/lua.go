package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"
)

type (
	// LuaEnv compiles and runs the Lua snippets of scenario files. Compiled
	// scripts are cached by source, and interpreter states are pooled
	LuaEnv struct {
		*compiler[*Script]
		statePool chan *lua.State
	}

	// Script is a compiled Lua snippet that receives the current sequence
	// value as the local variable value
	Script struct {
		bytecode []byte
	}
)

const (
	luaCacheSize        = 1024
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaValuePrelude     = "local value = select(1, ...)"
	luaReturnPrefix     = "return "
	luaGlobalTableName  = "_G"
	luaSeparator        = "\n"
)

var (
	ErrLuaBadCompiledType = errors.New("expected *Script")
	ErrLuaCompile         = errors.New("lua compile error")
	ErrLuaLoad            = errors.New("lua load error")
	ErrLuaExecution       = errors.New("lua execution error")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// NewLuaEnv creates a Lua environment with an empty script cache
func NewLuaEnv() *LuaEnv {
	e := &LuaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
	e.compiler = newCompiler[*Script](luaCacheSize, e.compileSnippet)
	return e
}

// Call runs the script with value bound and returns its result
func (e *LuaEnv) Call(c Compiled, value any) (any, error) {
	var res any
	err := e.withResult(c, value, func(L *lua.State) {
		res = luaToGo(L, -1)
	})
	return res, err
}

// Test runs the script with value bound and reports whether its result is
// truthy
func (e *LuaEnv) Test(c Compiled, value any) (bool, error) {
	var res bool
	err := e.withResult(c, value, func(L *lua.State) {
		res = L.ToBoolean(-1)
	})
	return res, err
}

// compileSnippet reads src as an expression first and falls back to a
// statement block, which must return its own result
func (e *LuaEnv) compileSnippet(src string) (*Script, error) {
	body := strings.TrimSpace(src)
	if s, err := e.compile(wrapSource(luaReturnPrefix + body)); err == nil {
		return s, nil
	}
	return e.compile(wrapSource(body))
}

func (e *LuaEnv) compile(src string) (*Script, error) {
	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaCompile, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaCompile, err)
	}
	return &Script{bytecode: buf.Bytes()}, nil
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) withResult(
	c Compiled, value any, onResult func(*lua.State),
) error {
	s, ok := c.(*Script)
	if !ok {
		return fmt.Errorf("%w, got %T", ErrLuaBadCompiledType, c)
	}

	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	if err := L.Load(bytes.NewReader(s.bytecode), "chunk", "b"); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	pushValue(L, value)
	if err := L.ProtectedCall(1, 1, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	onResult(L)
	L.Pop(1)
	return nil
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func wrapSource(body string) string {
	return luaValuePrelude + luaSeparator + body
}

// pushValue pushes a normalized scenario value. Numbers arrive as float64
// or int, objects as map[string]any, and arrays as []any
func pushValue(L *lua.State, value any) {
	switch v := value.(type) {
	case nil:
		L.PushNil()
	case bool:
		L.PushBoolean(v)
	case string:
		L.PushString(v)
	case float64:
		L.PushNumber(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case []any:
		L.CreateTable(len(v), 0)
		for i, elem := range v {
			pushValue(L, elem)
			L.RawSetInt(-2, i+1)
		}
	case map[string]any:
		L.CreateTable(0, len(v))
		for k, elem := range v {
			pushValue(L, elem)
			L.SetField(-2, k)
		}
	default:
		L.PushString(fmt.Sprint(v))
	}
}

func luaToGo(L *lua.State, index int) any {
	switch L.TypeOf(index) {
	case lua.TypeBoolean:
		return L.ToBoolean(index)
	case lua.TypeNumber:
		num, _ := L.ToNumber(index)
		if num == float64(int(num)) {
			return int(num)
		}
		return num
	case lua.TypeString:
		s, _ := L.ToString(index)
		return s
	case lua.TypeTable:
		return luaTableToAny(L, L.AbsIndex(index))
	default:
		return nil
	}
}

// luaTableToAny converts the table at the absolute stack index idx into a
// slice when its keys are exactly 1..n, and into a map otherwise
func luaTableToAny(L *lua.State, idx int) any {
	length := L.RawLength(idx)
	count := 0
	L.PushNil()
	for L.Next(idx) {
		count++
		L.Pop(1)
	}

	if length > 0 && length == count {
		arr := make([]any, length)
		for i := 1; i <= length; i++ {
			L.RawGetInt(idx, i)
			arr[i-1] = luaToGo(L, -1)
			L.Pop(1)
		}
		return arr
	}

	res := map[string]any{}
	L.PushNil()
	for L.Next(idx) {
		// copy the key so ToString cannot confuse Next
		L.PushValue(-2)
		key, ok := L.ToString(-1)
		if !ok {
			key = fmt.Sprintf("%v", luaToGo(L, -1))
		}
		L.Pop(1)
		res[key] = luaToGo(L, -1)
		L.Pop(1)
	}
	return res
}
