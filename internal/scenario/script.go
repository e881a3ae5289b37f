package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kode4food/lru"
)

type (
	// Registry manages the script environments available to scenario files
	Registry struct {
		envs map[string]Environment
	}

	// Environment defines the interface for script environments. Every
	// script receives the current sequence value as value
	Environment interface {
		// Compile compiles a script and returns the compiled form
		Compile(src string) (Compiled, error)

		// Call runs a compiled script and returns its result
		Call(c Compiled, value any) (any, error)

		// Test runs a compiled script and reports whether its result is
		// truthy
		Test(c Compiled, value any) (bool, error)
	}

	// Compiled represents a compiled script for any supported language
	Compiled any

	// Program is a compiled script bound to the environment that runs it
	Program struct {
		env      Environment
		compiled Compiled
	}

	compileFunc[T any] func(src string) (T, error)

	compiler[T any] struct {
		cache *lru.Cache[T]
		build compileFunc[T]
	}
)

const (
	LangLua = "lua"
	LangAle = "ale"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported script language")
	ErrBadCompiledType     = errors.New("unexpected compiled script type")
)

// NewRegistry creates a registry with Lua and Ale environments
func NewRegistry() *Registry {
	return &Registry{
		envs: map[string]Environment{
			LangLua: NewLuaEnv(),
			LangAle: NewAleEnv(),
		},
	}
}

func (r *Registry) Register(language string, env Environment) {
	r.envs[language] = env
}

// Get returns the script environment for the given language
func (r *Registry) Get(language string) (Environment, error) {
	env, ok := r.envs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return env, nil
}

// Compile compiles code in its language's environment
func (r *Registry) Compile(code *Code) (*Program, error) {
	lang, src := code.Source()
	env, err := r.Get(lang)
	if err != nil {
		return nil, err
	}
	c, err := env.Compile(src)
	if err != nil {
		return nil, err
	}
	return &Program{env: env, compiled: c}, nil
}

// Call runs the program with value bound
func (p *Program) Call(value any) (any, error) {
	return p.env.Call(p.compiled, value)
}

// Test runs the program with value bound and reports whether the result
// is truthy
func (p *Program) Test(value any) (bool, error) {
	return p.env.Test(p.compiled, value)
}

func newCompiler[T any](size int, build compileFunc[T]) *compiler[T] {
	return &compiler[T]{
		cache: lru.NewCache[T](size),
		build: build,
	}
}

func (c *compiler[T]) Compile(src string) (Compiled, error) {
	res, err := c.cache.Get(hashScript(src), func() (T, error) {
		return c.build(src)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func hashScript(src string) string {
	h := sha256.Sum256([]byte(src))
	return hex.EncodeToString(h[:])
}
