package scenario

import (
	"errors"
	"fmt"

	"github.com/kode4food/ale"
	"github.com/kode4food/ale/core/bootstrap"
	"github.com/kode4food/ale/data"
	"github.com/kode4food/ale/env"
	"github.com/kode4food/ale/eval"
)

// AleEnv compiles and runs the Ale snippets of scenario files. Each snippet
// becomes the body of a procedure taking the current value as value
type AleEnv struct {
	*compiler[data.Procedure]
	env *env.Environment
}

const (
	aleCacheSize      = 1024
	aleLambdaTemplate = "(lambda (value) %s)"
)

var (
	ErrAleBadCompiledType = errors.New("expected data.Procedure")
	ErrAleNotProcedure    = errors.New("not a procedure")
	ErrAleCompile         = errors.New("ale compile error")
	ErrAleCall            = errors.New("ale call error")
)

// NewAleEnv creates an Ale environment with the core library bootstrapped
func NewAleEnv() *AleEnv {
	e := env.NewEnvironment()
	bootstrap.Into(e)
	res := &AleEnv{env: e}
	res.compiler = newCompiler[data.Procedure](aleCacheSize, res.compile)
	return res
}

// Call runs the procedure with value bound and returns its result
func (e *AleEnv) Call(c Compiled, value any) (any, error) {
	res, err := e.call(c, value)
	if err != nil {
		return nil, err
	}
	return aleToGo(res), nil
}

// Test runs the procedure with value bound. Only false and nil are falsey
func (e *AleEnv) Test(c Compiled, value any) (bool, error) {
	res, err := e.call(c, value)
	if err != nil {
		return false, err
	}
	return res != data.False && res != data.Null, nil
}

func (e *AleEnv) call(c Compiled, value any) (ale.Value, error) {
	proc, ok := c.(data.Procedure)
	if !ok {
		return nil, fmt.Errorf("%w, got %T", ErrAleBadCompiledType, c)
	}
	arg := goToAle(value)
	return catchPanic(ErrAleCall, func() (ale.Value, error) {
		return proc.Call(arg), nil
	})
}

func (e *AleEnv) compile(src string) (data.Procedure, error) {
	return catchPanic(ErrAleCompile, func() (data.Procedure, error) {
		ns := e.env.GetAnonymous()
		res, err := eval.String(ns, data.String(
			fmt.Sprintf(aleLambdaTemplate, src),
		))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAleCompile, err)
		}
		proc, ok := res.(data.Procedure)
		if !ok {
			return nil, fmt.Errorf("%w, got: %T", ErrAleNotProcedure, res)
		}
		return proc, nil
	})
}

func goToAle(value any) ale.Value {
	switch v := value.(type) {
	case nil:
		return data.Null
	case bool:
		return data.Bool(v)
	case string:
		return data.String(v)
	case int:
		return data.Integer(v)
	case int64:
		return data.Integer(v)
	case float64:
		return data.Float(v)
	case []any:
		vec := make(data.Vector, len(v))
		for i, elem := range v {
			vec[i] = goToAle(elem)
		}
		return vec
	case map[string]any:
		obj := data.NewObject()
		for k, elem := range v {
			pair := data.NewCons(data.Keyword(k), goToAle(elem))
			obj = obj.Put(pair).(*data.Object)
		}
		return obj
	default:
		return data.String(fmt.Sprint(v))
	}
}

func aleToGo(value ale.Value) any {
	switch v := value.(type) {
	case data.Bool:
		return bool(v)
	case data.String:
		return string(v)
	case data.Keyword:
		return string(v)
	case data.Integer:
		return int(v)
	case data.Float:
		return float64(v)
	case data.Vector:
		res := make([]any, len(v))
		for i, elem := range v {
			res[i] = aleToGo(elem)
		}
		return res
	case *data.List:
		res := []any{}
		for l := v; !l.IsEmpty(); {
			head, tail, ok := l.Split()
			if !ok {
				break
			}
			res = append(res, aleToGo(head))
			l = tail.(*data.List)
		}
		return res
	case *data.Object:
		res := map[string]any{}
		for _, pair := range v.Pairs() {
			key := fmt.Sprint(aleToGo(pair.Car()))
			res[key] = aleToGo(pair.Cdr())
		}
		return res
	default:
		if value == data.Null {
			return nil
		}
		return fmt.Sprint(v)
	}
}

func catchPanic[T any](baseErr error, fn func() (T, error)) (res T, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = fmt.Errorf("%w: %w", baseErr, e)
			return
		}
		err = fmt.Errorf("%w: %v", baseErr, r)
	}()
	return fn()
}
