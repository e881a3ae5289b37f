package scenario

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/streamtest/pkg/log"
	"github.com/kode4food/streamtest/pkg/match"
	"github.com/kode4food/streamtest/pkg/stream"
	"github.com/kode4food/streamtest/pkg/verify"
)

// Compile turns the scenario into a verifier. Scripts are compiled through
// reg, and timeout applies when the scenario does not set its own
func (s *Scenario) Compile(
	reg *Registry, timeout time.Duration,
) (*verify.Scenario[any], error) {
	pub, err := s.Source.Publisher(reg)
	if err != nil {
		return nil, err
	}

	opts := []verify.Option{
		verify.WithName(s.Name),
		verify.WithTimeout(timeout),
		verify.WithTimeout(s.Timeout),
	}
	if s.Request != nil {
		opts = append(opts, verify.WithInitialRequest(*s.Request))
	}

	supplier := func() stream.Publisher[any] {
		return pub
	}
	var res *verify.Scenario[any]
	if s.VirtualTime {
		res = verify.WithVirtualTime(supplier, opts...)
	} else {
		res = verify.CreateFrom(supplier, opts...)
	}

	for _, st := range s.Steps {
		if err := st.apply(res, reg); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Publisher builds the described sequence
func (s *Source) Publisher(reg *Registry) (stream.Publisher[any], error) {
	pub, err := s.origin(reg)
	if err != nil {
		return nil, err
	}

	if s.Filter != nil {
		prog, err := reg.Compile(s.Filter)
		if err != nil {
			return nil, err
		}
		pub = stream.Filter(pub, prog.Test)
	}
	if s.Map != nil {
		prog, err := reg.Compile(s.Map)
		if err != nil {
			return nil, err
		}
		pub = stream.Map(pub, func(v any) (any, error) {
			res, err := prog.Call(v)
			return normalize(res), err
		})
	}
	if s.Take != nil {
		pub = stream.Take(pub, *s.Take)
	}
	if s.OnErrorReturn != nil {
		pub = stream.OnErrorReturn(pub, normalize(s.OnErrorReturn))
	}
	if s.DelayElements > 0 {
		pub = stream.DelayElements(pub, s.DelayElements)
	}
	return pub, nil
}

func (s *Source) origin(reg *Registry) (stream.Publisher[any], error) {
	switch {
	case s.Just != nil:
		return stream.FromSlice(normalizeAll(s.Just)), nil
	case s.Range != nil:
		return stream.Map(stream.Range(s.Range.Start, s.Range.Count),
			func(i int) (any, error) {
				return normalize(i), nil
			},
		), nil
	case s.Interval > 0:
		return stream.Map(stream.Interval(s.Interval),
			func(i int64) (any, error) {
				return normalize(i), nil
			},
		), nil
	case s.Error != "":
		return stream.Fail[any](errors.New(s.Error)), nil
	case s.Empty:
		return stream.Empty[any](), nil
	case s.Never:
		return stream.Never[any](), nil
	case s.Concat != nil:
		srcs := make([]stream.Publisher[any], len(s.Concat))
		for i, c := range s.Concat {
			pub, err := c.Publisher(reg)
			if err != nil {
				return nil, err
			}
			srcs[i] = pub
		}
		return stream.Concat(srcs...), nil
	default:
		return nil, ErrInvalidSource
	}
}

func (s *Step) apply(sc *verify.Scenario[any], reg *Registry) error {
	switch {
	case s.ExpectSubscription:
		sc.ExpectSubscription()
	case s.ExpectNext != nil:
		sc.ExpectNext(normalizeAll(s.ExpectNext)...)
	case s.ExpectNextCount > 0:
		sc.ExpectNextCount(s.ExpectNextCount)
	case s.ExpectNextMatches != nil:
		pred, err := s.ExpectNextMatches.predicate(reg)
		if err != nil {
			return err
		}
		sc.ExpectNextMatches(pred)
	case s.ExpectComplete:
		sc.ExpectComplete()
	case s.ExpectError:
		sc.ExpectError()
	case s.ExpectErrorMessage != "":
		sc.ExpectErrorMessage(s.ExpectErrorMessage)
	case s.ExpectNoEvent > 0:
		sc.ExpectNoEvent(s.ExpectNoEvent)
	case s.ThenAwait > 0:
		sc.ThenAwait(s.ThenAwait)
	case s.ThenRequest > 0:
		sc.ThenRequest(s.ThenRequest)
	case s.ThenCancel:
		sc.ThenCancel()
	default:
		return ErrInvalidStep
	}
	return nil
}

func (m *Match) predicate(reg *Registry) (match.Predicate[any], error) {
	if m.JSONPath != "" {
		return match.JSONPath[any](m.JSONPath, m.Equals), nil
	}
	prog, err := reg.Compile(&Code{Lua: m.Lua, Ale: m.Ale})
	if err != nil {
		return nil, err
	}
	return func(v any) bool {
		ok, err := prog.Test(v)
		if err != nil {
			slog.Warn("Match script failed",
				log.Value(v),
				log.Error(err))
			return false
		}
		return ok
	}, nil
}

// normalize converts a value to its decoded JSON form, so that values from
// YAML, Lua and Go sources compare equal when they look the same
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	return gjson.ParseBytes(data).Value()
}

func normalizeAll(vals []any) []any {
	res := make([]any, len(vals))
	for i, v := range vals {
		res[i] = normalize(v)
	}
	return res
}
