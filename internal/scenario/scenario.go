package scenario

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Scenario is a declarative verification read from a YAML document
	Scenario struct {
		Name        string        `yaml:"name"`
		VirtualTime bool          `yaml:"virtual_time"`
		Request     *int64        `yaml:"request"`
		Timeout     time.Duration `yaml:"timeout"`
		Source      *Source       `yaml:"source"`
		Steps       []*Step       `yaml:"steps"`
		File        string        `yaml:"-"`
	}

	// Source describes the sequence under test: exactly one origin, plus
	// optional modifiers applied in the order filter, map, take,
	// on_error_return, delay_elements
	Source struct {
		Just     []any         `yaml:"just"`
		Range    *Range        `yaml:"range"`
		Interval time.Duration `yaml:"interval"`
		Error    string        `yaml:"error"`
		Empty    bool          `yaml:"empty"`
		Never    bool          `yaml:"never"`
		Concat   []*Source     `yaml:"concat"`

		Filter        *Code         `yaml:"filter"`
		Map           *Code         `yaml:"map"`
		Take          *int64        `yaml:"take"`
		OnErrorReturn any           `yaml:"on_error_return"`
		DelayElements time.Duration `yaml:"delay_elements"`
	}

	// Range emits Count consecutive integers starting at Start
	Range struct {
		Start int `yaml:"start"`
		Count int `yaml:"count"`
	}

	// Step is a single expectation or action. Exactly one field is set
	Step struct {
		ExpectSubscription bool          `yaml:"expect_subscription"`
		ExpectNext         []any         `yaml:"expect_next"`
		ExpectNextCount    int64         `yaml:"expect_next_count"`
		ExpectNextMatches  *Match        `yaml:"expect_next_matches"`
		ExpectComplete     bool          `yaml:"expect_complete"`
		ExpectError        bool          `yaml:"expect_error"`
		ExpectErrorMessage string        `yaml:"expect_error_message"`
		ExpectNoEvent      time.Duration `yaml:"expect_no_event"`
		ThenAwait          time.Duration `yaml:"then_await"`
		ThenRequest        int64         `yaml:"then_request"`
		ThenCancel         bool          `yaml:"then_cancel"`
	}

	// Code is a snippet in one of the script languages. A plain string is
	// read as Lua
	Code struct {
		Lua string `yaml:"lua"`
		Ale string `yaml:"ale"`
	}

	// Match selects values either with a script predicate or by comparing
	// the value found at a JSON path
	Match struct {
		Lua      string `yaml:"lua"`
		Ale      string `yaml:"ale"`
		JSONPath string `yaml:"json_path"`
		Equals   any    `yaml:"equals"`
	}
)

var (
	ErrNameRequired   = errors.New("scenario name is required")
	ErrSourceRequired = errors.New("scenario source is required")
	ErrStepsRequired  = errors.New("scenario requires at least one step")
	ErrInvalidSource  = errors.New("source must have exactly one origin")
	ErrInvalidStep    = errors.New("step must have exactly one action")
	ErrInvalidMatch   = errors.New("match requires one of lua, ale or json_path")
	ErrInvalidCode    = errors.New("script requires exactly one of lua or ale")
	ErrInvalidRange   = errors.New("range count must not be negative")
	ErrInvalidRequest = errors.New("request must not be negative")
	ErrInvalidTake    = errors.New("take must not be negative")
)

// Validate checks the structure of the scenario without compiling scripts
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if s.Source == nil {
		return ErrSourceRequired
	}
	if len(s.Steps) == 0 {
		return ErrStepsRequired
	}
	if s.Request != nil && *s.Request < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRequest, *s.Request)
	}
	if err := s.Source.Validate(); err != nil {
		return err
	}
	for i, st := range s.Steps {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// Validate checks that the source names exactly one origin
func (s *Source) Validate() error {
	origins := countSet(
		s.Just != nil, s.Range != nil, s.Interval > 0, s.Error != "",
		s.Empty, s.Never, s.Concat != nil,
	)
	if origins != 1 {
		return fmt.Errorf("%w: found %d", ErrInvalidSource, origins)
	}
	if s.Range != nil && s.Range.Count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRange, s.Range.Count)
	}
	for _, c := range []*Code{s.Filter, s.Map} {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if s.Take != nil && *s.Take < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTake, *s.Take)
	}
	for _, c := range s.Concat {
		if c == nil {
			return ErrInvalidSource
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the step names exactly one action
func (s *Step) Validate() error {
	actions := countSet(
		s.ExpectSubscription, s.ExpectNext != nil, s.ExpectNextCount > 0,
		s.ExpectNextMatches != nil, s.ExpectComplete, s.ExpectError,
		s.ExpectErrorMessage != "", s.ExpectNoEvent > 0, s.ThenAwait > 0,
		s.ThenRequest > 0, s.ThenCancel,
	)
	if actions != 1 {
		return fmt.Errorf("%w: found %d", ErrInvalidStep, actions)
	}
	if m := s.ExpectNextMatches; m != nil {
		if countSet(m.Lua != "", m.Ale != "", m.JSONPath != "") != 1 {
			return ErrInvalidMatch
		}
	}
	return nil
}

// UnmarshalYAML accepts either a bare Lua string or a mapping that names
// the language
func (c *Code) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&c.Lua)
	}
	type plain Code
	return node.Decode((*plain)(c))
}

// Validate checks that the code names exactly one language
func (c *Code) Validate() error {
	if countSet(c.Lua != "", c.Ale != "") != 1 {
		return ErrInvalidCode
	}
	return nil
}

// Source returns the language and text of the code
func (c *Code) Source() (string, string) {
	if c.Ale != "" {
		return LangAle, c.Ale
	}
	return LangLua, c.Lua
}

func countSet(flags ...bool) int {
	res := 0
	for _, f := range flags {
		if f {
			res++
		}
	}
	return res
}
