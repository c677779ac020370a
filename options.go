package dombind

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultLoopCap is the circuit-breaker limit for while and repeat loops.
const DefaultLoopCap = 1000

// DefaultAttributePrefix is prepended to every declaration attribute name
// ("data-" yields data-if, data-for, data-bind, ...).
const DefaultAttributePrefix = "data-"

// Options represents the optional dombind.yaml configuration.
type Options struct {
	AttributePrefix string   `yaml:"attribute_prefix,omitempty"`
	LoopCap         int      `yaml:"loop_cap,omitempty"`
	Hide            HideMode `yaml:"hide,omitempty"`
}

// LoadOptions reads dombind.yaml from dir if present. A missing file
// returns zero Options and no error; callers get defaults.
func LoadOptions(dir string) (*Options, error) {
	path := filepath.Join(dir, "dombind.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Options{}, nil
		}
		return nil, fmt.Errorf("dombind: failed to read dombind.yaml: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("dombind: failed to parse dombind.yaml: %w", err)
	}
	return &opts, nil
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOptions applies a loaded Options struct, skipping zero fields.
func WithOptions(o *Options) Option {
	return func(e *Engine) {
		if o == nil {
			return
		}
		if o.AttributePrefix != "" {
			e.attrs = attrNamesFor(o.AttributePrefix)
		}
		if o.LoopCap > 0 {
			e.loopCap = o.LoopCap
		}
		if o.Hide != "" {
			e.hide = o.Hide
		}
	}
}

// WithAttributePrefix overrides the declaration attribute prefix.
func WithAttributePrefix(prefix string) Option {
	return func(e *Engine) { e.attrs = attrNamesFor(prefix) }
}

// WithLoopCap overrides the while/repeat iteration cap.
func WithLoopCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.loopCap = n
		}
	}
}

// WithHideMode selects how conditional and switch renderers suppress nodes.
func WithHideMode(mode HideMode) Option {
	return func(e *Engine) { e.hide = mode }
}

// WithDispatcher installs the external command layer's event sink.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithExecutor installs the external command layer's execute capability.
func WithExecutor(x Executor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithPayloadKey sets the key used to decode signed or encrypted embedded
// state payloads. Without a key, x-statepack data blocks are skipped with
// a warning.
func WithPayloadKey(key []byte) Option {
	return func(e *Engine) { e.payloadKey = key }
}

// WithInterpolator replaces the template-placeholder substitution helper
// used by the loop renderer. The default evaluates {{expr}} through the
// engine's Evaluator.
func WithInterpolator(fn func(text string, env map[string]any) string) Option {
	return func(e *Engine) { e.interpolate = fn }
}

// WithWarningHandler registers a callback invoked with every warning the
// engine logs. Warnings always also go to glog; the handler is for hosts
// and tests that need to observe degradation programmatically.
func WithWarningHandler(fn func(msg string)) Option {
	return func(e *Engine) { e.onWarning = fn }
}

// attrNames holds the resolved declaration attribute names for one engine.
type attrNames struct {
	computed string
	target   string
	cond     string
	elseAttr string
	group    string
	switchOn string
	caseOf   string
	forEach  string
	while    string
	repeat   string
	bind     string
	state    string
	instance string
}

func attrNamesFor(prefix string) attrNames {
	return attrNames{
		computed: prefix + "computed",
		target:   prefix + "target",
		cond:     prefix + "if",
		elseAttr: prefix + "else",
		group:    prefix + "if-group",
		switchOn: prefix + "switch",
		caseOf:   prefix + "case",
		forEach:  prefix + "for",
		while:    prefix + "while",
		repeat:   prefix + "repeat",
		bind:     prefix + "bind",
		state:    prefix + "state",
		instance: prefix + "instance",
	}
}
