package dombind

import (
	"fmt"
	"strconv"
	"strings"
)

// helperFunc is the calling convention for pure helpers exposed to
// expressions. It matches lib/expr's Func type structurally so the default
// evaluator can call helpers without importing this package.
type helperFunc = func(args ...any) (any, error)

// evalEnv builds the per-declaration evaluation context handed to the
// Evaluator: the state tree under "state", a "get" accessor, and a fixed
// set of pure helper functions. The state tree is the live map — read-only
// by contract with evaluators, which must not mutate their environment.
func evalEnv(store *Store) map[string]any {
	env := map[string]any{
		"state": store.tree,
		"get": helperFunc(func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("get expects 1 argument, got %d", len(args))
			}
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("get expects a string path, got %T", args[0])
			}
			return store.Get(path), nil
		}),
	}
	for name, fn := range pureHelpers {
		env[name] = fn
	}
	return env
}

// pureHelpers are available to every expression in every strategy.
var pureHelpers = map[string]helperFunc{
	"sum": func(args ...any) (any, error) {
		nums, err := numericArgs("sum", args)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total, nil
	},
	"average": func(args ...any) (any, error) {
		nums, err := numericArgs("average", args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return 0.0, nil
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total / float64(len(nums)), nil
	},
	"min": func(args ...any) (any, error) {
		nums, err := numericArgs("min", args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, nil
		}
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		return m, nil
	},
	"max": func(args ...any) (any, error) {
		nums, err := numericArgs("max", args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, nil
		}
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		return m, nil
	},
	"count": func(args ...any) (any, error) {
		if len(args) == 1 {
			switch t := args[0].(type) {
			case []any:
				return float64(len(t)), nil
			case map[string]any:
				return float64(len(t)), nil
			case string:
				return float64(len(t)), nil
			case nil:
				return 0.0, nil
			}
		}
		return float64(len(args)), nil
	},
	"join": func(args ...any) (any, error) {
		if len(args) == 0 {
			return "", nil
		}
		sep := ","
		items := args
		if len(args) >= 2 {
			if s, ok := args[len(args)-1].(string); ok {
				if _, isList := args[0].([]any); isList || len(args) == 2 {
					sep = s
					items = args[:len(args)-1]
				}
			}
		}
		var parts []string
		for _, item := range items {
			if list, ok := item.([]any); ok {
				for _, v := range list {
					parts = append(parts, stringify(v))
				}
				continue
			}
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, sep), nil
	},
	"upper": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("upper expects 1 argument, got %d", len(args))
		}
		return strings.ToUpper(stringify(args[0])), nil
	},
	"lower": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("lower expects 1 argument, got %d", len(args))
		}
		return strings.ToLower(stringify(args[0])), nil
	},
}

// numericArgs flattens arguments (including one level of arrays) into
// float64s, rejecting non-numeric values.
func numericArgs(helper string, args []any) ([]float64, error) {
	var nums []float64
	var collect func(v any) error
	collect = func(v any) error {
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if err := collect(item); err != nil {
					return err
				}
			}
			return nil
		}
		f, ok := toNumber(v)
		if !ok {
			return fmt.Errorf("%s expects numbers, got %T", helper, v)
		}
		nums = append(nums, f)
		return nil
	}
	for _, a := range args {
		if err := collect(a); err != nil {
			return nil, err
		}
	}
	return nums, nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringify renders an evaluation result the way the renderers write it
// into the view tree: nil as the empty string, whole floats without a
// trailing ".0".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) && t < 1e15 && t > -1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		if f, ok := toNumber(v); ok {
			return stringify(f)
		}
		return fmt.Sprintf("%v", v)
	}
}
