package style

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Matches evaluates the layer's legacy filter against feature properties.
// Supported: ==, !=, has, !has, in, !in, all, any, none. A layer without a
// filter matches everything.
func (l Layer) Matches(props map[string]any) (bool, error) {
	if len(l.Filter) == 0 {
		return true, nil
	}
	var expr []any
	if err := json.Unmarshal(l.Filter, &expr); err != nil {
		return false, fmt.Errorf("layer %q filter: %w", l.ID, err)
	}
	return evalFilter(expr, props)
}

func evalFilter(expr []any, props map[string]any) (bool, error) {
	if len(expr) == 0 {
		return true, nil
	}
	op, _ := expr[0].(string)
	args := expr[1:]

	switch op {
	case "all", "any", "none":
		for _, a := range args {
			sub, ok := a.([]any)
			if !ok {
				return false, fmt.Errorf("%s: operand is not an expression", op)
			}
			m, err := evalFilter(sub, props)
			if err != nil {
				return false, err
			}
			switch {
			case op == "all" && !m:
				return false, nil
			case op == "any" && m:
				return true, nil
			case op == "none" && m:
				return false, nil
			}
		}
		return op != "any", nil
	case "has", "!has":
		if len(args) != 1 {
			return false, fmt.Errorf("%s takes one key", op)
		}
		k, _ := args[0].(string)
		_, ok := props[k]
		return ok == (op == "has"), nil
	case "==", "!=":
		if len(args) != 2 {
			return false, fmt.Errorf("%s takes a key and a value", op)
		}
		k, _ := args[0].(string)
		eq := reflect.DeepEqual(props[k], args[1])
		return eq == (op == "=="), nil
	case "in", "!in":
		if len(args) < 1 {
			return false, fmt.Errorf("%s needs a key", op)
		}
		k, _ := args[0].(string)
		v := props[k]
		found := false
		for _, c := range args[1:] {
			if reflect.DeepEqual(c, v) {
				found = true
				break
			}
		}
		return found == (op == "in"), nil
	}
	return false, fmt.Errorf("unsupported filter operator %q", op)
}
