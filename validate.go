package streamtool

import (
	"fmt"
	"strconv"
)

// bindArgs maps a StructuredCall onto the descriptor's parameter slots:
// positional values fill slots in declaration order, named values match by
// name, and the result is a fresh name→value map. A slot supplied both
// positionally and by name, an unknown named key, or a missing required slot
// is a validation error.
func bindArgs(call StructuredCall, desc *Descriptor) (map[string]any, error) {
	if len(call.Positional) > len(desc.Params) {
		return nil, &CallError{
			Reason: fmt.Sprintf("tool %q takes at most %d arguments, got %d",
				desc.Name, len(desc.Params), len(call.Positional)),
			Err: ErrValidation,
		}
	}

	args := make(map[string]any, len(call.Positional)+len(call.Named))
	for i, v := range call.Positional {
		slot := desc.Params[i]
		coerced, err := coerce(v, slot)
		if err != nil {
			return nil, err
		}
		args[slot.Name] = coerced
	}
	for name, v := range call.Named {
		slot, ok := desc.param(name)
		if !ok {
			return nil, &CallError{
				Reason: fmt.Sprintf("unknown argument %q for tool %q", name, desc.Name),
				Err:    ErrValidation,
			}
		}
		if _, taken := args[name]; taken {
			return nil, &CallError{
				Reason: fmt.Sprintf("argument %q given both positionally and by name", name),
				Err:    ErrValidation,
			}
		}
		coerced, err := coerce(v, slot)
		if err != nil {
			return nil, err
		}
		args[name] = coerced
	}
	for _, slot := range desc.Params {
		if _, present := args[slot.Name]; !present && slot.Required {
			return nil, &CallError{
				Reason: fmt.Sprintf("missing required argument %q for tool %q", slot.Name, desc.Name),
				Err:    ErrValidation,
			}
		}
	}
	return args, nil
}

// coerce checks a literal against the slot's declared type with the gentle
// conversions the informal grammar needs: unquoted numbers fill string slots,
// digit strings fill number slots, "true"/"false" fill boolean slots. A
// value that cannot be reconciled is a validation error.
func coerce(v any, slot Param) (any, error) {
	if v == nil || slot.Type == TypeAny || slot.Type == "" {
		return v, nil
	}
	switch slot.Type {
	case TypeString:
		switch t := v.(type) {
		case string:
			return t, nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(t), nil
		}
	case TypeNumber:
		switch t := v.(type) {
		case float64:
			return t, nil
		case string:
			if n, err := strconv.ParseFloat(t, 64); err == nil {
				return n, nil
			}
		}
	case TypeBoolean:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			if t == "true" || t == "false" {
				return t == "true", nil
			}
		}
	case TypeList:
		if t, ok := v.([]any); ok {
			return t, nil
		}
	case TypeObject:
		if t, ok := v.(map[string]any); ok {
			return t, nil
		}
	}
	return nil, &CallError{
		Reason: fmt.Sprintf("argument %q expects %s, got %T", slot.Name, slot.Type, v),
		Err:    ErrValidation,
	}
}
