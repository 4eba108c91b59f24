package batch

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// ErrNotConcatenable indicates a field under MergeConcat held a non-slice
// value.
var ErrNotConcatenable = errors.New("field is not a slice")

// MergeRule decides how a field combines across batch results.
type MergeRule int

const (
	// MergeReplace keeps the value from the latest batch. This is the
	// default for fields without a rule.
	MergeReplace MergeRule = iota

	// MergeConcat appends slice values in batch order.
	MergeConcat
)

// MergeSpec maps field names to merge rules.
type MergeSpec map[string]MergeRule

func (s MergeSpec) rule(field string) MergeRule {
	if s == nil {
		return MergeReplace
	}
	return s[field]
}

// Merge folds batch result maps into one document, in batch order. Fields
// under MergeConcat must hold slices in every batch that sets them; scalar
// fields take the value of the last batch that set them. Merging zero
// results returns ErrNoBatches.
func Merge(results []map[string]any, spec MergeSpec) (map[string]any, error) {
	if len(results) == 0 {
		return nil, ErrNoBatches
	}

	out := make(map[string]any, len(results[0]))
	for _, result := range results {
		for _, key := range sortedKeys(result) {
			value := result[key]
			if spec.rule(key) == MergeReplace {
				out[key] = value
				continue
			}
			merged, err := concat(out[key], value)
			if err != nil {
				return nil, fmt.Errorf("merge field %q: %w", key, err)
			}
			out[key] = merged
		}
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	// Deterministic merge order keeps error attribution stable.
	slices.Sort(keys)
	return keys
}

// concat appends b onto a. A nil accumulator adopts b directly. Slices of
// the same type append natively; mixed slice types widen to []any.
func concat(a, b any) (any, error) {
	bv := reflect.ValueOf(b)
	if b == nil || bv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: %T", ErrNotConcatenable, b)
	}
	if a == nil {
		return b, nil
	}
	av := reflect.ValueOf(a)
	if av.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: %T", ErrNotConcatenable, a)
	}

	if av.Type() == bv.Type() {
		return reflect.AppendSlice(av, bv).Interface(), nil
	}

	widened := make([]any, 0, av.Len()+bv.Len())
	for i := 0; i < av.Len(); i++ {
		widened = append(widened, av.Index(i).Interface())
	}
	for i := 0; i < bv.Len(); i++ {
		widened = append(widened, bv.Index(i).Interface())
	}
	return widened, nil
}
