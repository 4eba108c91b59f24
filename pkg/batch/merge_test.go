package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMerge_ConcatSlices tests that a concat field concatenates in batch
// order.
func TestMerge_ConcatSlices(t *testing.T) {
	results := []map[string]any{
		{"cells": []int{1, 2}},
		{"cells": []int{3, 4}},
		{"cells": []int{5}},
	}

	got, err := Merge(results, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"cells": []int{1, 2, 3, 4, 5}}, got)
}

// TestMerge_ReplaceTakesLastBatch tests the default rule: the latest batch
// wins.
func TestMerge_ReplaceTakesLastBatch(t *testing.T) {
	results := []map[string]any{
		{"status": "partial", "count": 2},
		{"status": "done", "count": 5},
	}

	got, err := Merge(results, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "done", "count": 5}, got)
}

// TestMerge_MixedRules tests concat and replace fields side by side.
func TestMerge_MixedRules(t *testing.T) {
	results := []map[string]any{
		{"cells": []string{"a"}, "revision": 1},
		{"cells": []string{"b", "c"}, "revision": 2},
	}

	got, err := Merge(results, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got["cells"])
	assert.Equal(t, 2, got["revision"])
}

// TestMerge_NoBatches tests that merging nothing is an error, not an empty
// document.
func TestMerge_NoBatches(t *testing.T) {
	_, err := Merge(nil, nil)
	assert.ErrorIs(t, err, ErrNoBatches)

	_, err = Merge([]map[string]any{}, MergeSpec{"cells": MergeConcat})
	assert.ErrorIs(t, err, ErrNoBatches)
}

// TestMerge_SingleBatch tests that one batch passes through unchanged.
func TestMerge_SingleBatch(t *testing.T) {
	got, err := Merge([]map[string]any{{"cells": []int{9}, "n": 1}}, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"cells": []int{9}, "n": 1}, got)
}

// TestMerge_SparseFields tests fields that appear in only some batches.
func TestMerge_SparseFields(t *testing.T) {
	results := []map[string]any{
		{"cells": []int{1}, "first": true},
		{"last": true},
		{"cells": []int{2}},
	}

	got, err := Merge(results, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got["cells"])
	assert.Equal(t, true, got["first"])
	assert.Equal(t, true, got["last"])
}

// TestMerge_ConcatWidensMixedSliceTypes tests that differently typed slices
// under concat widen to []any instead of failing.
func TestMerge_ConcatWidensMixedSliceTypes(t *testing.T) {
	results := []map[string]any{
		{"cells": []int{1, 2}},
		{"cells": []string{"x"}},
	}

	got, err := Merge(results, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, "x"}, got["cells"])
}

// TestMerge_ConcatRejectsNonSlice tests the error for scalar values under a
// concat rule.
func TestMerge_ConcatRejectsNonSlice(t *testing.T) {
	tests := []struct {
		name    string
		results []map[string]any
	}{
		{"scalar in later batch", []map[string]any{
			{"cells": []int{1}},
			{"cells": "oops"},
		}},
		{"scalar in first batch", []map[string]any{
			{"cells": 7},
			{"cells": []int{1}},
		}},
		{"nil value", []map[string]any{
			{"cells": nil},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(tt.results, MergeSpec{"cells": MergeConcat})
			require.ErrorIs(t, err, ErrNotConcatenable)
			assert.Contains(t, err.Error(), `"cells"`)
		})
	}
}

// TestMerge_DoesNotMutateInputs tests that the merged document is a fresh
// map.
func TestMerge_DoesNotMutateInputs(t *testing.T) {
	first := map[string]any{"cells": []int{1}, "n": 1}
	second := map[string]any{"n": 2}

	got, err := Merge([]map[string]any{first, second}, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)

	got["n"] = 99
	got["extra"] = true
	assert.Equal(t, 1, first["n"])
	assert.NotContains(t, second, "extra")
}

// TestProcessMerge_EndToEnd tests the batched transform plus merge path.
func TestProcessMerge_EndToEnd(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	got, err := ProcessMerge(context.Background(), items, 2, func(_ context.Context, chunk []string) (map[string]any, error) {
		return map[string]any{
			"cells": append([]string(nil), chunk...),
			"count": len(chunk),
		}, nil
	}, MergeSpec{"cells": MergeConcat})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got["cells"])
	assert.Equal(t, 1, got["count"], "replace fields take the last batch")
}

// TestProcessMerge_EmptyItems tests that zero items surface ErrNoBatches.
func TestProcessMerge_EmptyItems(t *testing.T) {
	_, err := ProcessMerge(context.Background(), []string(nil), 2, func(_ context.Context, chunk []string) (map[string]any, error) {
		return map[string]any{}, nil
	}, nil)
	assert.ErrorIs(t, err, ErrNoBatches)
}

// TestProcessMerge_TransformError tests that transform failures pass
// through before any merge happens.
func TestProcessMerge_TransformError(t *testing.T) {
	boom := errors.New("no document")

	_, err := ProcessMerge(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, chunk []int) (map[string]any, error) {
		if chunk[0] == 2 {
			return nil, boom
		}
		return map[string]any{"ok": true}, nil
	}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "batch 1")
}
