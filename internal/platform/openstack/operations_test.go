package openstack

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string
	Name string
}

type widgetOpts struct {
	Name string
}

func newWidgetOp(existing *widget, getErr, createErr error, created *int) *EnsureOperation[widget, widgetOpts] {
	return &EnsureOperation[widget, widgetOpts]{
		Name:         "w1",
		ResourceType: "widget",
		Get: func(_ context.Context, _ string) (*widget, error) {
			return existing, getErr
		},
		Create: func(_ context.Context, opts widgetOpts) (*widget, error) {
			*created++
			if createErr != nil {
				return nil, createErr
			}
			return &widget{ID: "new", Name: opts.Name}, nil
		},
		CreateOptsMapper: func() widgetOpts { return widgetOpts{Name: "w1"} },
		ID:               func(w *widget) string { return w.ID },
	}
}

func TestEnsureOperation_Execute(t *testing.T) {
	t.Parallel()

	t.Run("returns existing resource without creating", func(t *testing.T) {
		t.Parallel()
		created := 0
		var outcomes []Outcome
		op := newWidgetOp(&widget{ID: "old", Name: "w1"}, nil, nil, &created)

		w, err := op.Execute(context.Background(), func(_, _, id string, o Outcome) {
			assert.Equal(t, "old", id)
			outcomes = append(outcomes, o)
		})

		require.NoError(t, err)
		assert.Equal(t, "old", w.ID)
		assert.Zero(t, created)
		assert.Equal(t, []Outcome{OutcomeExists}, outcomes)
	})

	t.Run("creates missing resource", func(t *testing.T) {
		t.Parallel()
		created := 0
		var outcomes []Outcome
		op := newWidgetOp(nil, nil, nil, &created)

		w, err := op.Execute(context.Background(), func(kind, name, _ string, o Outcome) {
			assert.Equal(t, "widget", kind)
			assert.Equal(t, "w1", name)
			outcomes = append(outcomes, o)
		})

		require.NoError(t, err)
		assert.Equal(t, "new", w.ID)
		assert.Equal(t, 1, created)
		assert.Equal(t, []Outcome{OutcomeCreated}, outcomes)
	})

	t.Run("lookup error aborts", func(t *testing.T) {
		t.Parallel()
		created := 0
		boom := errors.New("unauthorized")
		op := newWidgetOp(nil, boom, nil, &created)

		_, err := op.Execute(context.Background(), nil)

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to get widget w1")
		assert.Zero(t, created)
	})

	t.Run("create error is wrapped", func(t *testing.T) {
		t.Parallel()
		created := 0
		boom := StatusError(500)
		op := newWidgetOp(nil, nil, boom, &created)

		_, err := op.Execute(context.Background(), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create widget w1")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		created := 0
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newWidgetOp(nil, nil, nil, &created).Execute(ctx, nil)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, created)
	})
}

func TestFirstNamed(t *testing.T) {
	t.Parallel()
	items := []widget{{ID: "1", Name: "vm1"}, {ID: "2", Name: "vm11"}}
	nameOf := func(w widget) string { return w.Name }

	got := firstNamed(items, "vm11", nameOf)
	require.NotNil(t, got)
	assert.Equal(t, "2", got.ID)

	assert.Nil(t, firstNamed(items, "vm", nameOf))
	assert.Nil(t, firstNamed([]widget{}, "vm1", nameOf))
}
