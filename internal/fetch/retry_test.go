package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketetl/internal/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
}

func TestRetryTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return MarkTransient(errors.New("http 503"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryNonTransientStopsImmediately(t *testing.T) {
	fatal := errors.New("http 400")
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.False(t, IsTransient(err))
}

func TestRetryExhaustionKeepsTransientMark(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return MarkTransient(errors.New("timeout"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	// the caller downgrades an exhausted retry to a warning, so the mark
	// has to survive the retry loop
	assert.True(t, IsTransient(err))
}

func TestRetrySingleAttemptFloor(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(0), func() error {
		calls++
		return MarkTransient(errors.New("boom"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryNotAvailablePassesThrough(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return ErrNotAvailable
	})

	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.Equal(t, 1, calls)
}

func TestIsTransientSeesWrappedErrors(t *testing.T) {
	inner := errors.New("conn reset")
	err := MarkTransient(inner)

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, inner)
	assert.False(t, IsTransient(inner))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		rowsLen int
		err     error
		want    Outcome
	}{
		{"rows present", 2, nil, OK},
		{"no rows no error", 0, nil, Empty},
		{"transient error", 0, MarkTransient(errors.New("503")), Transient},
		{"fatal error", 0, errors.New("400"), Fatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Classify(make([]series.RawBar, tc.rowsLen), tc.err)
			assert.Equal(t, tc.want, res.Outcome)
		})
	}
}
