package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/wsforge/wsforge/internal/errors"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		wserrors.ErrPrecondition,
		wserrors.ErrScaffold,
		wserrors.ErrScaffoldAmbiguous,
		wserrors.ErrPushDiverged,
		wserrors.ErrPushAuthFailed,
		wserrors.ErrPushNetworkFailed,
		wserrors.ErrRepoCreateDenied,
		wserrors.ErrLink,
		wserrors.ErrUnpushedRevision,
		wserrors.ErrAssemble,
		wserrors.ErrInvalidTransition,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b, "sentinel %d should not match sentinel %d", i, j)
		}
	}
}

func TestWrapPreservesChain(t *testing.T) {
	t.Parallel()

	wrapped := wserrors.Wrap(wserrors.ErrPushDiverged, "publishing alpha")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, wserrors.ErrPushDiverged)
	assert.Contains(t, wrapped.Error(), "publishing alpha")
}

func TestWrapNilReturnsNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, wserrors.Wrap(nil, "context"))
	assert.NoError(t, wserrors.Wrapf(nil, "context %s", "x"))
}

func TestWrapfFormatsMessage(t *testing.T) {
	t.Parallel()

	wrapped := wserrors.Wrapf(wserrors.ErrScaffold, "component %s at %s", "alpha", "apps/alpha")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, wserrors.ErrScaffold)
	assert.Contains(t, wrapped.Error(), "component alpha at apps/alpha")
}

func TestExitCode2Error(t *testing.T) {
	t.Parallel()

	t.Run("detects wrapped exit code 2", func(t *testing.T) {
		t.Parallel()
		err := wserrors.NewExitCode2Error(wserrors.ErrInvalidOutputFormat)
		assert.True(t, wserrors.IsExitCode2Error(err))
		assert.ErrorIs(t, err, wserrors.ErrInvalidOutputFormat)
	})

	t.Run("detects deeply wrapped exit code 2", func(t *testing.T) {
		t.Parallel()
		inner := wserrors.NewExitCode2Error(wserrors.ErrEmptyValue)
		outer := fmt.Errorf("outer: %w", inner)
		assert.True(t, wserrors.IsExitCode2Error(outer))
	})

	t.Run("plain errors are not exit code 2", func(t *testing.T) {
		t.Parallel()
		assert.False(t, wserrors.IsExitCode2Error(stderrors.New("boom")))
		assert.False(t, wserrors.IsExitCode2Error(nil))
	})
}
