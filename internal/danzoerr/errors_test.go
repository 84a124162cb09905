package danzoerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Usage, 2},
		{Network, 3},
		{Parse, 4},
		{NoVariant, 4},
		{UnsupportedEncryption, 5},
		{Key, 5},
		{Decrypt, 5},
		{Write, 3},
		{RemuxUnavailable, 6},
		{RemuxFailed, 6},
		{Cancelled, 130},
	}
	for _, c := range cases {
		err := New(c.kind, "context", nil)
		assert.Equal(t, c.want, ExitCode(err))
		assert.Equal(t, c.want, err.ExitCode())
	}
}

func TestExitCodeNilIsZero(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
}

func TestExitCodeUntypedErrorDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}

func TestErrorUnwrapsAndFormats(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := New(Network, "fetching segment", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "NetworkError")
	assert.Contains(t, err.Error(), "fetching segment")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsFindsWrappedError(t *testing.T) {
	base := New(Decrypt, "segment 3", nil)
	wrapped := fmt.Errorf("pipeline failed: %w", base)

	var de *Error
	require := assert.New(t)
	require.True(As(wrapped, &de))
	require.Equal(Decrypt, de.Kind)
}

func TestAsReturnsFalseForPlainError(t *testing.T) {
	var de *Error
	assert.False(t, As(errors.New("plain"), &de))
}
