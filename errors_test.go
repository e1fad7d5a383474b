package redis

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := wrapErr(KindStreamRead, io.EOF)
	require.ErrorIs(t, a, newErr(KindStreamRead))
	require.NotErrorIs(t, a, newErr(KindStreamWrite))
}

func TestErrorUnwrapReachesCause(t *testing.T) {
	err := wrapErr(KindStreamRead, io.EOF)
	require.ErrorIs(t, err, io.EOF)
}

func TestServerErrSentinelDoesNotMatchKindOnlyError(t *testing.T) {
	se := serverErr(KindResp3Hello, "NOAUTH Authentication required")
	require.False(t, errors.Is(newErr(KindResp3Hello), se))
	require.True(t, errors.Is(se, newErr(KindResp3Hello)))
}

func TestServerErrorPrefix(t *testing.T) {
	e := ServerError("WRONGTYPE Operation against a key holding the wrong kind of value")
	require.Equal(t, "WRONGTYPE", e.Prefix())

	single := ServerError("boom")
	require.Equal(t, "boom", single.Prefix())
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "not_a_number", KindNotANumber.String())
	require.Equal(t, "unknown", Kind(-1).String())
}

func TestSentinelErrorsCarryExpectedKind(t *testing.T) {
	require.Equal(t, KindOperationAborted, ErrOperationAborted.Kind)
	require.Equal(t, KindNotConnected, ErrNotConnected.Kind)
	require.Equal(t, KindPongTimeout, ErrPongTimeout.Kind)
}
