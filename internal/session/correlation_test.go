package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrelationTravelsWithActor(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{UserID: "user-1", Token: "tok"})
	ctx = WithCorrelation(ctx, "  corr-9 ")

	require.Equal(t, "corr-9", CorrelationFromContext(ctx))
	require.Equal(t, "tok", TokenFromContext(ctx))

	require.Equal(t, ctx, WithCorrelation(ctx, "   "))
	require.Empty(t, CorrelationFromContext(context.Background()))

	long := WithCorrelation(context.Background(), strings.Repeat("x", 300))
	require.Len(t, CorrelationFromContext(long), 128)
}
