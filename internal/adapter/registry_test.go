package adapter

import (
	"errors"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinAdaptersRegistered(t *testing.T) {
	for _, name := range []string{"duckdb", "sqlite", "postgres"} {
		assert.True(t, IsRegistered(name), name)
	}
	assert.False(t, IsRegistered("oracle"))
}

func TestListIsSorted(t *testing.T) {
	names := List()
	require.NotEmpty(t, names)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "sqlite")
}

func TestNewCreatesAdapterByType(t *testing.T) {
	a, err := New(Config{Type: "sqlite"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", a.DialectName())

	a, err = New(Config{Type: "duckdb"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, "duckdb", a.DialectName())
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(Config{Type: "oracle"}, nil)
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "oracle", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "sqlite")
	assert.Contains(t, err.Error(), `unknown adapter type "oracle"`)
}

func TestNewEmptyType(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestGetReturnsFactory(t *testing.T) {
	factory, ok := Get("sqlite")
	require.True(t, ok)
	assert.Equal(t, "sqlite", factory(nil).DialectName())

	_, ok = Get("nope")
	assert.False(t, ok)
}
