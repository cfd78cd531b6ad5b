package fairvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinModelsAreConsistent(t *testing.T) {
	for _, m := range []Model{V1(), V2()} {
		assert.NoError(t, m.Check(), m.Version)
	}
	f, ok := V2().Factor("usdjpy")
	require.True(t, ok)
	assert.Equal(t, "USD/JPY", f.PeerPair)
}

func TestModelCheck_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Model)
	}{
		{"no version", func(m *Model) { m.Version = "" }},
		{"duplicate factor", func(m *Model) { m.Factors = append(m.Factors, m.Factors[0]) }},
		{"inverted range", func(m *Model) { m.Factors[0].Min, m.Factors[0].Max = 6, 2 }},
		{"default outside range", func(m *Model) { m.Factors[1].Default = 200 }},
		{"dangling term", func(m *Model) { m.Terms = append(m.Terms, Term{Factor: "gold", Weight: 1}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := V1()
			tt.mutate(&m)
			assert.Error(t, m.Check())
		})
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"v1", "v2"}, r.Versions())
	assert.Equal(t, "v1", r.Default())

	m, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "v1", m.Version)

	_, err = r.Get("v9")
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.ErrorIs(t, r.SetDefault("v9"), ErrUnknownModel)

	custom := V1()
	custom.Version = "2025-06-retune"
	custom.Base = 1380
	require.NoError(t, r.Register(custom))
	require.NoError(t, r.SetDefault("2025-06-retune"))
	m, err = r.Get("")
	require.NoError(t, err)
	assert.Equal(t, 1380.0, m.Base)

	bad := V1()
	bad.Version = ""
	assert.Error(t, r.Register(bad))
}
