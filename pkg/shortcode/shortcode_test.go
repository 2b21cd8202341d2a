package shortcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_GoldenValues(t *testing.T) {
	// Golden outputs fixed once from the algorithm definition. Any change
	// here breaks every code already stored.
	cases := []struct {
		name string
		want string
	}{
		{"Matemática Básica", "MBAS21551"},
		{"Direito Constitucional", "DCON74400"},
		{"Português", "PORT35258"},
		{"Raciocínio Lógico", "RLOG75179"},
		{"Informática", "INFO70013"},
		{"História", "HIST68893"},
		{"Plano TJ-SP Escrevente", "PTJS25776"},
		// Short tokens are padded with 'X'.
		{"Lei", "LEIX36767"},
		{"A B", "ABXX13273"},
		{"X", "XXXX50404"},
		// A two-letter second token only contributes two letters.
		{"Legislação de Trânsito", "LDEX57689"},
		// Digits never enter the prefix; words without letters are skipped.
		{"4 Horas de Estudo", "HDEX72641"},
		{"1a Fase OAB", "AFAS36933"},
		{"2024 Revisão", "REVI10396"},
		{"Direito 2", "DIRE67635"},
		// A name with no letters at all gets the all-'X' prefix.
		{"2024", "XXXX11921"},
	}

	for _, tc := range cases {
		got, err := Generate(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate("Direito Administrativo")
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := Generate("Direito Administrativo")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerate_HashIsCaseInsensitive(t *testing.T) {
	// The suffix hash runs over the lower-cased name, so casing never
	// changes the code.
	a, err := Generate("Matemática Básica")
	require.NoError(t, err)
	b, err := Generate("matemática básica")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_EmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n", "!!!", "···"} {
		_, err := Generate(name)
		assert.ErrorIs(t, err, ErrEmptyName, "name=%q", name)
	}
}

func TestGenerate_FormatAlwaysValid(t *testing.T) {
	names := []string{
		"Matemática Básica",
		"a",
		"Ética no Serviço Público",
		"Língua Portuguesa e Interpretação de Textos",
		"4 Horas de Estudo",
		"1a Fase OAB",
		"2024 Revisão",
		"2024",
	}
	for _, name := range names {
		code, err := Generate(name)
		require.NoError(t, err)
		assert.True(t, IsValid(code), "code=%q name=%q", code, name)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("MBAS21551"))
	assert.True(t, IsValid("XXXX10000"))

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("MBAS2155"))   // 4 digits
	assert.False(t, IsValid("MBA021551"))  // digit in prefix
	assert.False(t, IsValid("mbas21551"))  // lowercase
	assert.False(t, IsValid("MBAS215510")) // too long
	assert.False(t, IsValid("MBAS2155a"))
}
