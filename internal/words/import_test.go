package words

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCSV(t *testing.T) {
	in := strings.NewReader("sol,category ignored\nluna\n\n  mar  \nsol\n")
	got, err := ImportCSV(in, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"sol", "luna", "mar"}, got)
}

func TestImportCSV_CapsAtMax(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("word")
		b.WriteByte(byte('a' + i))
		b.WriteByte('\n')
	}
	got, err := ImportCSV(strings.NewReader(b.String()), 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestImportCSV_SkipsOversizedWords(t *testing.T) {
	in := strings.NewReader(strings.Repeat("x", 200) + "\nsol\n")
	got, err := ImportCSV(in, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"sol"}, got)
}

func TestImportCSV_Empty(t *testing.T) {
	_, err := ImportCSV(strings.NewReader(""), 50)
	require.ErrorIs(t, err, ErrNoWords)

	_, err = ImportCSV(strings.NewReader("\n\n  \n"), 50)
	require.ErrorIs(t, err, ErrNoWords)
}
