package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.csv")
	content := "\uFEFFarquivo_id,subcategoria,ano,peso_kg,original\n" +
		"12,Fluidos hidráulicos,2019,1.5,true\n" +
		"7,\"Freios, pastilhas\",,0.25,false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := NewSource(path, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, map[string]any{
		"subcategoria": "Fluidos hidráulicos",
		"ano":          2019,
		"peso_kg":      1.5,
		"original":     true,
	}, table[12])
	assert.Equal(t, "Freios, pastilhas", table[7]["subcategoria"])
	assert.NotContains(t, table[7], "ano")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "none.csv"), "").Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParse_CustomIDColumn(t *testing.T) {
	table, err := parse(strings.NewReader("doc,name\n3,manual\n"), "doc")
	require.NoError(t, err)
	assert.Equal(t, "manual", table[3]["name"])
}

func TestParse_MissingIDColumn(t *testing.T) {
	_, err := parse(strings.NewReader("name\nmanual\n"), "arquivo_id")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParse_SkipsBadRows(t *testing.T) {
	table, err := parse(strings.NewReader("arquivo_id,name\nabc,x\n5\n9,ok\n"), "arquivo_id")
	require.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Empty(t, table[5])
	assert.Equal(t, "ok", table[9]["name"])
}

func TestParse_Empty(t *testing.T) {
	table, err := parse(strings.NewReader(""), "arquivo_id")
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestTyped(t *testing.T) {
	tests := []struct {
		in   string
		want any
		ok   bool
	}{
		{in: "42", want: 42, ok: true},
		{in: "4.5", want: 4.5, ok: true},
		{in: "TRUE", want: true, ok: true},
		{in: "texto", want: "texto", ok: true},
		{in: "  ", ok: false},
	}
	for _, tc := range tests {
		got, ok := typed(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
