package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionMethod_IsValid(t *testing.T) {
	assert.True(t, ExtractionStructural.IsValid())
	assert.True(t, ExtractionOptical.IsValid())
	assert.False(t, ExtractionMethod("vision").IsValid())
	assert.False(t, ExtractionMethod("").IsValid())
}

func TestDocument_Failed(t *testing.T) {
	doc := Document{
		ID: "fluidos_1",
		Pages: []Page{
			{DocumentID: "fluidos_1", Number: 1, RawText: "ok"},
			{DocumentID: "fluidos_1", Number: 2, Error: "render failed"},
			{DocumentID: "fluidos_1", Number: 3, RawText: "ok"},
		},
	}

	assert.Equal(t, 3, doc.PageCount())
	failed := doc.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Number)
}

func TestPage_Text(t *testing.T) {
	assert.Equal(t, "raw", Page{RawText: "raw"}.Text())
	assert.Equal(t, "clean", Page{RawText: "raw", SanitizedText: "clean"}.Text())
	assert.Equal(t, "", Page{RawText: "boilerplate", Cleaned: true}.Text())
}

func TestPage_Key(t *testing.T) {
	key := Page{DocumentID: "fluidos_7", Number: 4}.Key()
	assert.Equal(t, PageKey{DocumentID: "fluidos_7", Page: 4}, key)
	assert.Equal(t, "fluidos_7#4", key.String())
}

func TestDocumentIDFromPath(t *testing.T) {
	assert.Equal(t, "fluidos_12", DocumentIDFromPath("/data/raw/fluidos_12.pdf"))
	assert.Equal(t, "manual", DocumentIDFromPath("manual.PDF"))
	assert.Equal(t, "noext", DocumentIDFromPath("noext"))
}

func TestFileID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"identifier", "fluidos_12", 12, false},
		{"artifact filename", "fluidos_12_pag3_resultado.json", 12, false},
		{"with directory", "/out/fluidos_9/fluidos_9_pag1_resultado.json", 9, false},
		{"extension on segment", "fluidos_5.pdf", 5, false},
		{"no underscore", "fluidos", 0, true},
		{"non numeric", "fluidos_abc_pag1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
