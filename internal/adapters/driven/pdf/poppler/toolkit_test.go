package poppler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	outputs map[string][]byte
	err     error
	calls   []call
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, call{name: name, args: args})
	if m.err != nil {
		return nil, m.err
	}
	return m.outputs[name], nil
}

func samplePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fluidos_12.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return path
}

func TestPageCount(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		pdfinfo: []byte("Title:          Manual\nProducer:       x\nPages:          3\nEncrypted:      no\n"),
	}}
	tk := NewWithRunner(runner, 0)

	n, err := tk.PageCount(context.Background(), samplePDF(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, pdfinfo, runner.calls[0].name)
}

func TestPageCount_MissingFile(t *testing.T) {
	runner := &mockRunner{}
	_, err := NewWithRunner(runner, 0).PageCount(context.Background(), "/nonexistent/x.pdf")
	assert.Error(t, err)
	assert.Empty(t, runner.calls)
}

func TestPageCount_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("Syntax Error: Couldn't find trailer dictionary")}
	_, err := NewWithRunner(runner, 0).PageCount(context.Background(), samplePDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdfinfo failed")
}

func TestParsePageCount(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{name: "present", out: "Pages: 12\n", want: 12},
		{name: "missing", out: "Title: x\n", wantErr: true},
		{name: "garbage", out: "Pages: many\n", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := parsePageCount([]byte(tc.out))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestExtractText(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{pdftotext: []byte("Torque 45 Nm\n\f")}}
	tk := NewWithRunner(runner, 0)

	text, err := tk.ExtractText(context.Background(), "/m.pdf", 2)
	require.NoError(t, err)
	assert.Equal(t, "Torque 45 Nm\n", text)

	args := strings.Join(runner.calls[0].args, " ")
	assert.Contains(t, args, "-f 2 -l 2")
	assert.True(t, strings.HasSuffix(args, "/m.pdf -"))
}

func TestExtractText_Error(t *testing.T) {
	runner := &mockRunner{err: errors.New("crashed")}
	_, err := NewWithRunner(runner, 0).ExtractText(context.Background(), "/m.pdf", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestRenderPage(t *testing.T) {
	runner := &mockRunner{}
	tk := NewWithRunner(runner, 200)
	out := filepath.Join(t.TempDir(), "fluidos_12", "fluidos_12_pag3.jpg")

	require.NoError(t, tk.RenderPage(context.Background(), "/m.pdf", 3, out))
	assert.DirExists(t, filepath.Dir(out))

	c := runner.calls[0]
	assert.Equal(t, pdftoppm, c.name)
	assert.Equal(t, []string{"-jpeg", "-r", "200", "-f", "3", "-l", "3", "-singlefile", "/m.pdf",
		strings.TrimSuffix(out, ".jpg")}, c.args)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
