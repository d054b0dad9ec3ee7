package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/cnsform/cns"
	"go.jacobcolvin.com/cnsform/stringtest"
)

var input = stringtest.JoinLF(
	`{!accesslevel easy "Easy"}`,
	`{!accesslevel expert "Expert"}`,
	`{* A *}`,
	`{===>} a=1;`,
	``,
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), errOut.String(), err
}

func TestJSON(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, input, "json")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.JSONEq(t, `[
		[{"name": "easy", "label": "Easy"}, {"name": "expert", "label": "Expert"}],
		[{
			"kind": "parameter",
			"name": "a",
			"label": "A",
			"value": "1",
			"type": "integer",
			"allowed_levels": ["easy", "expert"],
			"hidden": false
		}]
	]`, out)

	tidy, _, err := execute(t, input, "json", "--tidy")
	require.NoError(t, err)
	assert.JSONEq(t, out, tidy)
	assert.Contains(t, tidy, "\n    ")
}

func TestJSONSeparateOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "run.cns")
	levels := filepath.Join(dir, "levels.json")
	model := filepath.Join(dir, "model.json")

	require.NoError(t, os.WriteFile(src, []byte(input), 0o644))

	out, _, err := execute(t, "", "json", src, "-l", levels, "-o", model)
	require.NoError(t, err)
	assert.Empty(t, out)

	got, err := os.ReadFile(levels)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "easy", "label": "Easy"}, {"name": "expert", "label": "Expert"}]`, string(got))

	got, err = os.ReadFile(model)
	require.NoError(t, err)

	var components []map[string]any

	require.NoError(t, json.Unmarshal(got, &components))
	require.Len(t, components, 1)
	assert.Equal(t, "a", components[0]["name"])
}

func TestYAML(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, input, "yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Equal(t, 2, strings.Count(out, "---\n"))
	assert.Contains(t, out, "name: easy")
	assert.Contains(t, out, "kind: parameter")
	assert.Contains(t, out, "allowed_levels:")
}

func TestSchema(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, input, "schema", "--strict", "--title", "Run", "--level", "easy")
	require.NoError(t, err)

	var got map[string]any

	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Run", got["title"])
	assert.Equal(t, false, got["additionalProperties"])
	assert.Contains(t, got["properties"], "a")
}

func TestRender(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		files map[string]string
		args  []string
		want  string
	}{
		"job directory defaults": {
			files: map[string]string{"formdata.json": `{"a": 5}`},
			want:  "{* A *}\n{===>} a=5;\n",
		},
		"toml form data": {
			files: map[string]string{"values.toml": "a = 7\n"},
			args:  []string{"-i", "values.toml"},
			want:  "{* A *}\n{===>} a=7;\n",
		},
		"explicit format": {
			files: map[string]string{"values.txt": "a: 9\n"},
			args:  []string{"-i", "values.txt", "--values-format", "yaml"},
			want:  "{* A *}\n{===>} a=9;\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			tc.files["template.cns"] = "{* A *}\n{===>} a=1;\n"

			for file, content := range tc.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
			}

			args := []string{"render", dir}

			for _, arg := range tc.args {
				if strings.Contains(arg, ".") {
					arg = filepath.Join(dir, arg)
				}

				args = append(args, arg)
			}

			out, _, err := execute(t, "", args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestRenderOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpl := filepath.Join(dir, "run.cns")
	values := filepath.Join(dir, "values.yaml")
	output := filepath.Join(dir, "out.cns")

	require.NoError(t, os.WriteFile(tmpl, []byte(input), 0o644))
	require.NoError(t, os.WriteFile(values, []byte("a: 2\n"), 0o644))

	_, _, err := execute(t, "", "render", "-t", tmpl, "-i", values, "-o", output)
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(input, "a=1;", "a=2;", 1), string(got))
}

func TestRenderMissingInput(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "render", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, cns.ErrReadInput)
}

func TestDump(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, input, "dump", "-v")
	require.NoError(t, err)
	assert.Equal(t, "#1 (integer) a = \"1\" [easy, expert]\n", out)

	model, _, err := execute(t, input, "json")
	require.NoError(t, err)

	out, _, err = execute(t, model, "dump")
	require.NoError(t, err)
	assert.Equal(t, "#1 (integer) a = \"1\"\n", out)

	_, _, err = execute(t, `[{"kind": 3}]`, "dump")
	require.ErrorIs(t, err, errInvalidModel)
}

func TestWarnings(t *testing.T) {
	t.Parallel()

	unlabeled := "{===>} a=1;\n"

	_, errOut, err := execute(t, unlabeled, "json", "-w", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "parameter is not labeled")
	assert.Contains(t, errOut, `"kind":"unlabeled-parameter"`)

	_, errOut, err = execute(t, unlabeled, "json", "--log-format", "json")
	require.NoError(t, err)
	assert.Empty(t, errOut)

	_, _, err = execute(t, unlabeled, "json", "-W")
	require.ErrorIs(t, err, cns.ErrFatalWarning)
}

func TestInvalidFlags(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, input, "json", "--log-level", "loud")
	require.Error(t, err)

	_, _, err = execute(t, "", "render", t.TempDir(), "--values-format", "ini")
	require.ErrorIs(t, err, cns.ErrInvalidOption)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "cns version")
}
