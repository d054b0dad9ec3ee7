package cns_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/cnsform/cns"
	"go.jacobcolvin.com/cnsform/stringtest"
)

var moleculesTemplate = stringtest.JoinLF(
	`{== Molecules ==}`,
	`{* Number of molecules *}`,
	`{===>} nmol=2;`,
	``,
	`! #multi-index=N #multi-min=0 #multi-max=3`,
	`{=== Molecule N ===}`,
	`{* PDB file of molecule N *}`,
	`{===>} prot_coor_N="mol_N.pdb";`,
	``,
	`{== Done ==}`,
	`{* Flag *}`,
	`{===>} done=false;`,
	``,
)

func molecule(i string) []string {
	return []string{
		`! #multi-index=N #multi-min=0 #multi-max=3`,
		`{=== Molecule ` + i + ` ===}`,
		`{* PDB file of molecule ` + i + ` *}`,
		`{===>} prot_coor_` + i + `="` + i + `.pdb";`,
		``,
	}
}

func moleculesOutput(nmol string, indices ...string) string {
	lines := []string{
		`{== Molecules ==}`,
		`{* Number of molecules *}`,
		`{===>} nmol=` + nmol + `;`,
		``,
	}

	for _, i := range indices {
		lines = append(lines, molecule(i)...)
	}

	lines = append(lines,
		`{== Done ==}`,
		`{* Flag *}`,
		`{===>} done=true;`,
		``,
	)

	return stringtest.JoinLF(lines...)
}

func TestRenderRepeat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		values cns.Values
		want   string
		err    error
	}{
		"list": {
			values: cns.Values{
				"nmol": 2,
				"done": true,
				"Molecule N": []any{
					map[string]any{"prot_coor_1": "1.pdb"},
					map[string]any{"prot_coor_2": "2.pdb"},
				},
			},
			want: moleculesOutput("2", "1", "2"),
		},
		"nested sections": {
			values: cns.Values{
				"Molecules": map[string]any{
					"nmol": 2,
					"Molecule N": []any{
						map[string]any{"prot_coor_1": "1.pdb"},
						map[string]any{"prot_coor_2": "2.pdb"},
					},
				},
				"Done": map[string]any{"done": true},
			},
			want: moleculesOutput("2", "1", "2"),
		},
		"explicit indices": {
			values: cns.Values{
				"nmol": 2,
				"done": true,
				"Molecule N": map[string]any{
					"3": map[string]any{"prot_coor_3": "3.pdb"},
					"2": map[string]any{"prot_coor_2": "2.pdb"},
				},
			},
			want: moleculesOutput("2", "2", "3"),
		},
		"flat values": {
			values: cns.Values{
				"nmol":        2,
				"done":        true,
				"prot_coor_1": "1.pdb",
				"prot_coor_2": "2.pdb",
			},
			want: moleculesOutput("2", "1", "2"),
		},
		"zero repetitions remove the block": {
			values: cns.Values{
				"nmol":       0,
				"done":       true,
				"Molecule N": []any{},
			},
			want: moleculesOutput("0"),
		},
		"too many repetitions": {
			values: cns.Values{
				"nmol":       4,
				"done":       true,
				"Molecule N": []any{map[string]any{}, map[string]any{}, map[string]any{}, map[string]any{}},
			},
			err: cns.ErrRepetitionOutOfRange,
		},
		"explicit index above the maximum": {
			values: cns.Values{
				"nmol": 1,
				"done": true,
				"Molecule N": map[string]any{
					"5": map[string]any{"prot_coor_5": "5.pdb"},
				},
			},
			err: cns.ErrRepetitionOutOfRange,
		},
		"index that is not a number": {
			values: cns.Values{
				"Molecule N": map[string]any{"first": map[string]any{}},
			},
			err: cns.ErrInvalidValues,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, warnings, err := cns.NewWriter().Render([]byte(moleculesTemplate), tc.values)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, tc.want, string(out))
		})
	}
}

func TestRenderNestedRepeat(t *testing.T) {
	t.Parallel()

	template := stringtest.JoinLF(
		`! #multi-index=N`,
		`{== Molecule N ==}`,
		`! #multi-index=M #multi-max=4`,
		`{* Restraint M of molecule N *}`,
		`{===>} restr_N_M=0;`,
		``,
	)

	values := cns.Values{
		"Molecule N": []any{
			map[string]any{"restr_1_M": []any{1, 2}},
			map[string]any{"restr_2_M": []any{3}},
		},
	}

	out, warnings, err := cns.NewWriter().Render([]byte(template), values)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, stringtest.JoinLF(
		`! #multi-index=N`,
		`{== Molecule 1 ==}`,
		`! #multi-index=M #multi-max=4`,
		`{* Restraint 1 of molecule 1 *}`,
		`{===>} restr_1_1=1;`,
		`! #multi-index=M #multi-max=4`,
		`{* Restraint 2 of molecule 1 *}`,
		`{===>} restr_1_2=2;`,
		`! #multi-index=N`,
		`{== Molecule 2 ==}`,
		`! #multi-index=M #multi-max=4`,
		`{* Restraint 1 of molecule 2 *}`,
		`{===>} restr_2_1=3;`,
		``,
	), string(out))
}

func TestRenderValues(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		template string
		value    any
		want     string
	}{
		"integer": {
			template: `{===>} a=1;`,
			value:    3,
			want:     `{===>} a=3;`,
		},
		"float": {
			template: `{===>} a=1.0;`,
			value:    2.5,
			want:     `{===>} a=2.5;`,
		},
		"large float": {
			template: `{===>} a=1.0;`,
			value:    1e21,
			want:     `{===>} a=1000000000000000000000;`,
		},
		"bool": {
			template: `{===>} a=false;`,
			value:    true,
			want:     `{===>} a=true;`,
		},
		"null": {
			template: `{===>} a=1;`,
			value:    nil,
			want:     `{===>} a=;`,
		},
		"bare value with spaces": {
			template: `{===>} a=x;`,
			value:    "two words",
			want:     `{===>} a=two words;`,
		},
		"bare value with a semicolon": {
			template: `{===>} a=x;`,
			value:    "x;y",
			want:     `{===>} a="x;y";`,
		},
		"bare value with padding": {
			template: `{===>} a=x;`,
			value:    " x",
			want:     `{===>} a=" x";`,
		},
		"quoted value": {
			template: `{===>} a="x";`,
			value:    "two words",
			want:     `{===>} a="two words";`,
		},
		"single quoted value": {
			template: `{===>} a='x'; ! trailing comment`,
			value:    "y;z",
			want:     `{===>} a='y;z'; ! trailing comment`,
		},
		"spacing is kept": {
			template: `   {===>}  a = "x" ;`,
			value:    "y",
			want:     `   {===>}  a = "y" ;`,
		},
		"quoted value containing a double quote": {
			template: `{===>} a="x";`,
			value:    `say "hi"`,
			want:     `{===>} a='say "hi"';`,
		},
		"bare value containing a double quote": {
			template: `{===>} a=x;`,
			value:    `say "hi"`,
			want:     `{===>} a='say "hi"';`,
		},
		"single quoted value containing a single quote": {
			template: `{===>} a='x'; ! trailing comment`,
			value:    "it's",
			want:     `{===>} a="it's"; ! trailing comment`,
		},
		"bare value containing a single quote": {
			template: `{===>} a=x;`,
			value:    "it's",
			want:     `{===>} a="it's";`,
		},
		"spacing is kept when the quote changes": {
			template: `   {===>}  a = "x" ;`,
			value:    `a "b"`,
			want:     `   {===>}  a = 'a "b"' ;`,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			template := "{* A *}\n" + tc.template + "\n"

			out, warnings, err := cns.NewWriter().Render([]byte(template), cns.Values{"a": tc.value})
			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, "{* A *}\n"+tc.want+"\n", string(out))

			want, isString := tc.value.(string)
			if !isString {
				return
			}

			m, err := cns.NewParser().Parse(out)
			require.NoError(t, err)
			require.Len(t, m.Components, 1)
			assert.Equal(t, want, m.Components[0].Value)
		})
	}
}

func TestRenderUnquotableValue(t *testing.T) {
	t.Parallel()

	template := "{* A *}\n{===>} a=\"x\";\n"

	out, warnings, err := cns.NewWriter().Render([]byte(template), cns.Values{"a": `it's "x"`})
	require.NoError(t, err)
	assert.Equal(t, template, string(out))

	require.Len(t, warnings, 1)
	assert.Equal(t, cns.WarnValueMismatch, warnings[0].Kind)
	assert.Equal(t, "a", warnings[0].Path)
	assert.Equal(t, 2, warnings[0].Line)
}

func TestRenderMismatch(t *testing.T) {
	t.Parallel()

	template := stringtest.JoinLF(
		`{== Molecules ==}`,
		`{* Number of molecules *}`,
		`{===>} nmol=2;`,
		`{* Name *}`,
		`{===>} name="x";`,
		``,
	)

	out, warnings, err := cns.NewWriter().Render([]byte(template), cns.Values{
		"nmoll": 3,
		"name":  map[string]any{"first": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, template, string(out))

	require.Len(t, warnings, 3)

	for _, w := range warnings {
		assert.Equal(t, cns.WarnValueMismatch, w.Kind)
	}

	assert.Equal(t, "nmol", warnings[0].Path)
	assert.Equal(t, 3, warnings[0].Line)
	assert.Equal(t, "name", warnings[1].Path)
	assert.Contains(t, warnings[1].Message, "scalar")
	assert.Equal(t, "nmoll", warnings[2].Path)
	assert.Contains(t, warnings[2].Message, `did you mean "nmol"?`)

	_, _, err = cns.NewWriter(cns.WithFatalWarnings(true)).Render([]byte(template), cns.Values{"name": "y"})
	require.ErrorIs(t, err, cns.ErrFatalWarning)
}

func TestRenderReproducesTemplate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		template string
	}{
		"lf": {
			template: stringtest.JoinLF(
				`{!accesslevel easy "Easy"}`,
				`{* Intro *}`,
				``,
				`{== A ==}`,
				`! #type=integer`,
				`{* One *}`,
				`{===>} one=1;`,
				`{* Two *}`,
				`{===>} two="b";`,
				`{+ choice: a b +}`,
				`numhis=5;`,
				`{ comment }`,
				``,
			),
		},
		"crlf": {
			template: stringtest.JoinCRLF(`{== A ==}`, `{* One *}`, `{===>} one='x y';`, ``),
		},
		"no trailing newline": {
			template: stringtest.JoinLF(`{* One *}`, `{===>} one=1;`),
		},
		"empty": {
			template: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			w := cns.NewWriter()

			out, warnings, err := w.Render([]byte(tc.template), nil)
			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, tc.template, string(out))

			m, err := cns.NewParser().Parse([]byte(tc.template))
			require.NoError(t, err)

			out, warnings, err = w.RenderModel(m, m.Defaults())
			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, tc.template, string(out))
		})
	}
}

func TestRenderDefaults(t *testing.T) {
	t.Parallel()

	template, err := os.ReadFile(filepath.Join("testdata", "run.cns"))
	require.NoError(t, err)

	m, err := cns.NewParser().Parse(template)
	require.NoError(t, err)

	out, warnings, err := cns.NewWriter().RenderModel(m, m.Defaults())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	want := strings.NewReplacer(
		"Molecule N", "Molecule 1",
		"molecule N", "molecule 1",
		"_N", "_1",
	).Replace(string(template))

	assert.Equal(t, want, string(out))
}
