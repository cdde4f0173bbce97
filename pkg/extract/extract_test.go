package extract_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlmine/pkg/extract"
	"github.com/leapstack-labs/sqlmine/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Dispatch ----------

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want extract.Language
	}{
		{"app/models.py", extract.Python},
		{"APP/MODELS.PY", extract.Python},
		{"src/Main.java", extract.CFamily},
		{"src/db.go", extract.CFamily},
		{"web/index.tsx", extract.CFamily},
		{"Repo.cs", extract.CFamily},
		{"index.php", extract.PHP},
		{"lib/helpers.inc", extract.PHP},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ex, err := extract.ForPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ex.Language())
		})
	}
}

func TestForPathUnsupported(t *testing.T) {
	for _, path := range []string{"README.md", "script.rb", "Makefile"} {
		_, err := extract.ForPath(path)
		require.Error(t, err, path)
		assert.True(t, errors.Is(err, extract.ErrUnsupportedFileType), path)
	}

	_, err := extract.Candidates("script.rb", `db.execute("SELECT 1")`)
	assert.ErrorIs(t, err, extract.ErrUnsupportedFileType)
}

func TestLanguageString(t *testing.T) {
	assert.Equal(t, "python", extract.Python.String())
	assert.Equal(t, "cfamily", extract.CFamily.String())
	assert.Equal(t, "php", extract.PHP.String())
	assert.Equal(t, "Language(9)", extract.Language(9).String())
}

func TestSupported(t *testing.T) {
	exts := extract.Supported()
	assert.Contains(t, exts, ".py")
	assert.Contains(t, exts, ".php")
	assert.IsNonDecreasing(t, exts)
}

// ---------- Python ----------

func TestPythonTokenize(t *testing.T) {
	tokens, err := extract.For(extract.Python).Tokenize(`q = "a" + b # "ignored"`)
	require.NoError(t, err)

	want := []token.Token{
		token.New(token.Identifier, "q", token.Position{Line: 1, Column: 1, SourceIndex: 1}),
		token.New(token.Unknown, "=", token.Position{Line: 1, Column: 3, SourceIndex: 3}),
		token.New(token.StringLiteral, "a", token.Position{Line: 1, Column: 5, SourceIndex: 7}),
		token.New(token.ConcatOperator, "+", token.Position{Line: 1, Column: 9, SourceIndex: 9}),
		token.New(token.Identifier, "b", token.Position{Line: 1, Column: 11, SourceIndex: 11}),
	}
	assert.Equal(t, want, tokens)
}

func TestPythonNewlinesAreWhitespace(t *testing.T) {
	tokens, err := extract.For(extract.Python).Tokenize("a\n\nb")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, 3, tokens[1].Pos.Line)
	assert.Equal(t, 1, tokens[1].Pos.Column)
}

func TestPythonCandidates(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "single literal",
			source: `cur.execute("SELECT 1")`,
			want:   []string{"SELECT 1"},
		},
		{
			name:   "single identifier becomes placeholder and trailing identifier is dropped",
			source: `db.execute("SELECT " + col + " FROM " + tbl)`,
			want:   []string{"SELECT 'placeholder' FROM"},
		},
		{
			name:   "implicit concatenation",
			source: `q = ("SELECT id "  "FROM users")`,
			want:   []string{"SELECT id FROM users"},
		},
		{
			name:   "triple quoted spans lines",
			source: "q = \"\"\"SELECT *\nFROM \"users\" \"\"\"",
			want:   []string{"SELECT *\nFROM \"users\""},
		},
		{
			name:   "raw string kept verbatim",
			source: `q = r"SELECT * FROM t WHERE x ~ '\d'"`,
			want:   []string{`SELECT * FROM t WHERE x ~ '\d'`},
		},
		{
			name:   "prefixed string is decoded",
			source: `q = u'DELETE FROM t WHERE name = \'x\''`,
			want:   []string{"DELETE FROM t WHERE name = 'x'"},
		},
		{
			name:   "comment literal is ignored",
			source: `# cur.execute("SELECT 1 FROM t")`,
			want:   []string{},
		},
		{
			name:   "not sql",
			source: `print("hello world")`,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.Candidates("x.py", tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, got...))
		})
	}
}

func TestPythonMultiIdentifierAbortsExtension(t *testing.T) {
	got, err := extract.Extract("x.py", `q = "SELECT " + a + b + " FROM t"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT ", " FROM t"}, got)
}

// ---------- C family ----------

func TestCFamilyCandidates(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		source string
		want   []string
	}{
		{
			name:   "table and generic placeholders",
			path:   "Repo.java",
			source: `db.execute("SELECT " + col + " FROM " + tbl);`,
			want:   []string{"SELECT placeholder1 FROM tbl1"},
		},
		{
			name:   "counters per candidate",
			path:   "Repo.java",
			source: "a(\"SELECT * FROM \" + t1);\nb(\"DELETE FROM \" + t2 + \" WHERE id = \" + id);",
			want:   []string{"SELECT * FROM tbl1", "DELETE FROM tbl1 WHERE id = placeholder1"},
		},
		{
			name:   "member access and index",
			path:   "Repo.java",
			source: `String q = "SELECT * FROM " + tables[0] + " WHERE x = " + map.get("k");`,
			want:   []string{"SELECT * FROM tbl1 WHERE x = placeholder1"},
		},
		{
			name:   "table if not exists",
			path:   "schema.ts",
			source: "run(\"CREATE TABLE IF NOT EXISTS \" + name + \" (id int)\");",
			want:   []string{"CREATE TABLE IF NOT EXISTS tbl1 (id int)"},
		},
		{
			name:   "newlines fold into the candidate",
			path:   "query.js",
			source: "const q = \"SELECT id \" +\n  \"FROM users \" +\n  \"WHERE id = \" + id;",
			want:   []string{"SELECT id \nFROM users \nWHERE id = placeholder1"},
		},
		{
			name:   "backtick raw string",
			path:   "store.go",
			source: "q := `SELECT name FROM users WHERE id = $1`\n",
			want:   []string{"SELECT name FROM users WHERE id = $1"},
		},
		{
			name:   "verbatim string",
			path:   "Repo.cs",
			source: `var q = @"SELECT a FROM t WHERE p = 'C:\dir'";`,
			want:   []string{`SELECT a FROM t WHERE p = 'C:\dir'`},
		},
		{
			name:   "keyword inside block comment",
			path:   "main.c",
			source: "/* SELECT docs\n more */\nq = \"SELECT 1 FROM t\";",
			want:   []string{"SELECT 1 FROM t"},
		},
		{
			name:   "line comment is skipped",
			path:   "main.c",
			source: "// \"SELECT 1 FROM a\"\nq = \"SELECT 2 FROM b\";",
			want:   []string{"SELECT 2 FROM b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.Candidates(tt.path, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, got...))
		})
	}
}

func TestCFamilyWindowPositionsAreContinuous(t *testing.T) {
	source := "int x = 1;\n\nString q = \"SELECT * FROM t\";"
	tokens, err := extract.For(extract.CFamily).Tokenize(source)
	require.NoError(t, err)

	var str token.Token
	for _, tok := range tokens {
		if tok.Kind == token.StringLiteral {
			str = tok
		}
	}
	require.Equal(t, "SELECT * FROM t", str.Literal)
	assert.Equal(t, token.Position{Line: 3, Column: 12, SourceIndex: 40}, str.Pos)

	// nothing before the keyword line is tokenized
	assert.Equal(t, "String", tokens[0].Literal)
	assert.Equal(t, 3, tokens[0].Pos.Line)
}

func TestCFamilyWithoutKeywordsProducesNoTokens(t *testing.T) {
	tokens, err := extract.For(extract.CFamily).Tokenize(`printf("hello %s", name);`)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestCFamilyNewlineTokens(t *testing.T) {
	tokens, err := extract.For(extract.CFamily).Tokenize("q = \"SELECT 1\" +\n\"FROM t\";")
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.Identifier, token.Unknown, token.StringLiteral, token.ConcatOperator,
		token.Newline, token.StringLiteral, token.Unknown,
	}, kinds)
	assert.Equal(t, 2, tokens[5].Pos.Line)
}

// ---------- PHP ----------

func TestPHPCandidates(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "member access concatenation",
			source: "<?php\n$r = $db->query(\"SELECT name FROM \" . $this->table . \" WHERE id = $id\");",
			want:   []string{"SELECT name FROM tbl1 WHERE id = placeholder1"},
		},
		{
			name:   "interpolation and printf verbs",
			source: "<?php\n$q = sprintf(\"SELECT * FROM `users` WHERE id = {$id} AND age > %d\", $age);",
			want:   []string{"SELECT * FROM users WHERE id = placeholder1 AND age > placeholder_digit2"},
		},
		{
			name:   "quoted string verb",
			source: "<?php\n$q = sprintf(\"SELECT * FROM users WHERE name = '%s'\", $name);",
			want:   []string{"SELECT * FROM users WHERE name = 'placeholder_string1'"},
		},
		{
			name:   "multi-line string",
			source: "<?php\n$q = \"\n  SELECT id\n  FROM users\";",
			want:   []string{"SELECT id\n  FROM users"},
		},
		{
			name:   "heredoc",
			source: "<?php\n$sql = <<<SQL\nSELECT id\nFROM users\nSQL;\n",
			want:   []string{"SELECT id\nFROM users"},
		},
		{
			name:   "hash comment",
			source: "<?php\n# \"SELECT 1 FROM a\"\n$q = 'SELECT 2 FROM b';",
			want:   []string{"SELECT 2 FROM b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.Candidates("page.php", tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, got...))
		})
	}
}

func TestPHPNowdocIsRaw(t *testing.T) {
	tokens, err := extract.For(extract.PHP).Tokenize("<?php\n$sql = <<<'SQL'\nSELECT '\\n' FROM t\nSQL;\n")
	require.NoError(t, err)

	var raw []token.Token
	for _, tok := range tokens {
		if tok.Kind == token.RawStringLiteral {
			raw = append(raw, tok)
		}
	}
	require.Len(t, raw, 1)
	assert.Equal(t, `SELECT '\n' FROM t`, raw[0].Literal)
	assert.Equal(t, 2, raw[0].Pos.Line)
}

// ---------- Errors ----------

func TestUnterminatedString(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		source string
		line   int
		column int
	}{
		{"python", "x.py", "x = 1\nq = \"SELECT 1", 2, 5},
		{"python newline", "x.py", "q = 'SELECT 1\nFROM t'", 1, 5},
		{"python triple", "x.py", "q = '''SELECT 1", 1, 5},
		{"cfamily", "x.c", "q = \"SELECT 1\n;", 1, 5},
		{"php", "x.php", "<?php $q = 'SELECT 1", 1, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract.Extract(tt.path, tt.source)
			require.Error(t, err)

			var perr *extract.ParsingError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.column, perr.Column)
			assert.Equal(t, "unterminated string literal", perr.Message)
			assert.Equal(t, strings.Split(tt.source, "\n")[tt.line-1], perr.LineContent)
		})
	}
}

func TestMalformedEscape(t *testing.T) {
	_, err := extract.Extract("x.py", "q = \"SELECT \\x4\"")
	require.Error(t, err)

	var perr *extract.ParsingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 5, perr.Column)
	assert.Contains(t, perr.Message, "malformed escape sequence")
	assert.Equal(t, "q = \"SELECT \\x4\"", perr.LineContent)
	assert.Contains(t, perr.Error(), "line 1, column 5")
}

func TestUnrecognizedInputIsNotAnError(t *testing.T) {
	sources := map[string]string{
		"x.py":  "@@ ~~ ^^ \x00 \\ ; SELECT",
		"x.c":   "SELECT @ ^ ~ \\ \x01 #",
		"x.php": "SELECT <<< ?? <<<'X' ::",
	}
	for path, src := range sources {
		_, err := extract.Extract(path, src)
		assert.NoError(t, err, path)
	}
}

func FuzzCandidates(f *testing.F) {
	f.Add("x.py", `cur.execute("SELECT * FROM " + table + " WHERE id = " + str(i))`)
	f.Add("x.py", "q = '''SELECT\n1'''  # \"unterminated")
	f.Add("x.java", `String q = "SELECT * FROM " + t + " WHERE a = " + a; /* DELETE */`)
	f.Add("x.go", "db.Query(`SELECT 1`, \"UPDATE t SET a = \\\"x\\\"\")")
	f.Add("x.cs", `var q = @"SELECT ""a"" FROM t"; {`)
	f.Add("x.php", "<?php $q = sprintf(\"SELECT * FROM `t` WHERE n = '%s'\", $n) . $x->y;")
	f.Add("x.php", "<?php $sql = <<<SQL\nSELECT 1\nSQL;")

	f.Fuzz(func(t *testing.T, path, source string) {
		if _, ok := extract.LanguageOf(path); !ok {
			return
		}
		_, err := extract.Candidates(path, source)
		if err == nil {
			return
		}
		var perr *extract.ParsingError
		if !errors.As(err, &perr) {
			t.Fatalf("Candidates(%q) returned %T: %v", path, err, err)
		}
	})
}
