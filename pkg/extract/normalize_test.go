package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTemplated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		next  int
		want  string
	}{
		{
			name:  "backticks become quotes and quoted table is unwrapped",
			input: "SELECT * FROM `users`",
			next:  1,
			want:  "SELECT * FROM users",
		},
		{
			name:  "colons removed",
			input: "SELECT * FROM t WHERE id = :id",
			next:  1,
			want:  "SELECT * FROM t WHERE id = id",
		},
		{
			name:  "shared counter",
			input: "SELECT * FROM t WHERE a = {$a} AND b = $b->c AND c = %d AND d = %s",
			next:  1,
			want:  "SELECT * FROM t WHERE a = placeholder1 AND b = placeholder2 AND c = placeholder_digit3 AND d = 'placeholder_string4'",
		},
		{
			name:  "quoted string verb is not quoted twice",
			input: "SELECT * FROM t WHERE name = '%s' AND id = %d",
			next:  1,
			want:  "SELECT * FROM t WHERE name = 'placeholder_string1' AND id = placeholder_digit2",
		},
		{
			name:  "double quoted string verb",
			input: `SELECT * FROM t WHERE a = "%s" AND b = '%s"`,
			next:  3,
			want:  `SELECT * FROM t WHERE a = "placeholder_string3" AND b = ''placeholder_string4'"`,
		},
		{
			name:  "counter continues after reconstruction",
			input: "UPDATE tbl1 SET a = placeholder1 WHERE id = $row['id']",
			next:  2,
			want:  "UPDATE tbl1 SET a = placeholder1 WHERE id = placeholder2",
		},
		{
			name:  "quoted table after insert into",
			input: `INSERT INTO "logs" VALUES (1)`,
			next:  1,
			want:  "INSERT INTO logs VALUES (1)",
		},
		{
			name:  "quoted value is kept",
			input: "SELECT * FROM t WHERE name = 'bob'",
			next:  1,
			want:  "SELECT * FROM t WHERE name = 'bob'",
		},
		{
			name:  "mismatched quotes are kept",
			input: `SELECT * FROM 'users"`,
			next:  1,
			want:  `SELECT * FROM 'users"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTemplated(tt.input, tt.next))
		})
	}
}

func TestEndsWithTableKeyword(t *testing.T) {
	assert.True(t, endsWithTableKeyword("SELECT * FROM "))
	assert.True(t, endsWithTableKeyword("select * from"))
	assert.True(t, endsWithTableKeyword("CREATE TABLE  IF NOT\tEXISTS "))
	assert.True(t, endsWithTableKeyword("a LEFT JOIN "))
	assert.False(t, endsWithTableKeyword("SELECT fromage "))
	assert.False(t, endsWithTableKeyword("WHERE id = "))
}
