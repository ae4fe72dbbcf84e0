package catalog

import (
	"strconv"
	"strings"
)

// tokensSQL builds the word-split fallback query: any token matching either
// field as a substring, OR-ed across all tokens. Tokens are bound as
// positional args, never interpolated.
func tokensSQL(tokens []string, limit, offset int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
SELECT DISTINCT ON (f.name, f.description)
    f.id::text AS id,
    f.name,
    COALESCE(f.description, '') AS description,
    COALESCE(f.image_url, '') AS image_url
FROM foods f
WHERE `)

	args := make([]any, 0, len(tokens)+2)
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteString("\n    OR ")
		}
		p := "$" + strconv.Itoa(i+1)
		sb.WriteString("f.name ILIKE " + p + " OR COALESCE(f.description, '') ILIKE " + p)
		args = append(args, "%"+tok+"%")
	}

	sb.WriteString("\nORDER BY f.name, f.description")
	sb.WriteString("\nLIMIT $" + strconv.Itoa(len(tokens)+1))
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(tokens)+2))
	args = append(args, limit, offset)

	return sb.String(), args
}
