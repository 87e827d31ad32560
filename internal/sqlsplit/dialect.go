package sqlsplit

// Dialect describes the lexical rules the splitter needs: how comments open
// and close, how literals are quoted, and which syntax extensions apply.
// Keeping the rules here lets another database's syntax be swapped in
// without touching callers.
type Dialect struct {
	Name string

	// LineComments are markers that open a comment running to end of line.
	LineComments []string

	// BlockCommentStart and BlockCommentEnd delimit block comments.
	// NestedComments allows block comments to nest, as PostgreSQL does.
	BlockCommentStart string
	BlockCommentEnd   string
	NestedComments    bool

	// StringQuote and IdentQuote open string and identifier literals.
	// A doubled quote inside a literal is an escaped quote, not a close.
	StringQuote rune
	IdentQuote  rune

	// EscapePrefix marks string literals (E'...') in which backslash
	// escapes apply. Zero disables the rule.
	EscapePrefix rune

	// DollarQuotes enables $tag$ ... $tag$ string literals.
	DollarQuotes bool
}

// Postgres covers PostgreSQL lexical syntax: nested block comments,
// standard-conforming strings with '' doubling, E'...' escape strings,
// quoted identifiers, and dollar quoting.
var Postgres = Dialect{ //nolint:gochecknoglobals // immutable dialect descriptor
	Name:              "postgres",
	LineComments:      []string{"--"},
	BlockCommentStart: "/*",
	BlockCommentEnd:   "*/",
	NestedComments:    true,
	StringQuote:       '\'',
	IdentQuote:        '"',
	EscapePrefix:      'E',
	DollarQuotes:      true,
}

// ANSI covers the plain SQL-92 subset: unnested block comments and doubled
// quotes only.
var ANSI = Dialect{ //nolint:gochecknoglobals // immutable dialect descriptor
	Name:              "ansi",
	LineComments:      []string{"--"},
	BlockCommentStart: "/*",
	BlockCommentEnd:   "*/",
	StringQuote:       '\'',
	IdentQuote:        '"',
}
