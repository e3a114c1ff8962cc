package syntax

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// karolLexer tokenizes Karol source. Keywords and block closers are
// matched before identifiers so they can never name a procedure.
var karolLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `\{[^}]*\}`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "End", Pattern: `(?i)(?:\*|ende)(?:programm|anweisung|bedingung|wiederhole|wenn)\b`},
	{Name: "Keyword", Pattern: `(?i)(?:programm|anweisung|bedingung|wiederhole|mal|solange|bis|immer|wenn|dann|sonst|nicht|wahr|falsch)\b`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `[().]`},
})

type gProgram struct {
	Tokens []lexer.Token
	Items  []*gItem `@@*`
}

type gItem struct {
	Tokens     []lexer.Token
	Definition *gDefinition `  @@`
	Main       *gMain       `| @@`
	Statement  *gStatement  `| @@`
}

type gMain struct {
	Tokens []lexer.Token
	Body   []*gStatement `"programm" @@*`
	End    string        `@End`
}

type gDefinition struct {
	Tokens  []lexer.Token
	Keyword string        `@("anweisung" | "bedingung")`
	Name    string        `@Ident`
	Body    []*gStatement `@@*`
	End     string        `@End`
}

type gStatement struct {
	Tokens []lexer.Token
	Repeat *gRepeat `  @@`
	If     *gIf     `| @@`
	Result string   `| @("wahr" | "falsch")`
	Call   *gCall   `| @@`
}

type gRepeat struct {
	Tokens  []lexer.Token
	Times   *gNumber      `"wiederhole" ( @@ "mal"`
	Pre     *gCondExpr    `  | "solange" @@`
	Forever bool          `  | @"immer" )?`
	Body    []*gStatement `@@*`
	End     string        `@End`
	PostKw  string        `( @("solange" | "bis")`
	Post    *gCondExpr    `  @@ )?`
}

type gIf struct {
	Tokens []lexer.Token
	Cond   *gCondExpr    `"wenn" @@ "dann"`
	Then   []*gStatement `@@*`
	Else   []*gStatement `( "sonst" @@* )?`
	End    string        `@End`
}

type gCondExpr struct {
	Tokens []lexer.Token
	Not    *gCondExpr `  "nicht" @@`
	Call   *gCall     `| @@`
}

type gCall struct {
	Tokens []lexer.Token
	Object string `( @Ident "." )?`
	Name   string `@Ident`
	Parens bool   `( @"("`
	Arg    *gArg  `  @@? ")" )?`
}

type gArg struct {
	Tokens []lexer.Token
	Number *gNumber `  @@`
	Color  string   `| @Ident`
}

type gNumber struct {
	Tokens []lexer.Token
	Value  string `@Int`
}

var parserOptions = []participle.Option{
	participle.Lexer(karolLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.CaseInsensitive("End", "Keyword", "Ident"),
	participle.UseLookahead(4),
}

var (
	programParser   = participle.MustBuild[gProgram](parserOptions...)
	conditionParser = participle.MustBuild[gCondExpr](parserOptions...)
)

// skipTokens are the token types never exposed in the tree.
var skipTokens = map[lexer.TokenType]bool{
	karolLexer.Symbols()["Whitespace"]: true,
	karolLexer.Symbols()["Comment"]:    true,
}
