package token

import (
	"strings"

	"github.com/xirelogy/go-pseudo/internal/value"
)

// Type identifies the category of a token.
type Type string

// Token carries the lexical item along with its source position.
// Value holds the literal for Integer, Real, String, Char, Boolean and Date
// tokens and is Unbound otherwise.
type Token struct {
	Type    Type
	Literal string
	Value   value.Value
	Pos     Position
}

// Position describes a byte offset and 1-based line/column.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Type {
	case Ident:
		return string(t.Type) + "(" + t.Literal + ")"
	case Integer, Real, String, Char, Boolean, Date:
		return string(t.Type) + "(" + t.Value.String() + ")"
	default:
		return string(t.Type)
	}
}

const (
	EOF     Type = "EOF"
	Newline Type = "NEWLINE"

	// identifiers and literals
	Ident   Type = "IDENT"
	Integer Type = "INTEGER_LIT"
	Real    Type = "REAL_LIT"
	String  Type = "STRING_LIT"
	Char    Type = "CHAR_LIT"
	Boolean Type = "BOOLEAN_LIT"
	Date    Type = "DATE_LIT"

	// declarations and types
	Declare   Type = "DECLARE"
	Constant  Type = "CONSTANT"
	IntegerT  Type = "INTEGER"
	RealT     Type = "REAL"
	BooleanT  Type = "BOOLEAN"
	CharT     Type = "CHAR"
	StringT   Type = "STRING"
	DateT     Type = "DATE"
	Array     Type = "ARRAY"
	Of        Type = "OF"
	TypeKw    Type = "TYPE"
	EndType   Type = "ENDTYPE"
	Case      Type = "CASE"
	Otherwise Type = "OTHERWISE"
	EndCase   Type = "ENDCASE"

	// control flow
	If           Type = "IF"
	Then         Type = "THEN"
	Else         Type = "ELSE"
	EndIf        Type = "ENDIF"
	While        Type = "WHILE"
	Do           Type = "DO"
	EndWhile     Type = "ENDWHILE"
	Repeat       Type = "REPEAT"
	Until        Type = "UNTIL"
	For          Type = "FOR"
	To           Type = "TO"
	Step         Type = "STEP"
	Next         Type = "NEXT"
	Break        Type = "BREAK"
	Continue     Type = "CONTINUE"
	Procedure    Type = "PROCEDURE"
	EndProcedure Type = "ENDPROCEDURE"
	Call         Type = "CALL"
	Function     Type = "FUNCTION"
	Returns      Type = "RETURNS"
	Return       Type = "RETURN"
	EndFunction  Type = "ENDFUNCTION"
	ByRef        Type = "BYREF"
	ByVal        Type = "BYVAL"

	// input/output
	Output    Type = "OUTPUT"
	Input     Type = "INPUT"
	OpenFile  Type = "OPENFILE"
	ReadFile  Type = "READFILE"
	WriteFile Type = "WRITEFILE"
	CloseFile Type = "CLOSEFILE"
	Read      Type = "READ"
	Write     Type = "WRITE"
	Append    Type = "APPEND"
	Random    Type = "RANDOM"
	Seek      Type = "SEEK"
	GetRecord Type = "GETRECORD"
	PutRecord Type = "PUTRECORD"

	// word operators
	And Type = "AND"
	Or  Type = "OR"
	Not Type = "NOT"
	Div Type = "DIV"
	Mod Type = "MOD"

	// builtins
	Mid        Type = "MID"
	Reverse    Type = "REVERSE"
	Length     Type = "LENGTH"
	Sin        Type = "SIN"
	Cos        Type = "COS"
	Tan        Type = "TAN"
	Sqrt       Type = "SQRT"
	Abs        Type = "ABS"
	IntCast    Type = "INTEGER_CAST"
	RealCast   Type = "REAL_CAST"
	StringCast Type = "STRING_CAST"
	RandomInt  Type = "RANDOM_INTEGER"
	RandomReal Type = "RANDOM_REAL"
	System     Type = "SYSTEM"

	// operators
	Assign       Type = "ASSIGN"       // <-
	Plus         Type = "PLUS"         // +
	Minus        Type = "MINUS"        // -
	Star         Type = "STAR"         // *
	Slash        Type = "SLASH"        // /
	Ampersand    Type = "AMPERSAND"    // &
	Equal        Type = "EQUAL"        // =
	NotEqual     Type = "NOTEQUAL"     // <>
	Less         Type = "LESS"         // <
	LessEqual    Type = "LESSEQUAL"    // <=
	Greater      Type = "GREATER"      // >
	GreaterEqual Type = "GREATEREQUAL" // >=
	Caret        Type = "CARET"        // ^

	// delimiters
	Comma    Type = "COMMA"
	Colon    Type = "COLON"
	Period   Type = "PERIOD"
	LParen   Type = "LPAREN"
	RParen   Type = "RPAREN"
	LBracket Type = "LBRACKET"
	RBracket Type = "RBRACKET"
)

var keywords = map[string]Type{
	"DECLARE":        Declare,
	"CONSTANT":       Constant,
	"CASE":           Case,
	"OF":             Of,
	"OTHERWISE":      Otherwise,
	"ENDCASE":        EndCase,
	"INTEGER":        IntegerT,
	"REAL":           RealT,
	"BOOLEAN":        BooleanT,
	"CHAR":           CharT,
	"STRING":         StringT,
	"DATE":           DateT,
	"DIV":            Div,
	"MOD":            Mod,
	"TYPE":           TypeKw,
	"ENDTYPE":        EndType,
	"FOR":            For,
	"TO":             To,
	"STEP":           Step,
	"NEXT":           Next,
	"IF":             If,
	"THEN":           Then,
	"ELSE":           Else,
	"ENDIF":          EndIf,
	"WHILE":          While,
	"DO":             Do,
	"ENDWHILE":       EndWhile,
	"ARRAY":          Array,
	"REPEAT":         Repeat,
	"UNTIL":          Until,
	"BREAK":          Break,
	"CONTINUE":       Continue,
	"PROCEDURE":      Procedure,
	"BYREF":          ByRef,
	"BYVAL":          ByVal,
	"ENDPROCEDURE":   EndProcedure,
	"CALL":           Call,
	"FUNCTION":       Function,
	"RETURNS":        Returns,
	"RETURN":         Return,
	"ENDFUNCTION":    EndFunction,
	"OUTPUT":         Output,
	"PRINT":          Output,
	"INPUT":          Input,
	"OPENFILE":       OpenFile,
	"READFILE":       ReadFile,
	"WRITEFILE":      WriteFile,
	"CLOSEFILE":      CloseFile,
	"READ":           Read,
	"WRITE":          Write,
	"APPEND":         Append,
	"RANDOM":         Random,
	"SEEK":           Seek,
	"GETRECORD":      GetRecord,
	"PUTRECORD":      PutRecord,
	"AND":            And,
	"OR":             Or,
	"NOT":            Not,
	"MID":            Mid,
	"REVERSE":        Reverse,
	"LENGTH":         Length,
	"SIN":            Sin,
	"COS":            Cos,
	"TAN":            Tan,
	"SQRT":           Sqrt,
	"ABS":            Abs,
	"INTCAST":        IntCast,
	"INTEGER_CAST":   IntCast,
	"REALCAST":       RealCast,
	"REAL_CAST":      RealCast,
	"STRINGCAST":     StringCast,
	"STRING_CAST":    StringCast,
	"RANDOM_INTEGER": RandomInt,
	"RANDOM_REAL":    RandomReal,
	"SYSTEM":         System,
}

// CaseMode selects how keywords are matched against words.
type CaseMode int

const (
	// UpperCase accepts keywords written in upper case only.
	UpperCase CaseMode = iota
	// LowerCase accepts keywords written in lower case only.
	LowerCase
	// AnyCase accepts keywords in any mix of cases.
	AnyCase
)

// ParseCase converts a configuration string into a CaseMode.
func ParseCase(s string) (CaseMode, bool) {
	switch strings.ToLower(s) {
	case "", "upper":
		return UpperCase, true
	case "lower":
		return LowerCase, true
	case "any":
		return AnyCase, true
	default:
		return UpperCase, false
	}
}

// LookupIdent returns the keyword token type or Ident. TRUE and FALSE map
// to Boolean.
func LookupIdent(ident string, c CaseMode) Type {
	word := ident
	switch c {
	case UpperCase:
		if ident != strings.ToUpper(ident) {
			return Ident
		}
	case LowerCase:
		if ident != strings.ToLower(ident) {
			return Ident
		}
		word = strings.ToUpper(ident)
	case AnyCase:
		word = strings.ToUpper(ident)
	}
	if word == "TRUE" || word == "FALSE" {
		return Boolean
	}
	if tok, ok := keywords[word]; ok {
		return tok
	}
	return Ident
}

// IsKeyword reports whether t is a reserved word category.
func IsKeyword(t Type) bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}
