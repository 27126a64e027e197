package sqlang

import (
	"regexp"
	"strings"
)

// Text-level derivation of names and clauses. The grammar's node shapes for
// these details differ across platforms, so anything an adaptation rule may
// need to re-derive comes from the statement text, not the tree.

const identPattern = `"[^"]+"` + "|`[^`]+`" + `|\[[^\]]+\]|[A-Za-z_][A-Za-z0-9_$.]*`

var (
	reRoutineName = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+REPLACE\s+)?(?:FUNCTION|PROCEDURE)\s+(` + identPattern + `)`)
	reTriggerName = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMPORARY\s+)?TRIGGER\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + identPattern + `)`)
	reViewStmt    = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+REPLACE\s+)?(?:MATERIALIZED\s+)?VIEW\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + identPattern + `)\s+AS\b`)

	reProcedureHead = regexp.MustCompile(`(?is)\A\s*CREATE\s+(?:OR\s+REPLACE\s+)?PROCEDURE\b`)
	reUniqueIndex   = regexp.MustCompile(`(?is)\bCREATE\s+UNIQUE\s+INDEX\b`)

	reTriggerTiming = regexp.MustCompile(`(?i)\b(BEFORE|AFTER|INSTEAD\s+OF)\b`)
	reTriggerEvent  = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE)\b`)
	reOnTable       = regexp.MustCompile(`(?is)\bON\s+(` + identPattern + `)`)
)

// bareKeywords are the keyword tokens broken grammar revisions emit in place
// of the declared object name.
var bareKeywords = map[string]bool{
	"CREATE":    true,
	"FUNCTION":  true,
	"PROCEDURE": true,
	"RETURNS":   true,
	"TABLE":     true,
	"TRIGGER":   true,
	"VIEW":      true,
	"INDEX":     true,
}

// IsBareKeyword reports whether name is a keyword token rather than a real
// object name. Exact match only: a genuinely quoted lowercase "function"
// stays untouched.
func IsBareKeyword(name string) bool {
	return bareKeywords[name]
}

// UnquoteIdent strips one layer of identifier quoting and surrounding space.
func UnquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		case s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}

// RoutineNameFromText derives the declared name of a CREATE FUNCTION or
// CREATE PROCEDURE statement. Empty when underivable.
func RoutineNameFromText(text string) string {
	m := reRoutineName.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return UnquoteIdent(m[1])
}

// TriggerNameFromText derives the declared name of a CREATE TRIGGER
// statement. Empty when underivable.
func TriggerNameFromText(text string) string {
	m := reTriggerName.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return UnquoteIdent(m[1])
}

// ViewNameFromText derives the declared name of a CREATE VIEW statement.
// Empty when underivable.
func ViewNameFromText(text string) string {
	m := reViewStmt.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return UnquoteIdent(m[1])
}

func isProcedureText(text string) bool {
	return reProcedureHead.MatchString(text)
}

// TriggerClausesFromText derives (timing, event, table) from a CREATE
// TRIGGER statement: BEFORE/AFTER/INSTEAD OF, the first event keyword after
// the timing, and the table named by the ON clause after the event. Missing
// clauses come back empty.
func TriggerClausesFromText(text string) (timing, event, table string) {
	rest := text
	if loc := reTriggerTiming.FindStringIndex(rest); loc != nil {
		timing = normalizeKeyword(rest[loc[0]:loc[1]])
		rest = rest[loc[1]:]
	}
	if loc := reTriggerEvent.FindStringIndex(rest); loc != nil {
		event = normalizeKeyword(rest[loc[0]:loc[1]])
		rest = rest[loc[1]:]
	}
	if m := reOnTable.FindStringSubmatch(rest); m != nil {
		table = UnquoteIdent(m[1])
	}
	return timing, event, table
}

func indexClausesFromText(text string) (table string, unique bool) {
	if m := reOnTable.FindStringSubmatch(text); m != nil {
		table = UnquoteIdent(m[1])
	}
	return table, reUniqueIndex.MatchString(text)
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// ParamsFromText returns the parameter declarations inside the first
// top-level parenthesis group, one string per parameter with whitespace
// collapsed. Nil when the statement has no parameter list.
func ParamsFromText(text string) []string {
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return nil
	}
	depth := 0
	end := -1
	for i := open; i < len(text) && end < 0; i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = i
			}
		}
	}
	if end < 0 {
		return nil
	}

	inner := text[open+1 : end]
	var params []string
	depth = 0
	start := 0
	flush := func(stop int) {
		p := strings.Join(strings.Fields(inner[start:stop]), " ")
		if p != "" {
			params = append(params, p)
		}
	}
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(inner))
	return params
}

// ViewStmt is one CREATE VIEW statement located in source text.
type ViewStmt struct {
	Name      string
	StartLine int
	EndLine   int
	RawText   string
}

// FindViewStatements scans source for CREATE VIEW statements. Statements run
// through the terminating semicolon, or to end of source without one. Used
// to rebuild views the tree lost inside parse errors.
func FindViewStatements(source string) []ViewStmt {
	var stmts []ViewStmt
	for _, m := range reViewStmt.FindAllStringSubmatchIndex(source, -1) {
		start := m[0]
		end := strings.IndexByte(source[start:], ';')
		if end < 0 {
			end = len(source)
		} else {
			end = start + end + 1
		}
		stmts = append(stmts, ViewStmt{
			Name:      UnquoteIdent(source[m[2]:m[3]]),
			StartLine: 1 + strings.Count(source[:start], "\n"),
			EndLine:   1 + strings.Count(source[:end], "\n"),
			RawText:   source[start:end],
		})
	}
	return stmts
}
