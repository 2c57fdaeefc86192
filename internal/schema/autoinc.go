package schema

import "strings"

const autoincrementKeyword = "AUTOINCREMENT"

// AutoincrementColumn extracts the name of the autoincrement primary-key
// column from a table's original CREATE TABLE text, or "" if the keyword
// does not occur.
//
// This is deliberately a proximity scan, not a SQL parse: from the keyword
// position it walks back to the nearest preceding comma or opening
// parenthesis (whichever is closer to the keyword) and takes the identifier
// between the nearest quote pair inside that span. The creation text shapes
// this has to match always place exactly one double-quoted identifier
// immediately before the keyword's clause.
func AutoincrementColumn(createSQL string) string {
	pos := strings.Index(createSQL, autoincrementKeyword)
	if pos < 0 {
		return ""
	}

	prefix := createSQL[:pos]
	comma := strings.LastIndex(prefix, ",")
	paren := strings.LastIndex(prefix, "(")

	bound := comma
	if paren > bound {
		bound = paren
	}
	if bound < 0 {
		return ""
	}

	span := prefix[bound+1:]
	open := strings.Index(span, `"`)
	if open < 0 {
		return ""
	}
	closing := strings.Index(span[open+1:], `"`)
	if closing < 0 {
		return ""
	}
	return span[open+1 : open+1+closing]
}
