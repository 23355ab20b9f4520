// Package matching holds the pure string logic behind member suggestions:
// memo normalization and payer-name comparison.
package matching

import (
	"regexp"
	"strings"
	"unicode"
)

// longest phrases first so "ZELLE PAYMENT FROM" wins over "ZELLE"
var memoBoilerplate = []string{
	"ZELLE PAYMENT FROM",
	"ZELLE PAYMENT TO",
	"ZELLE TRANSFER FROM",
	"ZELLE TRANSFER",
	"ZELLE FROM",
	"ZELLE TO",
	"ZELLE",
	"ONLINE TRANSFER FROM",
	"PAYMENT FROM",
	"REF #",
	"REF#",
	"CONF#",
	"MEMO:",
}

// left behind once a trailing date or reference is removed
var danglingWords = map[string]bool{"ON": true, "FOR": true, "REF": true}

var dateTokenRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}(/\d{2,4})?$`)

const memoSeparators = " -:;,.#/*|"

// NormalizeMemo reduces a statement description to the key stored in
// ZelleMemoMatch. It returns "" when nothing meaningful is left.
func NormalizeMemo(description string) string {
	s := " " + strings.ToUpper(description) + " "
	for _, phrase := range memoBoilerplate {
		s = strings.ReplaceAll(s, " "+phrase+" ", " ")
	}

	var kept []string
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, memoSeparators)
		if tok == "" || isReferenceToken(tok) || dateTokenRe.MatchString(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	for len(kept) > 0 && danglingWords[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}
	return strings.Trim(strings.Join(kept, " "), memoSeparators)
}

func isReferenceToken(tok string) bool {
	return len(tok) >= 6 && strings.IndexFunc(tok, unicode.IsDigit) >= 0
}
