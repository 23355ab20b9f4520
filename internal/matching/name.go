package matching

import (
	"strings"
	"unicode"

	"github.com/parishworks/parish-ledger/internal/model"
)

// NormalizeName uppercases a person name and drops punctuation other than
// hyphens and apostrophes.
func NormalizeName(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), r == '-', r == '\'':
			return unicode.ToUpper(r)
		case unicode.IsSpace(r), r == ',', r == '.':
			return ' '
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(clean), " ")
}

// NameTokens returns the distinct normalized tokens of a payer name, used to
// narrow the member query before MatchByName runs.
func NameTokens(payer string) []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range strings.Fields(NormalizeName(payer)) {
		if len(tok) < 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// payerForms are the comparable shapes of the payer: as printed, and with
// middle tokens removed.
func payerForms(payer string) []string {
	full := NormalizeName(payer)
	if full == "" {
		return nil
	}
	forms := []string{full}
	toks := strings.Fields(full)
	if len(toks) > 2 {
		forms = append(forms, toks[0]+" "+toks[len(toks)-1])
	}
	return forms
}

// NameVariants lists "FIRST LAST" and "LAST FIRST" for a member. A comma in
// the payer ("LAST, FIRST") normalizes to the second form.
func NameVariants(first, last string) []string {
	f, l := NormalizeName(first), NormalizeName(last)
	switch {
	case f == "" && l == "":
		return nil
	case l == "":
		return []string{f}
	case f == "":
		return []string{l}
	}
	return []string{f + " " + l, l + " " + f}
}

// MatchByName returns the single member whose name matches the payer. No
// match and several matching members both return nil.
func MatchByName(payer string, members []*model.Member) *model.Member {
	forms := payerForms(payer)
	if len(forms) == 0 {
		return nil
	}

	var found *model.Member
	for _, m := range members {
		if !nameMatches(forms, m) {
			continue
		}
		if found != nil && found.ID != m.ID {
			return nil
		}
		found = m
	}
	return found
}

func nameMatches(forms []string, m *model.Member) bool {
	variants := NameVariants(m.FirstName, m.LastName)
	if len(variants) < 2 {
		// a single-name member is too weak a signal
		return false
	}
	for _, form := range forms {
		for _, v := range variants {
			if form == v {
				return true
			}
		}
	}
	return false
}
