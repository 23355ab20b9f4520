package bankcsv

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var (
	zelleFromRe   = regexp.MustCompile(`(?i)\bzelle\s+(?:payment\s+)?from\s+(.+)$`)
	achOrigRe     = regexp.MustCompile(`(?i)ORIG CO NAME:\s*(.+?)\s+ORIG ID`)
	achIndNameRe  = regexp.MustCompile(`(?i)IND NAME:\s*(.+?)(?:\s+TRN:|$)`)
	achTraceRe    = regexp.MustCompile(`(?i)TRACE#:\s*(\S+)`)
	achWordRe     = regexp.MustCompile(`(?i)\bACH\b`)
	checkNumberRe = regexp.MustCompile(`(?i)\bCHECK\s*#?\s*(\d{1,10})\b`)
)

// words that end the payer segment of a Zelle description
var zelleStopWords = map[string]bool{
	"ON": true, "REF": true, "REF#": true, "CONF": true, "CONF#": true, "MEMO": true, "MEMO:": true, "FOR": true,
}

// DeriveType labels a statement line from its sign and description.
func DeriveType(amount decimal.Decimal, description string, checkNumber *string) model.BankTransactionType {
	desc := strings.ToUpper(description)
	switch {
	case amount.IsZero():
		return model.BankTypeUnknown
	case strings.Contains(desc, "ZELLE"):
		return model.BankTypeZelle
	case amount.IsNegative() && (strings.Contains(desc, "CHECK") || checkNumber != nil):
		return model.BankTypeCheck
	case achWordRe.MatchString(desc) || strings.Contains(desc, "ORIG CO NAME"):
		return model.BankTypeACH
	case amount.IsPositive():
		return model.BankTypeDeposit
	default:
		return model.BankTypeWithdrawal
	}
}

// ExtractPayer pulls the payer name and upstream reference out of Zelle and
// ACH descriptions. Unrecognised descriptions yield nils.
func ExtractPayer(description string) (payer *string, ref *string) {
	if m := zelleFromRe.FindStringSubmatch(description); m != nil {
		var name []string
		for _, tok := range strings.Fields(m[1]) {
			if zelleStopWords[strings.ToUpper(tok)] {
				break
			}
			if hasDigit(tok) {
				if ref == nil && len(tok) >= 6 {
					ref = strPtr(strings.Trim(tok, "#:;,."))
				}
				break
			}
			name = append(name, tok)
		}
		if ref == nil {
			ref = trailingRef(m[1])
		}
		if len(name) > 0 {
			payer = strPtr(strings.Join(name, " "))
		}
		return payer, ref
	}

	if m := achOrigRe.FindStringSubmatch(description); m != nil {
		payer = strPtr(strings.TrimSpace(m[1]))
	} else if m := achIndNameRe.FindStringSubmatch(description); m != nil {
		payer = strPtr(strings.TrimSpace(m[1]))
	}
	if m := achTraceRe.FindStringSubmatch(description); m != nil {
		ref = strPtr(m[1])
	}
	if payer != nil && *payer == "" {
		payer = nil
	}
	return payer, ref
}

func trailingRef(segment string) *string {
	toks := strings.Fields(segment)
	for i := len(toks) - 1; i >= 0; i-- {
		tok := strings.Trim(toks[i], "#:;,.")
		if len(tok) >= 6 && hasDigit(tok) {
			return strPtr(tok)
		}
	}
	return nil
}

func extractCheckNumber(column, description string) *string {
	if c := strings.TrimSpace(column); c != "" {
		return strPtr(c)
	}
	if m := checkNumberRe.FindStringSubmatch(description); m != nil {
		return strPtr(m[1])
	}
	return nil
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func strPtr(s string) *string {
	return &s
}
