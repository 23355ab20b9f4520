// Package bankcsv parses bank statement CSV exports into candidate bank
// transactions with a stable dedup hash.
package bankcsv

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("empty statement file")
)

const (
	colDate        = "date"
	colDescription = "description"
	colAmount      = "amount"
	colDebit       = "debit"
	colCredit      = "credit"
	colBalance     = "balance"
	colCheck       = "check"
	colBankType    = "bank_type"
	colDetails     = "details"
)

// header aliases seen in Chase, Wells Fargo and generic exports
var headerAliases = map[string]string{
	"posting date":     colDate,
	"post date":        colDate,
	"date":             colDate,
	"transaction date": colDate,
	"description":      colDescription,
	"memo":             colDescription,
	"amount":           colAmount,
	"debit":            colDebit,
	"credit":           colCredit,
	"balance":          colBalance,
	"running balance":  colBalance,
	"check or slip #":  colCheck,
	"check number":     colCheck,
	"check #":          colCheck,
	"type":             colBankType,
	"details":          colDetails,
}

var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02", "01/02/06", "1/2/06"}

// Row is one parsed statement line.
type Row struct {
	Line            int
	TransactionHash string
	Date            time.Time
	Amount          decimal.Decimal
	Description     string
	Type            model.BankTransactionType
	PayerName       *string
	ExternalRefID   *string
	CheckNumber     *string
	Balance         *decimal.Decimal
	RawData         map[string]string
}

func (r Row) ToBankTransaction() *model.BankTransaction {
	return &model.BankTransaction{
		TransactionHash: r.TransactionHash,
		Date:            r.Date,
		Amount:          r.Amount,
		Description:     r.Description,
		Type:            r.Type,
		Status:          model.BankStatusPending,
		PayerName:       r.PayerName,
		ExternalRefID:   r.ExternalRefID,
		CheckNumber:     r.CheckNumber,
		Balance:         r.Balance,
		RawData:         r.RawData,
	}
}

// BalancelessHash is the hash the same line had in an export without a
// running balance. It equals TransactionHash when the row has no balance.
func (r Row) BalancelessHash() string {
	if r.Balance == nil {
		return r.TransactionHash
	}
	return Hash(r.Date, r.Amount, nil, r.Description)
}

type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Result struct {
	Rows    []Row
	Skipped []SkippedRow
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a statement export. Only an unreadable header is fatal:
// malformed rows are reported in Result.Skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, names := indexHeader(header)
	if _, ok := cols[colDate]; !ok {
		return nil, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	if _, ok := cols[colDescription]; !ok {
		return nil, fmt.Errorf("%w: description", ErrMissingColumn)
	}
	_, hasAmount := cols[colAmount]
	_, hasDebit := cols[colDebit]
	_, hasCredit := cols[colCredit]
	if !hasAmount && !hasDebit && !hasCredit {
		return nil, fmt.Errorf("%w: amount", ErrMissingColumn)
	}

	res := &Result{}
	line := 1
	for {
		rec, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}
		row, err := parseRow(rec, cols, names)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		row.Line = line
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func indexHeader(header []string) (map[string]int, []string) {
	cols := make(map[string]int)
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		names[i] = h
		key, ok := headerAliases[strings.ToLower(h)]
		if !ok {
			continue
		}
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	return cols, names
}

func field(rec []string, cols map[string]int, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseRow(rec []string, cols map[string]int, names []string) (Row, error) {
	date, err := parseDate(field(rec, cols, colDate))
	if err != nil {
		return Row{}, err
	}
	desc := collapseSpaces(field(rec, cols, colDescription))
	if desc == "" {
		return Row{}, errors.New("empty description")
	}
	amount, err := rowAmount(rec, cols)
	if err != nil {
		return Row{}, err
	}

	var balance *decimal.Decimal
	if raw := field(rec, cols, colBalance); raw != "" {
		b, err := parseMoney(raw)
		if err != nil {
			return Row{}, fmt.Errorf("balance %q: %w", raw, err)
		}
		balance = &b
	}

	raw := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || i >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[i]); v != "" {
			raw[name] = v
		}
	}

	row := Row{
		Date:        date,
		Amount:      amount,
		Description: desc,
		Balance:     balance,
		RawData:     raw,
	}
	row.CheckNumber = extractCheckNumber(field(rec, cols, colCheck), desc)
	row.Type = DeriveType(amount, desc, row.CheckNumber)
	row.PayerName, row.ExternalRefID = ExtractPayer(desc)
	row.TransactionHash = Hash(date, amount, balance, desc)
	return row, nil
}

func rowAmount(rec []string, cols map[string]int) (decimal.Decimal, error) {
	if raw := field(rec, cols, colAmount); raw != "" {
		d, err := parseMoney(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("amount %q: %w", raw, err)
		}
		return d, nil
	}
	// split debit/credit layout
	credit, debit := field(rec, cols, colCredit), field(rec, cols, colDebit)
	if credit == "" && debit == "" {
		return decimal.Zero, errors.New("missing amount")
	}
	total := decimal.Zero
	if credit != "" {
		c, err := parseMoney(credit)
		if err != nil {
			return decimal.Zero, fmt.Errorf("credit %q: %w", credit, err)
		}
		total = total.Add(c.Abs())
	}
	if debit != "" {
		d, err := parseMoney(debit)
		if err != nil {
			return decimal.Zero, fmt.Errorf("debit %q: %w", debit, err)
		}
		total = total.Sub(d.Abs())
	}
	return total, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func parseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// Hash is the dedup key of a statement line. A missing balance hashes as an
// empty component so the result stays deterministic.
func Hash(date time.Time, amount decimal.Decimal, balance *decimal.Decimal, description string) string {
	bal := ""
	if balance != nil {
		bal = balance.StringFixed(2)
	}
	payload := strings.Join([]string{
		date.Format("2006-01-02"),
		amount.StringFixed(2),
		bal,
		collapseSpaces(description),
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
