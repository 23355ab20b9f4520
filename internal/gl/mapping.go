// Package gl maps payment types to general-ledger codes.
package gl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/parishworks/parish-ledger/internal/model"
)

var (
	ErrUnmapped           = errors.New("payment type has no GL mapping")
	ErrUnknownExpenseCode = errors.New("unknown expense GL code")
)

const DefaultVersion = "2024.1"

// Mapping is an immutable payment type to GL code table. Fallback entries
// borrow the code of another payment type and are listed explicitly so that
// a new payment type fails with ErrUnmapped instead of defaulting silently.
type Mapping struct {
	version   string
	direct    map[model.PaymentType]string
	fallbacks map[model.PaymentType]model.PaymentType
	names     map[string]string
	expenses  map[string]string
}

var defaultIncome = []model.IncomeCategory{
	{GLCode: "INC001", Name: "Membership Dues", PaymentType: string(model.PaymentTypeMembershipDue), Active: true},
	{GLCode: "INC002", Name: "Weekly Offering", PaymentType: string(model.PaymentTypeOffering), Active: true},
	{GLCode: "INC003", Name: "Donations", PaymentType: string(model.PaymentTypeDonation), Active: true},
	{GLCode: "INC004", Name: "Event Income", PaymentType: string(model.PaymentTypeEvent), Active: true},
	{GLCode: "INC005", Name: "Vows", PaymentType: string(model.PaymentTypeVow), Active: true},
	{GLCode: "INC006", Name: "Religious Item Sales", PaymentType: string(model.PaymentTypeReligiousItems), Active: true},
	{GLCode: "INC007", Name: "Tigray Hunger Fundraiser", PaymentType: string(model.PaymentTypeHungerFundraiser), Active: true},
	{GLCode: "INC008", Name: "Other Income", PaymentType: string(model.PaymentTypeOther), Active: true},
}

var defaultExpenses = []model.ExpenseCategory{
	{GLCode: "EXP001", Name: "Clergy Support", Active: true},
	{GLCode: "EXP002", Name: "Utilities", Active: true},
	{GLCode: "EXP003", Name: "Building Maintenance", Active: true},
	{GLCode: "EXP004", Name: "Office Supplies", Active: true},
	{GLCode: "EXP005", Name: "Charitable Giving", Active: true},
	{GLCode: "EXP006", Name: "Bank Fees", Active: true},
	{GLCode: "EXP007", Name: "Event Expenses", Active: true},
	{GLCode: "EXP008", Name: "Other Expenses", Active: true},
}

var defaultFallbacks = map[model.PaymentType]model.PaymentType{
	model.PaymentTypeTithe:        model.PaymentTypeOffering,
	model.PaymentTypeBuildingFund: model.PaymentTypeEvent,
}

func DefaultIncomeCategories() []model.IncomeCategory {
	return append([]model.IncomeCategory(nil), defaultIncome...)
}

func DefaultExpenseCategories() []model.ExpenseCategory {
	return append([]model.ExpenseCategory(nil), defaultExpenses...)
}

func DefaultMapping() *Mapping {
	return FromCategories(DefaultVersion, defaultIncome, defaultExpenses)
}

// FromCategories builds a mapping from reference data rows. Inactive rows and
// rows without a payment type are not used for income resolution.
func FromCategories(version string, income []model.IncomeCategory, expenses []model.ExpenseCategory) *Mapping {
	m := &Mapping{
		version:   version,
		direct:    make(map[model.PaymentType]string),
		fallbacks: make(map[model.PaymentType]model.PaymentType, len(defaultFallbacks)),
		names:     make(map[string]string),
		expenses:  make(map[string]string),
	}
	for _, c := range income {
		m.names[c.GLCode] = c.Name
		if !c.Active || c.PaymentType == "" {
			continue
		}
		m.direct[model.PaymentType(c.PaymentType)] = c.GLCode
	}
	for from, to := range defaultFallbacks {
		m.fallbacks[from] = to
	}
	for _, c := range expenses {
		if c.Active {
			m.expenses[c.GLCode] = c.Name
			m.names[c.GLCode] = c.Name
		}
	}
	return m
}

func (m *Mapping) Version() string {
	return m.version
}

// Resolve returns the GL code for a payment type, following at most one
// fallback hop.
func (m *Mapping) Resolve(pt model.PaymentType) (string, error) {
	if code, ok := m.direct[pt]; ok {
		return code, nil
	}
	if target, ok := m.fallbacks[pt]; ok {
		if code, ok := m.direct[target]; ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %s (mapping %s)", ErrUnmapped, pt, m.version)
}

func (m *Mapping) ExpenseCode(code string) (string, error) {
	if _, ok := m.expenses[code]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownExpenseCode, code)
	}
	return code, nil
}

func (m *Mapping) Name(code string) string {
	return m.names[code]
}

// Unmapped lists the known payment types Resolve would reject.
func (m *Mapping) Unmapped() []model.PaymentType {
	var out []model.PaymentType
	for _, pt := range model.PaymentTypes {
		if _, err := m.Resolve(pt); err != nil {
			out = append(out, pt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
