// Package dues computes household membership dues for a year: a monthly
// waterfall over the pledge with surplus rolled forward from prior years.
// Compute is pure; callers pass the reference time explicitly.
package dues

import (
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type MonthStatus string

const (
	MonthPaid          MonthStatus = "paid"
	MonthDue           MonthStatus = "due"
	MonthUpcoming      MonthStatus = "upcoming"
	MonthPreMembership MonthStatus = "pre-membership"
	// MonthNone is a past month without payments in a household that has
	// no pledge.
	MonthNone MonthStatus = "none"
)

var twelve = decimal.NewFromInt(12)

type Month struct {
	Month      int             `json:"month"`
	Name       string          `json:"name"`
	Status     MonthStatus     `json:"status"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

type OtherContributions struct {
	Donation      decimal.Decimal `json:"donation"`
	PledgePayment decimal.Decimal `json:"pledge_payment"`
	Tithe         decimal.Decimal `json:"tithe"`
	Offering      decimal.Decimal `json:"offering"`
	Other         decimal.Decimal `json:"other"`
	Total         decimal.Decimal `json:"total"`
}

type Result struct {
	FamilyID           int64              `json:"family_id"`
	HeadOfHouseholdID  int64              `json:"head_of_household_id"`
	HouseholdMemberIDs []int64            `json:"household_member_ids"`
	Year               int                `json:"year"`
	AsOf               time.Time          `json:"as_of"`
	HasPledge          bool               `json:"has_pledge"`
	YearlyPledge       decimal.Decimal    `json:"yearly_pledge"`
	MonthlyDues        decimal.Decimal    `json:"monthly_dues"`
	MonthsRequired     int                `json:"months_required"`
	TotalAmountDue     decimal.Decimal    `json:"total_amount_due"`
	PaidInYear         decimal.Decimal    `json:"paid_in_year"`
	RolloverIn         decimal.Decimal    `json:"rollover_in"`
	DuesCollected      decimal.Decimal    `json:"dues_collected"`
	BalanceDue         decimal.Decimal    `json:"balance_due"`
	RolloverOut        decimal.Decimal    `json:"rollover_out"`
	Months             []Month            `json:"months"`
	OtherContributions OtherContributions `json:"other_contributions"`
	GrandTotal         decimal.Decimal    `json:"grand_total"`
}

type schedule struct {
	pledge   decimal.Decimal
	monthly  decimal.Decimal
	joinYear int
	// 1-based month of joining, 0 when the join date is unknown
	joinMonth int
}

func newSchedule(head *model.Member) schedule {
	s := schedule{
		pledge:  head.Pledge(),
		monthly: head.Pledge().Div(twelve).Round(2),
	}
	if head.DateJoinedParish != nil {
		s.joinYear = head.DateJoinedParish.Year()
		s.joinMonth = int(head.DateJoinedParish.Month())
	}
	return s
}

func (s schedule) monthsRequired(year int) int {
	switch {
	case s.joinMonth == 0 || year > s.joinYear:
		return 12
	case year < s.joinYear:
		return 0
	default:
		return 12 - (s.joinMonth - 1)
	}
}

func (s schedule) duesFor(year int) decimal.Decimal {
	return s.pledge.Mul(decimal.NewFromInt(int64(s.monthsRequired(year)))).Div(twelve).Round(2)
}

func (s schedule) preMembership(year, month int) bool {
	if s.joinMonth == 0 {
		return false
	}
	return year < s.joinYear || (year == s.joinYear && month < s.joinMonth)
}

// Compute builds the dues breakdown of the household for year. payments may
// span any years; only succeeded ones are counted.
func Compute(h *Household, payments []*model.Transaction, year int, asOf time.Time) *Result {
	s := newSchedule(h.Head)
	res := &Result{
		FamilyID:           h.FamilyID,
		HeadOfHouseholdID:  h.Head.ID,
		HouseholdMemberIDs: h.MemberIDs(),
		Year:               year,
		AsOf:               asOf,
		HasPledge:          s.pledge.IsPositive(),
		YearlyPledge:       s.pledge,
		RolloverIn:         decimal.Zero,
		RolloverOut:        decimal.Zero,
		BalanceDue:         decimal.Zero,
		TotalAmountDue:     decimal.Zero,
		MonthlyDues:        decimal.Zero,
	}

	var dues, others []*model.Transaction
	for _, p := range payments {
		if p == nil || !counts(p) {
			continue
		}
		if p.PaymentType == model.PaymentTypeMembershipDue {
			dues = append(dues, p)
		} else {
			others = append(others, p)
		}
	}

	if res.HasPledge {
		computePledged(res, s, dues, year, asOf)
	} else {
		computeUnpledged(res, s, dues, year, asOf)
	}

	res.OtherContributions = bucketOthers(others, year)
	res.GrandTotal = res.DuesCollected.Add(res.OtherContributions.Total)
	return res
}

func counts(p *model.Transaction) bool {
	return p.Status == "" || p.Status == model.TransactionStatusSucceeded
}

func computePledged(res *Result, s schedule, payments []*model.Transaction, year int, asOf time.Time) {
	paid := make(map[int]decimal.Decimal)
	firstYear := 0
	for _, p := range payments {
		y := p.AccrualYear()
		paid[y] = paid[y].Add(p.Amount)
		if firstYear == 0 || y < firstYear {
			firstYear = y
		}
	}

	// payments credited to years before joining roll forward as surplus
	start := s.joinYear
	if s.joinMonth == 0 || (firstYear != 0 && firstYear < start) {
		start = firstYear
	}
	rollover := decimal.Zero
	if start != 0 {
		for y := start; y < year; y++ {
			available := paid[y].Add(rollover)
			due := s.duesFor(y)
			if available.GreaterThan(due) {
				rollover = available.Sub(due)
			} else {
				rollover = decimal.Zero
			}
		}
	}

	res.MonthlyDues = s.monthly
	res.MonthsRequired = s.monthsRequired(year)
	res.TotalAmountDue = s.duesFor(year)
	res.PaidInYear = paid[year]
	res.RolloverIn = rollover
	res.DuesCollected = res.PaidInYear.Add(rollover)
	res.BalanceDue = decimal.Max(decimal.Zero, res.TotalAmountDue.Sub(res.DuesCollected))
	res.RolloverOut = decimal.Max(decimal.Zero, res.DuesCollected.Sub(res.TotalAmountDue))

	pool := res.DuesCollected
	remaining := res.MonthsRequired
	allocated := decimal.Zero
	res.Months = make([]Month, 0, 12)
	for m := 1; m <= 12; m++ {
		month := Month{Month: m, Name: time.Month(m).String(), AmountDue: decimal.Zero, AmountPaid: decimal.Zero}
		if res.MonthsRequired == 0 || s.preMembership(year, m) {
			month.Status = MonthPreMembership
			res.Months = append(res.Months, month)
			continue
		}

		// the last required month absorbs the rounding remainder
		obligation := s.monthly
		if remaining == 1 {
			obligation = res.TotalAmountDue.Sub(allocated)
		}
		remaining--
		allocated = allocated.Add(obligation)
		month.AmountDue = obligation

		if pool.GreaterThanOrEqual(obligation) {
			month.Status = MonthPaid
			month.AmountPaid = obligation
			pool = pool.Sub(obligation)
		} else {
			month.AmountPaid = pool
			pool = decimal.Zero
			month.Status = pendingStatus(year, m, asOf)
		}
		res.Months = append(res.Months, month)
	}
}

func computeUnpledged(res *Result, s schedule, payments []*model.Transaction, year int, asOf time.Time) {
	var byMonth [13]decimal.Decimal
	total := decimal.Zero
	for _, p := range payments {
		if p.PaymentDate.Year() != year {
			continue
		}
		m := int(p.PaymentDate.Month())
		byMonth[m] = byMonth[m].Add(p.Amount)
		total = total.Add(p.Amount)
	}

	res.PaidInYear = total
	res.DuesCollected = total
	res.Months = make([]Month, 0, 12)
	for m := 1; m <= 12; m++ {
		month := Month{Month: m, Name: time.Month(m).String(), AmountDue: decimal.Zero, AmountPaid: byMonth[m]}
		switch {
		case s.preMembership(year, m):
			month.Status = MonthPreMembership
		case byMonth[m].IsPositive():
			month.Status = MonthPaid
		case pendingStatus(year, m, asOf) == MonthUpcoming:
			month.Status = MonthUpcoming
		default:
			month.Status = MonthNone
		}
		res.Months = append(res.Months, month)
	}
}

func pendingStatus(year, month int, asOf time.Time) MonthStatus {
	if year < asOf.Year() || (year == asOf.Year() && month <= int(asOf.Month())) {
		return MonthDue
	}
	return MonthUpcoming
}

func bucketOthers(payments []*model.Transaction, year int) OtherContributions {
	oc := OtherContributions{
		Donation:      decimal.Zero,
		PledgePayment: decimal.Zero,
		Tithe:         decimal.Zero,
		Offering:      decimal.Zero,
		Other:         decimal.Zero,
		Total:         decimal.Zero,
	}
	for _, p := range payments {
		if p.PaymentDate.Year() != year {
			continue
		}
		switch p.PaymentType {
		case model.PaymentTypeDonation:
			oc.Donation = oc.Donation.Add(p.Amount)
		case model.PaymentTypeVow:
			oc.PledgePayment = oc.PledgePayment.Add(p.Amount)
		case model.PaymentTypeTithe:
			oc.Tithe = oc.Tithe.Add(p.Amount)
		case model.PaymentTypeOffering:
			oc.Offering = oc.Offering.Add(p.Amount)
		default:
			oc.Other = oc.Other.Add(p.Amount)
		}
		oc.Total = oc.Total.Add(p.Amount)
	}
	return oc
}
