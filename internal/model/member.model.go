package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member holds the household-relevant subset of a parish member.
type Member struct {
	ID                int64            `json:"id"`
	FirstName         string           `json:"first_name"`
	MiddleName        string           `json:"middle_name,omitempty"`
	LastName          string           `json:"last_name"`
	FamilyID          *int64           `json:"family_id,omitempty"`
	IsHeadOfHousehold bool             `json:"is_head_of_household"`
	YearlyPledge      *decimal.Decimal `json:"yearly_pledge,omitempty"`
	DateJoinedParish  *time.Time       `json:"date_joined_parish,omitempty"`
	PhoneNumber       string           `json:"phone_number,omitempty"`
}

// EffectiveFamilyID is the family id, or the member's own id when unset.
func (m *Member) EffectiveFamilyID() int64 {
	if m.FamilyID != nil && *m.FamilyID != 0 {
		return *m.FamilyID
	}
	return m.ID
}

func (m *Member) Pledge() decimal.Decimal {
	if m.YearlyPledge == nil {
		return decimal.Zero
	}
	return *m.YearlyPledge
}

func (m *Member) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// Dependent is a person registered under a head of household. A dependent
// promoted to full membership carries LinkedMemberID.
type Dependent struct {
	ID             int64  `json:"id"`
	MemberID       int64  `json:"member_id"`
	LinkedMemberID *int64 `json:"linked_member_id,omitempty"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PhoneNumber    string `json:"phone_number,omitempty"`
}
