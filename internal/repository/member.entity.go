package repository

import (
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type MemberEntity struct {
	ID                int64            `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	FirstName         string           `db:"first_name"           gorm:"column:first_name;not null"`
	MiddleName        string           `db:"middle_name"          gorm:"column:middle_name"`
	LastName          string           `db:"last_name"            gorm:"column:last_name;not null"`
	FamilyID          *int64           `db:"family_id"            gorm:"column:family_id;index"`
	IsHeadOfHousehold bool             `db:"is_head_of_household" gorm:"column:is_head_of_household;not null;default:false"`
	YearlyPledge      *decimal.Decimal `db:"yearly_pledge"        gorm:"column:yearly_pledge;type:numeric(14,2)"`
	DateJoinedParish  *time.Time       `db:"date_joined_parish"   gorm:"column:date_joined_parish;type:date"`
	PhoneNumber       string           `db:"phone_number"         gorm:"column:phone_number"`
	CreatedAt         time.Time        `db:"created_at"           gorm:"column:created_at;autoCreateTime"`
}

func (MemberEntity) TableName() string {
	return "members"
}

func toMemberEntity(m *model.Member) *MemberEntity {
	if m == nil {
		return nil
	}
	return &MemberEntity{
		ID:                m.ID,
		FirstName:         m.FirstName,
		MiddleName:        m.MiddleName,
		LastName:          m.LastName,
		FamilyID:          m.FamilyID,
		IsHeadOfHousehold: m.IsHeadOfHousehold,
		YearlyPledge:      m.YearlyPledge,
		DateJoinedParish:  m.DateJoinedParish,
		PhoneNumber:       m.PhoneNumber,
	}
}

func toMemberModel(e *MemberEntity) *model.Member {
	if e == nil {
		return nil
	}
	return &model.Member{
		ID:                e.ID,
		FirstName:         e.FirstName,
		MiddleName:        e.MiddleName,
		LastName:          e.LastName,
		FamilyID:          e.FamilyID,
		IsHeadOfHousehold: e.IsHeadOfHousehold,
		YearlyPledge:      e.YearlyPledge,
		DateJoinedParish:  e.DateJoinedParish,
		PhoneNumber:       e.PhoneNumber,
	}
}

func toMemberModels(entities []*MemberEntity) []*model.Member {
	if entities == nil {
		return nil
	}
	models := make([]*model.Member, len(entities))
	for i, e := range entities {
		models[i] = toMemberModel(e)
	}
	return models
}

type DependentEntity struct {
	ID             int64  `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	MemberID       int64  `db:"member_id"        gorm:"column:member_id;not null;index"`
	LinkedMemberID *int64 `db:"linked_member_id" gorm:"column:linked_member_id;index"`
	FirstName      string `db:"first_name"       gorm:"column:first_name;not null"`
	LastName       string `db:"last_name"        gorm:"column:last_name"`
	PhoneNumber    string `db:"phone_number"     gorm:"column:phone_number"`
}

func (DependentEntity) TableName() string {
	return "dependents"
}

func toDependentEntity(m *model.Dependent) *DependentEntity {
	if m == nil {
		return nil
	}
	return &DependentEntity{
		ID:             m.ID,
		MemberID:       m.MemberID,
		LinkedMemberID: m.LinkedMemberID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		PhoneNumber:    m.PhoneNumber,
	}
}

func toDependentModel(e *DependentEntity) *model.Dependent {
	if e == nil {
		return nil
	}
	return &model.Dependent{
		ID:             e.ID,
		MemberID:       e.MemberID,
		LinkedMemberID: e.LinkedMemberID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		PhoneNumber:    e.PhoneNumber,
	}
}
