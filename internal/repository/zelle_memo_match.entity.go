package repository

import (
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
)

type ZelleMemoMatchEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	MemberID  int64     `db:"member_id"  gorm:"column:member_id;not null;index"`
	FirstName string    `db:"first_name" gorm:"column:first_name;not null"`
	LastName  string    `db:"last_name"  gorm:"column:last_name;not null"`
	Memo      string    `db:"memo"       gorm:"column:memo;not null;uniqueIndex"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (ZelleMemoMatchEntity) TableName() string {
	return "zelle_memo_matches"
}

func toZelleMemoMatchEntity(m *model.ZelleMemoMatch) *ZelleMemoMatchEntity {
	if m == nil {
		return nil
	}
	return &ZelleMemoMatchEntity{
		ID:        m.ID,
		MemberID:  m.MemberID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Memo:      m.Memo,
		UpdatedAt: m.UpdatedAt,
	}
}

func toZelleMemoMatchModel(e *ZelleMemoMatchEntity) *model.ZelleMemoMatch {
	if e == nil {
		return nil
	}
	return &model.ZelleMemoMatch{
		ID:        e.ID,
		MemberID:  e.MemberID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Memo:      e.Memo,
		UpdatedAt: e.UpdatedAt,
	}
}
