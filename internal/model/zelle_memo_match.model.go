package model

import "time"

// ZelleMemoMatch remembers which member a normalized payment memo belongs to.
type ZelleMemoMatch struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Memo      string    `json:"memo"`
	UpdatedAt time.Time `json:"updated_at"`
}
