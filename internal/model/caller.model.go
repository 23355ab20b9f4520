package model

import "strings"

// Caller is the authenticated identity a request acts for.
type Caller struct {
	OperatorID  string
	Roles       []string
	MemberID    *int64
	DependentID *int64
}

func (c Caller) HasAnyRole(roles []string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
