package dues

import (
	"errors"
	"sort"

	"github.com/parishworks/parish-ledger/internal/model"
)

var (
	ErrEmptyHousehold = errors.New("household has no members")
	// ErrAmbiguousHead is returned when no member is marked or inferable as
	// head and the highest pledge is shared.
	ErrAmbiguousHead = errors.New("head of household is ambiguous")
)

type Household struct {
	FamilyID int64
	Head     *model.Member
	Members  []*model.Member
}

func (h *Household) MemberIDs() []int64 {
	ids := make([]int64, 0, len(h.Members))
	for _, m := range h.Members {
		ids = append(ids, m.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (h *Household) Contains(memberID int64) bool {
	for _, m := range h.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// NewHousehold deduplicates members and resolves the head.
func NewHousehold(familyID int64, members []*model.Member) (*Household, error) {
	seen := make(map[int64]bool, len(members))
	var uniq []*model.Member
	for _, m := range members {
		if m == nil || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		uniq = append(uniq, m)
	}
	if len(uniq) == 0 {
		return nil, ErrEmptyHousehold
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].ID < uniq[j].ID })

	head, err := ResolveHead(familyID, uniq)
	if err != nil {
		return nil, err
	}
	return &Household{FamilyID: familyID, Head: head, Members: uniq}, nil
}

// ResolveHead picks the member dues are computed against: the single member
// flagged as head, else the member whose id is the family id, else the single
// member whose family id is unset or points at itself, else the highest pledge.
func ResolveHead(familyID int64, members []*model.Member) (*model.Member, error) {
	if len(members) == 0 {
		return nil, ErrEmptyHousehold
	}

	var flagged []*model.Member
	for _, m := range members {
		if m.IsHeadOfHousehold {
			flagged = append(flagged, m)
		}
	}
	if len(flagged) == 1 {
		return flagged[0], nil
	}

	for _, m := range members {
		if m.ID == familyID {
			return m, nil
		}
	}

	var inferred []*model.Member
	for _, m := range members {
		if m.FamilyID == nil || *m.FamilyID == m.ID {
			inferred = append(inferred, m)
		}
	}
	if len(inferred) == 1 {
		return inferred[0], nil
	}

	pool := members
	if len(inferred) > 1 {
		pool = inferred
	}
	return highestPledge(pool)
}

func highestPledge(members []*model.Member) (*model.Member, error) {
	var best *model.Member
	tied := false
	for _, m := range members {
		switch {
		case best == nil:
			best = m
		case m.Pledge().GreaterThan(best.Pledge()):
			best, tied = m, false
		case m.Pledge().Equal(best.Pledge()):
			tied = true
		}
	}
	if tied {
		return nil, ErrAmbiguousHead
	}
	return best, nil
}
