package services

import (
	"context"
	"time"

	"github.com/parishworks/parish-ledger/internal/dues"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/prom"
)

type DuesService struct {
	members    MemberRepository
	txns       TransactionRepository
	staffRoles []string
	now        func() time.Time
}

func NewDuesService(members MemberRepository, txns TransactionRepository, staffRoles []string) *DuesService {
	return &DuesService{
		members:    members,
		txns:       txns,
		staffRoles: staffRoles,
		now:        time.Now,
	}
}

// Household resolves the household memberID belongs to. A member without a
// family id who was promoted from a dependent joins the household of the
// head that registered them.
func (s *DuesService) Household(ctx context.Context, memberID int64) (*dues.Household, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	familyID := member.EffectiveFamilyID()
	if member.FamilyID == nil {
		linked, err := s.members.FindDependentsLinkedTo(ctx, member.ID)
		if err != nil {
			return nil, err
		}
		if len(linked) > 0 {
			head, err := s.members.GetByID(ctx, linked[0].MemberID)
			if err != nil {
				return nil, err
			}
			familyID = head.EffectiveFamilyID()
		}
	}

	members, err := s.members.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	members = append(members, member)

	seen := make(map[int64]bool, len(members))
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	deps, err := s.members.ListDependentsOfHeads(ctx, ids)
	if err != nil {
		return nil, err
	}
	var promoted []int64
	for _, d := range deps {
		if d.LinkedMemberID != nil && !seen[*d.LinkedMemberID] {
			seen[*d.LinkedMemberID] = true
			promoted = append(promoted, *d.LinkedMemberID)
		}
	}
	if len(promoted) > 0 {
		extra, err := s.members.ListByIDs(ctx, promoted)
		if err != nil {
			return nil, err
		}
		members = append(members, extra...)
	}

	return dues.NewHousehold(familyID, members)
}

// ForMember computes the dues of memberID's household for year.
func (s *DuesService) ForMember(ctx context.Context, memberID int64, year int) (*dues.Result, error) {
	h, err := s.Household(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, h, year)
}

func (s *DuesService) compute(ctx context.Context, h *dues.Household, year int) (*dues.Result, error) {
	started := time.Now()
	payments, err := s.txns.ListAll(ctx, model.TransactionFilter{MemberIDs: h.MemberIDs()})
	if err != nil {
		return nil, err
	}
	res := dues.Compute(h, payments, year, s.now())
	prom.AddDuesComputeDuration(time.Since(started).Seconds())
	return res, nil
}

// ForCaller computes dues for the household of memberID, or of the caller
// when memberID is nil, after checking the caller may see that household:
// staff, members of the household, and dependents registered under it.
func (s *DuesService) ForCaller(ctx context.Context, caller model.Caller, memberID *int64, year int) (*dues.Result, error) {
	if caller.OperatorID == "" && caller.MemberID == nil && caller.DependentID == nil {
		return nil, model.ErrUnauthenticated
	}

	var dependent *model.Dependent
	if caller.DependentID != nil {
		d, err := s.members.GetDependent(ctx, *caller.DependentID)
		if err != nil {
			return nil, err
		}
		dependent = d
	}

	target := memberID
	if target == nil {
		switch {
		case caller.MemberID != nil:
			target = caller.MemberID
		case dependent != nil:
			target = &dependent.MemberID
		default:
			return nil, model.NewValidationError("member_id", "is required")
		}
	}

	h, err := s.Household(ctx, *target)
	if err != nil {
		return nil, err
	}
	if !s.allowed(caller, dependent, h) {
		logger.Warn("dues access denied", "operator_id", caller.OperatorID, "member_id", *target)
		return nil, model.ErrForbidden
	}
	return s.compute(ctx, h, year)
}

func (s *DuesService) allowed(caller model.Caller, dependent *model.Dependent, h *dues.Household) bool {
	if caller.HasAnyRole(s.staffRoles) {
		return true
	}
	if caller.MemberID != nil && h.Contains(*caller.MemberID) {
		return true
	}
	return dependent != nil && h.Contains(dependent.MemberID)
}
