package repository

import (
	"context"
	"errors"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"gorm.io/gorm"
)

type MemberRepository struct {
	*pg.DB
}

func NewMemberRepository(db *pg.DB) *MemberRepository {
	return &MemberRepository{
		db,
	}
}

func (r *MemberRepository) Create(ctx context.Context, m *model.Member) (*model.Member, error) {
	e := toMemberEntity(m)
	if err := r.Write(ctx).WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return toMemberModel(e), nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	var e MemberEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("member %d", id)
	}
	if err != nil {
		return nil, err
	}
	return toMemberModel(&e), nil
}

func (r *MemberRepository) ListByIDs(ctx context.Context, ids []int64) ([]*model.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []*MemberEntity
	if err := r.Read(ctx).WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toMemberModels(entities), nil
}

// FindByNameTokens returns members whose first or last name equals one of the
// upper-cased tokens. Callers narrow the result with exact name matching.
func (r *MemberRepository) FindByNameTokens(ctx context.Context, tokens []string) ([]*model.Member, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	var entities []*MemberEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("UPPER(first_name) IN ? OR UPPER(last_name) IN ?", tokens, tokens).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toMemberModels(entities), nil
}

// ListByFamily returns every member whose family id is familyID, plus the
// member whose own id is familyID.
func (r *MemberRepository) ListByFamily(ctx context.Context, familyID int64) ([]*model.Member, error) {
	var entities []*MemberEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("family_id = ? OR id = ?", familyID, familyID).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toMemberModels(entities), nil
}

func (r *MemberRepository) CreateDependent(ctx context.Context, d *model.Dependent) (*model.Dependent, error) {
	e := toDependentEntity(d)
	if err := r.Write(ctx).WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return toDependentModel(e), nil
}

func (r *MemberRepository) GetDependent(ctx context.Context, id int64) (*model.Dependent, error) {
	var e DependentEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("dependent %d", id)
	}
	if err != nil {
		return nil, err
	}
	return toDependentModel(&e), nil
}

// ListDependentsOfHeads returns dependents registered under any of the heads.
func (r *MemberRepository) ListDependentsOfHeads(ctx context.Context, headIDs []int64) ([]*model.Dependent, error) {
	if len(headIDs) == 0 {
		return nil, nil
	}
	var entities []*DependentEntity
	if err := r.Read(ctx).WithContext(ctx).Where("member_id IN ?", headIDs).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toDependentModels(entities), nil
}

// FindDependentsLinkedTo returns dependent records promoted to memberID.
func (r *MemberRepository) FindDependentsLinkedTo(ctx context.Context, memberID int64) ([]*model.Dependent, error) {
	var entities []*DependentEntity
	if err := r.Read(ctx).WithContext(ctx).Where("linked_member_id = ?", memberID).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toDependentModels(entities), nil
}

func toDependentModels(entities []*DependentEntity) []*model.Dependent {
	out := make([]*model.Dependent, len(entities))
	for i, e := range entities {
		out[i] = toDependentModel(e)
	}
	return out
}
