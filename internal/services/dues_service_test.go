package services

import (
	"context"
	"testing"
	"time"

	"github.com/parishworks/parish-ledger/internal/dues"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	pledge1200 = decimal.NewFromInt(1200)
	headMember = &model.Member{ID: 7, FirstName: "John", LastName: "Doe", FamilyID: ptr(int64(7)), IsHeadOfHousehold: true, YearlyPledge: &pledge1200}
	spouse     = &model.Member{ID: 8, FirstName: "Jane", LastName: "Doe", FamilyID: ptr(int64(7))}
)

func newDuesFixture() (*DuesService, *MockMemberRepository, *MockTransactionRepository) {
	members := new(MockMemberRepository)
	txns := new(MockTransactionRepository)
	service := NewDuesService(members, txns, []string{"admin", "treasurer"})
	service.now = func() time.Time { return day(2024, 4, 15) }
	return service, members, txns
}

func expectHousehold(members *MockMemberRepository, txns *MockTransactionRepository, payments []*model.Transaction) {
	members.On("GetByID", mock.Anything, int64(7)).Return(headMember, nil)
	members.On("GetByID", mock.Anything, int64(8)).Return(spouse, nil)
	members.On("ListByFamily", mock.Anything, int64(7)).Return([]*model.Member{headMember, spouse}, nil)
	members.On("ListDependentsOfHeads", mock.Anything, mock.Anything).Return([]*model.Dependent{}, nil)
	txns.On("ListAll", mock.Anything, model.TransactionFilter{MemberIDs: []int64{7, 8}}).Return(payments, nil)
}

func duesPayment(memberID int64, date time.Time, amount int64) *model.Transaction {
	return &model.Transaction{
		MemberID:    ptr(memberID),
		PaymentDate: date,
		Amount:      decimal.NewFromInt(amount),
		PaymentType: model.PaymentTypeMembershipDue,
		Status:      model.TransactionStatusSucceeded,
	}
}

func TestDuesService_ForMember(t *testing.T) {
	service, members, txns := newDuesFixture()
	ctx := context.Background()
	expectHousehold(members, txns, []*model.Transaction{
		duesPayment(7, day(2024, 1, 5), 200),
		duesPayment(8, day(2024, 3, 2), 100),
	})

	res, err := service.ForMember(ctx, 8, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.HeadOfHouseholdID)
	assert.Equal(t, []int64{7, 8}, res.HouseholdMemberIDs)
	assert.True(t, res.DuesCollected.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, dues.MonthPaid, res.Months[2].Status)
	assert.Equal(t, dues.MonthDue, res.Months[3].Status)
	assert.Equal(t, dues.MonthUpcoming, res.Months[4].Status)
}

func TestDuesService_Household_PromotedDependentJoinsHeadsFamily(t *testing.T) {
	service, members, _ := newDuesFixture()
	ctx := context.Background()
	promoted := &model.Member{ID: 20, FirstName: "Sam", LastName: "Doe"}

	members.On("GetByID", ctx, int64(20)).Return(promoted, nil)
	members.On("FindDependentsLinkedTo", ctx, int64(20)).Return([]*model.Dependent{{ID: 3, MemberID: 7, LinkedMemberID: ptr(int64(20))}}, nil)
	members.On("GetByID", ctx, int64(7)).Return(headMember, nil)
	members.On("ListByFamily", ctx, int64(7)).Return([]*model.Member{headMember, spouse}, nil)
	members.On("ListDependentsOfHeads", ctx, []int64{7, 8, 20}).
		Return([]*model.Dependent{{ID: 3, MemberID: 7, LinkedMemberID: ptr(int64(20))}}, nil)

	h, err := service.Household(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(7), h.FamilyID)
	assert.Equal(t, int64(7), h.Head.ID)
	assert.Equal(t, []int64{7, 8, 20}, h.MemberIDs())
	members.AssertNotCalled(t, "ListByIDs", mock.Anything, mock.Anything)
}

func TestDuesService_Household_AddsPromotedDependentsOfHead(t *testing.T) {
	service, members, _ := newDuesFixture()
	ctx := context.Background()
	promoted := &model.Member{ID: 30, FirstName: "Ruth", LastName: "Doe"}

	members.On("GetByID", ctx, int64(7)).Return(headMember, nil)
	members.On("ListByFamily", ctx, int64(7)).Return([]*model.Member{headMember, spouse}, nil)
	members.On("ListDependentsOfHeads", ctx, []int64{7, 8}).Return([]*model.Dependent{
		{ID: 4, MemberID: 7, LinkedMemberID: ptr(int64(30))},
		{ID: 5, MemberID: 7},
	}, nil)
	members.On("ListByIDs", ctx, []int64{30}).Return([]*model.Member{promoted}, nil)

	h, err := service.Household(ctx, 7)
	require.NoError(t, err)
	assert.True(t, h.Contains(30))
}

func TestDuesService_ForCaller(t *testing.T) {
	tests := []struct {
		name    string
		caller  model.Caller
		target  *int64
		wantErr error
	}{
		{"no identity", model.Caller{}, ptr(int64(7)), model.ErrUnauthenticated},
		{"head views own household", model.Caller{OperatorID: "u1", MemberID: ptr(int64(7))}, nil, nil},
		{"spouse views household", model.Caller{OperatorID: "u2", MemberID: ptr(int64(8))}, ptr(int64(7)), nil},
		{"staff views any household", model.Caller{OperatorID: "u3", Roles: []string{"Treasurer"}}, ptr(int64(8)), nil},
		{"dependent of household", model.Caller{OperatorID: "u4", DependentID: ptr(int64(3))}, nil, nil},
		{"outsider", model.Caller{OperatorID: "u5", MemberID: ptr(int64(99))}, ptr(int64(7)), model.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, members, txns := newDuesFixture()
			expectHousehold(members, txns, nil)
			members.On("GetDependent", mock.Anything, int64(3)).Return(&model.Dependent{ID: 3, MemberID: 7}, nil)

			res, err := service.ForCaller(context.Background(), tt.caller, tt.target, 2024)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), res.HeadOfHouseholdID)
		})
	}
}

func TestDuesService_ForCaller_StaffNeedsTarget(t *testing.T) {
	service, _, _ := newDuesFixture()
	_, err := service.ForCaller(context.Background(), model.Caller{OperatorID: "u3", Roles: []string{"admin"}}, nil, 2024)
	v, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "member_id", v.Field)
}

func TestDuesService_AmbiguousHead(t *testing.T) {
	service, members, _ := newDuesFixture()
	ctx := context.Background()
	a := &model.Member{ID: 40, FamilyID: ptr(int64(50)), YearlyPledge: &pledge1200}
	b := &model.Member{ID: 41, FamilyID: ptr(int64(50)), YearlyPledge: &pledge1200}

	members.On("GetByID", ctx, int64(40)).Return(a, nil)
	members.On("ListByFamily", ctx, int64(50)).Return([]*model.Member{a, b}, nil)
	members.On("ListDependentsOfHeads", ctx, mock.Anything).Return([]*model.Dependent{}, nil)

	_, err := service.ForMember(ctx, 40, 2024)
	assert.ErrorIs(t, err, dues.ErrAmbiguousHead)
}
