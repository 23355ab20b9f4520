package services

import (
	"context"
	"testing"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSuggestionFixture() (*SuggestionService, *MockBankRepository, *MockMemoRepository, *MockMemberRepository, *MockTransactionRepository) {
	bank := new(MockBankRepository)
	memos := new(MockMemoRepository)
	members := new(MockMemberRepository)
	txns := new(MockTransactionRepository)
	return NewSuggestionService(bank, memos, members, txns, 0), bank, memos, members, txns
}

func TestSuggestionService_Suggest_MemoWins(t *testing.T) {
	service, _, memos, members, txns := newSuggestionFixture()
	ctx := context.Background()
	bt := pendingBankTxn(1, "100.00", model.BankTypeZelle, "ZELLE FROM JOHN DOE")
	bt.PayerName = ptr("JOHN DOE")

	memos.On("FindByMemo", ctx, "JOHN DOE").Return(&model.ZelleMemoMatch{MemberID: 9, FirstName: "Johnny", LastName: "Doe"}, nil)
	txns.On("FindPotentialDuplicates", ctx, mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(100)) }), bt.Date, defaultDuplicateWindowDays, int64(1)).
		Return(nil, nil)

	s, dups, err := service.Suggest(ctx, bt)
	require.NoError(t, err)
	assert.Equal(t, &model.MemberSuggestion{
		MemberID: 9, FirstName: "Johnny", LastName: "Doe", Confidence: model.ConfidenceHigh, Basis: model.BasisMemo,
	}, s)
	assert.NotNil(t, dups)
	assert.Empty(t, dups)
	members.AssertNotCalled(t, "FindByNameTokens", mock.Anything, mock.Anything)
}

func TestSuggestionService_Suggest_PayerName(t *testing.T) {
	service, _, memos, members, txns := newSuggestionFixture()
	ctx := context.Background()
	bt := pendingBankTxn(2, "60.00", model.BankTypeZelle, "ZELLE FROM DOE JOHN")
	bt.PayerName = ptr("DOE JOHN")

	memos.On("FindByMemo", ctx, "DOE JOHN").Return(nil, model.NotFoundf("memo"))
	members.On("FindByNameTokens", ctx, []string{"DOE", "JOHN"}).Return([]*model.Member{
		johnDoe, {ID: 8, FirstName: "Jane", LastName: "Doe"},
	}, nil)
	dup := &model.Transaction{ID: 70}
	txns.On("FindPotentialDuplicates", ctx, mock.Anything, mock.Anything, mock.Anything, int64(2)).
		Return([]*model.Transaction{dup}, nil)

	s, dups, err := service.Suggest(ctx, bt)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(7), s.MemberID)
	assert.Equal(t, model.ConfidenceMedium, s.Confidence)
	assert.Equal(t, model.BasisPayerName, s.Basis)
	assert.Equal(t, []*model.Transaction{dup}, dups)
}

func TestSuggestionService_Suggest_AmbiguousNameIsOmitted(t *testing.T) {
	service, _, memos, members, txns := newSuggestionFixture()
	ctx := context.Background()
	bt := pendingBankTxn(3, "60.00", model.BankTypeZelle, "ZELLE FROM JOHN DOE")
	bt.PayerName = ptr("JOHN DOE")

	memos.On("FindByMemo", ctx, mock.Anything).Return(nil, model.NotFoundf("memo"))
	members.On("FindByNameTokens", ctx, mock.Anything).Return([]*model.Member{
		johnDoe, {ID: 17, FirstName: "John", LastName: "Doe"},
	}, nil)
	txns.On("FindPotentialDuplicates", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	s, _, err := service.Suggest(ctx, bt)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSuggestionService_ListWithSuggestions_OnlyPending(t *testing.T) {
	service, bank, memos, _, txns := newSuggestionFixture()
	ctx := context.Background()

	pending := pendingBankTxn(1, "20.00", model.BankTypeDeposit, "DEPOSIT")
	done := pendingBankTxn(2, "20.00", model.BankTypeDeposit, "DEPOSIT")
	done.Status = model.BankStatusMatched
	f := model.BankTransactionFilter{Limit: 10}

	bank.On("List", ctx, f).Return([]*model.BankTransaction{pending, done}, int64(2), nil)
	memos.On("FindByMemo", ctx, "DEPOSIT").Return(nil, model.NotFoundf("memo"))
	txns.On("FindPotentialDuplicates", ctx, mock.Anything, mock.Anything, mock.Anything, int64(1)).
		Return([]*model.Transaction{{ID: 5}}, nil)

	items, total, err := service.ListWithSuggestions(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Len(t, items[0].PotentialDuplicates, 1)
	assert.Empty(t, items[1].PotentialDuplicates)
	assert.Nil(t, items[1].Suggestion)
	txns.AssertNumberOfCalls(t, "FindPotentialDuplicates", 1)
}
