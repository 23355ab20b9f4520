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

type reconcileFixture struct {
	tx      *MockTransactor
	bank    *MockBankRepository
	memos   *MockMemoRepository
	members *MockMemberRepository
	txns    *MockTransactionRepository
	ledger  *MockLedgerRepository
	service *ReconciliationService
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		tx:      new(MockTransactor),
		bank:    new(MockBankRepository),
		memos:   new(MockMemoRepository),
		members: new(MockMemberRepository),
		txns:    new(MockTransactionRepository),
		ledger:  new(MockLedgerRepository),
	}
	posting := NewLedgerService(f.txns, f.ledger, nil, nil)
	recorder := NewTransactionService(f.tx, f.txns, f.members, f.ledger, posting)
	f.service = NewReconciliationService(ReconcileDeps{
		Tx:           f.tx,
		Bank:         f.bank,
		Memos:        f.memos,
		Members:      f.members,
		Transactions: f.txns,
		Ledger:       f.ledger,
		Recorder:     recorder,
		Posting:      posting,
	})
	f.tx.On("WithinTransaction", mock.Anything, mock.Anything).Return(nil)
	return f
}

func pendingBankTxn(id int64, amount string, typ model.BankTransactionType, description string) *model.BankTransaction {
	return &model.BankTransaction{
		ID:              id,
		TransactionHash: "abcdef0123456789",
		Date:            day(2024, 3, 4),
		Amount:          decimal.RequireFromString(amount),
		Description:     description,
		Type:            typ,
		Status:          model.BankStatusPending,
	}
}

func matched(bt *model.BankTransaction, memberID *int64) *model.BankTransaction {
	cp := *bt
	cp.Status = model.BankStatusMatched
	cp.MemberID = memberID
	return &cp
}

var johnDoe = &model.Member{ID: 7, FirstName: "John", LastName: "Doe"}

func TestReconciliationService_Reconcile_CreatesTransaction(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	bt := pendingBankTxn(5, "150.00", model.BankTypeZelle, "ZELLE FROM JOHN DOE ON 03/04 REF # PP12345678")

	f.bank.On("GetByID", ctx, int64(5)).Return(bt, nil).Once()
	f.bank.On("GetByID", ctx, int64(5)).Return(matched(bt, ptr(int64(7))), nil).Once()
	f.members.On("GetByID", ctx, int64(7)).Return(johnDoe, nil)
	f.txns.On("Create", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Amount.Equal(decimal.RequireFromString("150")) &&
			txn.PaymentMethod == model.PaymentMethodZelle &&
			*txn.ExternalID == "bank:abcdef0123456789" &&
			*txn.ForYear == 2024 &&
			*txn.BankTransactionID == 5 &&
			txn.SourceSystem == model.SourceBankCSV &&
			txn.CollectedBy == "op-1"
	})).Return(&model.Transaction{ID: 40, MemberID: ptr(int64(7)), PaymentType: model.PaymentTypeMembershipDue,
		PaymentMethod: model.PaymentMethodZelle, Status: model.TransactionStatusSucceeded,
		Amount: decimal.RequireFromString("150"), PaymentDate: bt.Date, CollectedBy: "op-1", SourceSystem: model.SourceBankCSV}, nil)
	f.ledger.On("EnqueueOutbox", mock.Anything, int64(40)).Return(nil)
	f.bank.On("MarkMatched", mock.Anything, int64(5), ptr(int64(7))).Return(true, nil)
	f.ledger.On("CreateEntry", ctx, mock.MatchedBy(func(e *model.LedgerEntry) bool { return e.Category == "INC001" })).
		Return(&model.LedgerEntry{ID: 90, Category: "INC001"}, true, nil)
	f.ledger.On("MarkOutboxPosted", ctx, int64(40)).Return(nil)
	f.memos.On("Upsert", ctx, mock.MatchedBy(func(m *model.ZelleMemoMatch) bool {
		return m.Memo == "JOHN DOE" && m.MemberID == 7 && m.LastName == "Doe"
	})).Return(nil)

	res, err := f.service.Reconcile(ctx, model.ReconcileRequest{
		BankTransactionID: 5,
		MemberID:          ptr(int64(7)),
		PaymentType:       model.PaymentTypeMembershipDue,
		OperatorID:        "op-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.Transaction.ID)
	assert.Equal(t, int64(90), res.LedgerEntry.ID)
	assert.False(t, res.LedgerPending)
	assert.False(t, res.Linked)
	assert.Equal(t, model.BankStatusMatched, res.BankTransaction.Status)
	f.memos.AssertExpectations(t)
	f.bank.AssertExpectations(t)
}

func TestReconciliationService_Reconcile_RejectsFinalRow(t *testing.T) {
	for _, status := range []model.BankTransactionStatus{model.BankStatusMatched, model.BankStatusIgnored} {
		t.Run(string(status), func(t *testing.T) {
			f := newReconcileFixture()
			ctx := context.Background()
			bt := pendingBankTxn(5, "10.00", model.BankTypeDeposit, "DEPOSIT")
			bt.Status = status
			f.bank.On("GetByID", ctx, int64(5)).Return(bt, nil)

			_, err := f.service.Reconcile(ctx, model.ReconcileRequest{
				BankTransactionID: 5, PaymentType: model.PaymentTypeDonation, OperatorID: "op-1",
			})
			assert.ErrorIs(t, err, model.ErrConflict)
			assert.Equal(t, CodeAlreadyProcessed, ErrorCode(err))
			f.txns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestReconciliationService_Reconcile_NegativeAmountIsValidationError(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	f.bank.On("GetByID", ctx, int64(6)).Return(pendingBankTxn(6, "-20.00", model.BankTypeWithdrawal, "DEBIT CARD"), nil)

	_, err := f.service.Reconcile(ctx, model.ReconcileRequest{
		BankTransactionID: 6, PaymentType: model.PaymentTypeDonation, OperatorID: "op-1",
	})
	v, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "amount", v.Field)
}

func TestReconciliationService_Reconcile_CheckGetsReceiptNumber(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	bt := pendingBankTxn(8, "60.00", model.BankTypeCheck, "CHECK DEPOSIT")
	bt.CheckNumber = ptr("1042")

	f.bank.On("GetByID", ctx, int64(8)).Return(bt, nil)
	f.txns.On("Create", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.PaymentMethod == model.PaymentMethodCheck && *txn.ReceiptNumber == "1042" && txn.MemberID == nil
	})).Return(&model.Transaction{ID: 41, Status: model.TransactionStatusSucceeded, PaymentType: model.PaymentTypeOffering}, nil)
	f.ledger.On("EnqueueOutbox", mock.Anything, int64(41)).Return(nil)
	f.bank.On("MarkMatched", mock.Anything, int64(8), (*int64)(nil)).Return(true, nil)
	f.ledger.On("CreateEntry", ctx, mock.Anything).Return(&model.LedgerEntry{ID: 91}, true, nil)
	f.ledger.On("MarkOutboxPosted", ctx, int64(41)).Return(nil)

	res, err := f.service.Reconcile(ctx, model.ReconcileRequest{
		BankTransactionID: 8, PaymentType: model.PaymentTypeOffering, OperatorID: "op-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), res.Transaction.ID)
	f.memos.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestReconciliationService_Reconcile_LedgerFailureKeepsTransaction(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	bt := pendingBankTxn(9, "30.00", model.BankTypeDeposit, "DEPOSIT")

	f.bank.On("GetByID", ctx, int64(9)).Return(bt, nil)
	f.txns.On("Create", mock.Anything, mock.Anything).
		Return(&model.Transaction{ID: 42, Status: model.TransactionStatusSucceeded, PaymentType: model.PaymentTypeDonation}, nil)
	f.ledger.On("EnqueueOutbox", mock.Anything, int64(42)).Return(nil)
	f.bank.On("MarkMatched", mock.Anything, int64(9), mock.Anything).Return(true, nil)
	f.ledger.On("CreateEntry", ctx, mock.Anything).Return(nil, false, assert.AnError)
	f.ledger.On("RecordOutboxFailure", ctx, int64(42), mock.Anything).Return(nil)

	res, err := f.service.Reconcile(ctx, model.ReconcileRequest{
		BankTransactionID: 9, PaymentType: model.PaymentTypeDonation, OperatorID: "op-1",
	})
	require.NoError(t, err)
	assert.Nil(t, res.LedgerEntry)
	assert.True(t, res.LedgerPending)
	f.ledger.AssertExpectations(t)
}

func TestReconciliationService_Reconcile_LinksExistingTransaction(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	bt := pendingBankTxn(10, "75.00", model.BankTypeDeposit, "DEPOSIT")

	f.bank.On("GetByID", ctx, int64(10)).Return(bt, nil)
	f.txns.On("GetByID", ctx, int64(33)).Return(&model.Transaction{ID: 33, MemberID: ptr(int64(7))}, nil)
	f.txns.On("LinkBankTransaction", mock.Anything, int64(33), int64(10)).Return(true, nil)
	f.bank.On("MarkMatched", mock.Anything, int64(10), ptr(int64(7))).Return(true, nil)
	f.members.On("GetByID", ctx, int64(7)).Return(johnDoe, nil)
	f.memos.On("Upsert", ctx, mock.Anything).Return(nil)

	res, err := f.service.Reconcile(ctx, model.ReconcileRequest{
		BankTransactionID: 10, ExistingTransactionID: ptr(int64(33)), OperatorID: "op-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Linked)
	assert.Equal(t, int64(10), *res.Transaction.BankTransactionID)
	f.txns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
}

func TestReconciliationService_Reconcile_AlreadyLinkedTransactionConflicts(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()

	f.bank.On("GetByID", ctx, int64(10)).Return(pendingBankTxn(10, "75.00", model.BankTypeDeposit, "DEPOSIT"), nil)
	f.txns.On("GetByID", ctx, int64(33)).Return(&model.Transaction{ID: 33}, nil)
	f.txns.On("LinkBankTransaction", mock.Anything, int64(33), int64(10)).Return(false, nil)

	_, err := f.service.Reconcile(ctx, model.ReconcileRequest{
		BankTransactionID: 10, ExistingTransactionID: ptr(int64(33)), OperatorID: "op-1",
	})
	assert.ErrorIs(t, err, model.ErrConflict)
	f.bank.AssertNotCalled(t, "MarkMatched", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciliationService_ReconcileBulk(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()

	done := pendingBankTxn(1, "10.00", model.BankTypeDeposit, "DEPOSIT")
	done.Status = model.BankStatusMatched
	f.bank.On("GetByID", ctx, int64(1)).Return(done, nil)
	f.bank.On("GetByID", ctx, int64(2)).Return(nil, model.NotFoundf("bank transaction 2"))
	f.bank.On("GetByID", ctx, int64(3)).Return(pendingBankTxn(3, "-5.00", model.BankTypeWithdrawal, "FEE"), nil)

	report := f.service.ReconcileBulk(ctx, []model.ReconcileRequest{
		{BankTransactionID: 1, PaymentType: model.PaymentTypeDonation, OperatorID: "op-1"},
		{BankTransactionID: 2, PaymentType: model.PaymentTypeDonation, OperatorID: "op-1"},
		{BankTransactionID: 3, PaymentType: model.PaymentTypeDonation, OperatorID: "op-1"},
		{BankTransactionID: 4, PaymentType: "bogus", OperatorID: "op-1"},
	})

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 4, report.Failed)
	codes := make([]string, 0, len(report.Items))
	for _, item := range report.Items {
		codes = append(codes, item.Code)
	}
	assert.Equal(t, []string{CodeAlreadyProcessed, CodeNotFound, CodeValidation, CodeValidation}, codes)
}

func TestReconciliationService_Ignore(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	bt := pendingBankTxn(12, "5.00", model.BankTypeDeposit, "DEPOSIT")
	ignored := *bt
	ignored.Status = model.BankStatusIgnored

	f.bank.On("GetByID", ctx, int64(12)).Return(bt, nil).Once()
	f.bank.On("MarkIgnored", ctx, int64(12)).Return(true, nil)
	f.bank.On("GetByID", ctx, int64(12)).Return(&ignored, nil).Once()

	got, err := f.service.Ignore(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, model.BankStatusIgnored, got.Status)
}

func TestReconciliationService_ReconcileExpense(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	bt := pendingBankTxn(20, "-85.50", model.BankTypeWithdrawal, "PG&E UTILITY PAYMENT")

	f.bank.On("GetByID", ctx, int64(20)).Return(bt, nil).Once()
	f.bank.On("GetByID", ctx, int64(20)).Return(matched(bt, nil), nil).Once()
	f.bank.On("MarkMatched", mock.Anything, int64(20), (*int64)(nil)).Return(true, nil)
	f.ledger.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *model.LedgerEntry) bool {
		return e.Type == model.LedgerTypeExpense && e.Category == "EXP002" && e.TransactionID == nil &&
			e.Amount.Equal(decimal.RequireFromString("85.50")) && *e.Memo == "PG&E UTILITY PAYMENT"
	})).Return(&model.LedgerEntry{ID: 100, Type: model.LedgerTypeExpense}, true, nil)

	res, err := f.service.ReconcileExpense(ctx, model.ExpenseReconcileRequest{
		BankTransactionID: 20, GLCode: "EXP002", OperatorID: "op-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.LedgerEntry.ID)
	assert.Equal(t, model.BankStatusMatched, res.BankTransaction.Status)
}

func TestReconciliationService_ReconcileExpense_Validation(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	f.bank.On("GetByID", ctx, int64(21)).Return(pendingBankTxn(21, "40.00", model.BankTypeDeposit, "DEPOSIT"), nil)

	_, err := f.service.ReconcileExpense(ctx, model.ExpenseReconcileRequest{BankTransactionID: 21, GLCode: "NOPE", OperatorID: "op-1"})
	v, ok := model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "gl_code", v.Field)

	_, err = f.service.ReconcileExpense(ctx, model.ExpenseReconcileRequest{BankTransactionID: 21, GLCode: "EXP006", OperatorID: "op-1"})
	v, ok = model.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "amount", v.Field)
}
