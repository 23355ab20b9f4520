package services

import (
	"context"
	"errors"
	"strings"

	"github.com/parishworks/parish-ledger/internal/gl"
	"github.com/parishworks/parish-ledger/internal/locks"
	"github.com/parishworks/parish-ledger/internal/matching"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/prom"
)

// Outcome codes reported per bulk item and on metrics.
const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeAlreadyProcessed = "already_processed"
	CodeInternal         = "internal_error"
)

// ErrorCode classifies err into one of the outcome codes.
func ErrorCode(err error) string {
	if _, ok := model.AsValidationError(err); ok {
		return CodeValidation
	}
	switch {
	case errors.Is(err, model.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, model.ErrConflict):
		return CodeAlreadyProcessed
	}
	return CodeInternal
}

// ReconcileDeps groups the collaborators of ReconciliationService.
type ReconcileDeps struct {
	Tx           Transactor
	Bank         BankTransactionRepository
	Memos        MemoMatchRepository
	Members      MemberRepository
	Transactions TransactionRepository
	Ledger       LedgerRepository
	Recorder     *TransactionService
	Posting      *LedgerService
	Locker       locks.Locker
}

// ReconciliationService turns pending bank rows into recorded payments or
// expenses. Every path is one-shot per bank row.
type ReconciliationService struct {
	tx       Transactor
	bank     BankTransactionRepository
	memos    MemoMatchRepository
	members  MemberRepository
	txns     TransactionRepository
	ledger   LedgerRepository
	recorder *TransactionService
	posting  *LedgerService
	locker   locks.Locker
}

func NewReconciliationService(d ReconcileDeps) *ReconciliationService {
	locker := d.Locker
	if locker == nil {
		locker = locks.NoopLocker{}
	}
	return &ReconciliationService{
		tx:       d.Tx,
		bank:     d.Bank,
		memos:    d.Memos,
		members:  d.Members,
		txns:     d.Transactions,
		ledger:   d.Ledger,
		recorder: d.Recorder,
		posting:  d.Posting,
		locker:   locker,
	}
}

func (s *ReconciliationService) lock(ctx context.Context, bankTxID int64) (*locks.Lease, error) {
	lease, err := s.locker.Acquire(ctx, locks.BankTransactionKey(bankTxID))
	if errors.Is(err, locks.ErrLeaseHeld) {
		return nil, model.Conflictf("bank transaction %d is being reconciled", bankTxID)
	}
	return lease, err
}

func (s *ReconciliationService) release(ctx context.Context, lease *locks.Lease) {
	if err := lease.Release(ctx); err != nil {
		logger.Warn("releasing reconcile lease failed", "key", lease.Key(), "error", err)
	}
}

// loadPending returns the bank row if it may still be reconciled.
func (s *ReconciliationService) loadPending(ctx context.Context, id int64) (*model.BankTransaction, error) {
	bt, err := s.bank.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bt.IsFinal() {
		return nil, model.Conflictf("bank transaction %d is %s", id, bt.Status)
	}
	return bt, nil
}

// Reconcile matches one pending bank row, either by creating a Transaction
// for it or by linking a Transaction recorded earlier.
func (s *ReconciliationService) Reconcile(ctx context.Context, req model.ReconcileRequest) (*model.ReconcileResult, error) {
	res, err := s.reconcile(ctx, req)
	prom.IncReconcileOutcome("income", outcome(err))
	return res, err
}

func (s *ReconciliationService) reconcile(ctx context.Context, req model.ReconcileRequest) (*model.ReconcileResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lease, err := s.lock(ctx, req.BankTransactionID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, lease)

	bt, err := s.loadPending(ctx, req.BankTransactionID)
	if err != nil {
		return nil, err
	}

	var member *model.Member
	if req.MemberID != nil {
		if member, err = s.members.GetByID(ctx, *req.MemberID); err != nil {
			return nil, err
		}
	}

	var res *model.ReconcileResult
	if req.ExistingTransactionID != nil {
		res, err = s.link(ctx, bt, *req.ExistingTransactionID, req.MemberID)
	} else {
		res, err = s.create(ctx, bt, req)
	}
	if err != nil {
		return nil, err
	}

	lg := logger.With("bank_transaction_id", bt.ID, "operator_id", req.OperatorID)
	if res.Linked {
		lg.Info("bank transaction linked", "transaction_id", res.Transaction.ID)
	} else {
		lg.Info("bank transaction reconciled", "transaction_id", res.Transaction.ID, "ledger_posted", res.LedgerEntry != nil)
	}

	if member == nil && res.Transaction.MemberID != nil {
		member, _ = s.members.GetByID(ctx, *res.Transaction.MemberID)
	}
	s.rememberMemo(ctx, bt, member)

	if res.BankTransaction, err = s.bank.GetByID(ctx, bt.ID); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReconciliationService) link(ctx context.Context, bt *model.BankTransaction, txnID int64, memberID *int64) (*model.ReconcileResult, error) {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if memberID == nil {
		memberID = txn.MemberID
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		linked, err := s.txns.LinkBankTransaction(ctx, txn.ID, bt.ID)
		if err != nil {
			return err
		}
		if !linked {
			return model.Conflictf("transaction %d is already linked to a bank transaction", txn.ID)
		}
		matched, err := s.bank.MarkMatched(ctx, bt.ID, memberID)
		if err != nil {
			return err
		}
		if !matched {
			return model.Conflictf("bank transaction %d is no longer pending", bt.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	txn.BankTransactionID = &bt.ID
	return &model.ReconcileResult{Transaction: txn, Linked: true}, nil
}

func (s *ReconciliationService) create(ctx context.Context, bt *model.BankTransaction, req model.ReconcileRequest) (*model.ReconcileResult, error) {
	if !bt.Amount.IsPositive() {
		return nil, model.NewValidationError("amount", "only deposits can be reconciled as income")
	}

	method := MethodFor(bt.Type)
	forYear := req.ForYear
	if forYear == nil {
		y := bt.Date.Year()
		forYear = &y
	}
	externalID := "bank:" + bt.TransactionHash
	note := bt.Description
	create := model.TransactionCreateRequest{
		MemberID:          req.MemberID,
		CollectedBy:       req.OperatorID,
		PaymentDate:       bt.Date,
		Amount:            model.AbsAmount(bt.Amount),
		PaymentType:       req.PaymentType,
		PaymentMethod:     method,
		Status:            model.TransactionStatusSucceeded,
		ReceiptNumber:     receiptFor(bt, method),
		ExternalID:        &externalID,
		ForYear:           forYear,
		Note:              &note,
		SourceSystem:      model.SourceBankCSV,
		BankTransactionID: &bt.ID,
	}

	txn, entry, err := s.recorder.Record(ctx, create, func(ctx context.Context, _ *model.Transaction) error {
		matched, err := s.bank.MarkMatched(ctx, bt.ID, req.MemberID)
		if err != nil {
			return err
		}
		if !matched {
			return model.Conflictf("bank transaction %d is no longer pending", bt.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.ReconcileResult{
		Transaction:   txn,
		LedgerEntry:   entry,
		LedgerPending: entry == nil,
	}, nil
}

// MethodFor infers the payment method of a bank row.
func MethodFor(t model.BankTransactionType) model.PaymentMethod {
	switch t {
	case model.BankTypeCheck:
		return model.PaymentMethodCheck
	case model.BankTypeZelle:
		return model.PaymentMethodZelle
	case model.BankTypeACH:
		return model.PaymentMethodACH
	}
	return model.PaymentMethodOther
}

func receiptFor(bt *model.BankTransaction, method model.PaymentMethod) *string {
	if bt.CheckNumber != nil && *bt.CheckNumber != "" {
		n := *bt.CheckNumber
		return &n
	}
	if !method.RequiresReceipt() {
		return nil
	}
	hash := bt.TransactionHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	r := "BANK-" + strings.ToUpper(hash)
	return &r
}

func (s *ReconciliationService) rememberMemo(ctx context.Context, bt *model.BankTransaction, member *model.Member) {
	if member == nil || s.memos == nil {
		return
	}
	memo := matching.NormalizeMemo(bt.Description)
	if memo == "" {
		return
	}
	err := s.memos.Upsert(ctx, &model.ZelleMemoMatch{
		MemberID:  member.ID,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Memo:      memo,
	})
	if err != nil {
		logger.Warn("memo match upsert failed", "bank_transaction_id", bt.ID, "member_id", member.ID, "error", err)
	}
}

// ReconcileBulk reconciles each request independently, in order. Items
// committed before a later failure stay committed.
func (s *ReconciliationService) ReconcileBulk(ctx context.Context, reqs []model.ReconcileRequest) *model.BulkReconcileReport {
	report := &model.BulkReconcileReport{Total: len(reqs), Items: make([]model.BulkReconcileItem, 0, len(reqs))}
	for _, req := range reqs {
		item := model.BulkReconcileItem{BankTransactionID: req.BankTransactionID}
		res, err := s.Reconcile(ctx, req)
		if err != nil {
			item.Code = ErrorCode(err)
			item.Message = err.Error()
			report.Failed++
			if item.Code == CodeInternal {
				logger.Error("bulk reconcile item failed", "bank_transaction_id", req.BankTransactionID, "error", err)
			}
		} else {
			item.Success = true
			item.Result = res
			report.Succeeded++
		}
		report.Items = append(report.Items, item)
	}
	return report
}

// Ignore moves a pending bank row to IGNORED.
func (s *ReconciliationService) Ignore(ctx context.Context, id int64) (*model.BankTransaction, error) {
	lease, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, lease)

	if _, err := s.loadPending(ctx, id); err != nil {
		return nil, err
	}
	ok, err := s.bank.MarkIgnored(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.Conflictf("bank transaction %d is no longer pending", id)
	}
	prom.IncReconcileOutcome("ignore", "ok")
	return s.bank.GetByID(ctx, id)
}

// ReconcileExpense records a withdrawal as a standalone expense entry and
// marks the bank row MATCHED in the same DB transaction.
func (s *ReconciliationService) ReconcileExpense(ctx context.Context, req model.ExpenseReconcileRequest) (*model.ExpenseReconcileResult, error) {
	res, err := s.reconcileExpense(ctx, req)
	prom.IncReconcileOutcome("expense", outcome(err))
	return res, err
}

func (s *ReconciliationService) reconcileExpense(ctx context.Context, req model.ExpenseReconcileRequest) (*model.ExpenseReconcileResult, error) {
	if req.BankTransactionID <= 0 {
		return nil, model.NewValidationError("bank_transaction_id", "is required")
	}
	if strings.TrimSpace(req.OperatorID) == "" {
		return nil, model.NewValidationError("collected_by", "is required")
	}
	code, err := s.posting.Mapping(ctx).ExpenseCode(strings.TrimSpace(req.GLCode))
	if errors.Is(err, gl.ErrUnknownExpenseCode) {
		return nil, model.NewValidationError("gl_code", err.Error())
	}
	if err != nil {
		return nil, err
	}

	lease, err := s.lock(ctx, req.BankTransactionID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, lease)

	bt, err := s.loadPending(ctx, req.BankTransactionID)
	if err != nil {
		return nil, err
	}
	if !bt.Amount.IsNegative() {
		return nil, model.NewValidationError("amount", "only withdrawals can be reconciled as expenses")
	}

	memo := strings.TrimSpace(req.Memo)
	if memo == "" {
		memo = bt.Description
	}
	operator := req.OperatorID
	method := string(MethodFor(bt.Type))
	entry := &model.LedgerEntry{
		Type:          model.LedgerTypeExpense,
		Category:      code,
		Amount:        model.AbsAmount(bt.Amount),
		EntryDate:     bt.Date,
		CollectedBy:   &operator,
		PaymentMethod: &method,
		Memo:          &memo,
		SourceSystem:  model.SourceBankCSV,
		ReceiptNumber: bt.CheckNumber,
	}

	var stored *model.LedgerEntry
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		matched, err := s.bank.MarkMatched(ctx, bt.ID, nil)
		if err != nil {
			return err
		}
		if !matched {
			return model.Conflictf("bank transaction %d is no longer pending", bt.ID)
		}
		stored, _, err = s.ledger.CreateEntry(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.With("bank_transaction_id", bt.ID, "operator_id", req.OperatorID).
		Info("bank transaction recorded as expense", "gl_code", code, "ledger_entry_id", stored.ID)

	updated, err := s.bank.GetByID(ctx, bt.ID)
	if err != nil {
		return nil, err
	}
	return &model.ExpenseReconcileResult{BankTransaction: updated, LedgerEntry: stored}, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return ErrorCode(err)
}
