package services

import (
	"context"
	"errors"

	"github.com/parishworks/parish-ledger/internal/matching"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/logger"
)

const defaultDuplicateWindowDays = 3

// SuggestionService attaches member suggestions and potential duplicates to
// pending bank rows. It never writes.
type SuggestionService struct {
	bank       BankTransactionRepository
	memos      MemoMatchRepository
	members    MemberRepository
	txns       TransactionRepository
	windowDays int
}

func NewSuggestionService(bank BankTransactionRepository, memos MemoMatchRepository, members MemberRepository, txns TransactionRepository, windowDays int) *SuggestionService {
	if windowDays <= 0 {
		windowDays = defaultDuplicateWindowDays
	}
	return &SuggestionService{
		bank:       bank,
		memos:      memos,
		members:    members,
		txns:       txns,
		windowDays: windowDays,
	}
}

// Suggest returns the best member suggestion for bt, or nil, and the recorded
// transactions that may be the same payment.
func (s *SuggestionService) Suggest(ctx context.Context, bt *model.BankTransaction) (*model.MemberSuggestion, []*model.Transaction, error) {
	suggestion, err := s.suggestMember(ctx, bt)
	if err != nil {
		return nil, nil, err
	}
	dups, err := s.txns.FindPotentialDuplicates(ctx, model.AbsAmount(bt.Amount), bt.Date, s.windowDays, bt.ID)
	if err != nil {
		return nil, nil, err
	}
	if dups == nil {
		dups = []*model.Transaction{}
	}
	return suggestion, dups, nil
}

func (s *SuggestionService) suggestMember(ctx context.Context, bt *model.BankTransaction) (*model.MemberSuggestion, error) {
	if memo := matching.NormalizeMemo(bt.Description); memo != "" {
		m, err := s.memos.FindByMemo(ctx, memo)
		switch {
		case err == nil:
			return &model.MemberSuggestion{
				MemberID:   m.MemberID,
				FirstName:  m.FirstName,
				LastName:   m.LastName,
				Confidence: model.ConfidenceHigh,
				Basis:      model.BasisMemo,
			}, nil
		case !errors.Is(err, model.ErrNotFound):
			return nil, err
		}
	}

	if bt.PayerName == nil || *bt.PayerName == "" {
		return nil, nil
	}
	tokens := matching.NameTokens(*bt.PayerName)
	if len(tokens) == 0 {
		return nil, nil
	}
	candidates, err := s.members.FindByNameTokens(ctx, tokens)
	if err != nil {
		return nil, err
	}
	m := matching.MatchByName(*bt.PayerName, candidates)
	if m == nil {
		return nil, nil
	}
	return &model.MemberSuggestion{
		MemberID:   m.ID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Confidence: model.ConfidenceMedium,
		Basis:      model.BasisPayerName,
	}, nil
}

// ListWithSuggestions lists bank rows; only PENDING rows get suggestions.
// A failed suggestion lookup leaves that row without one.
func (s *SuggestionService) ListWithSuggestions(ctx context.Context, f model.BankTransactionFilter) ([]*model.BankTransactionWithSuggestions, int64, error) {
	rows, total, err := s.bank.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*model.BankTransactionWithSuggestions, 0, len(rows))
	for _, bt := range rows {
		item := &model.BankTransactionWithSuggestions{
			BankTransaction:     bt,
			PotentialDuplicates: []*model.Transaction{},
		}
		if bt.Status == model.BankStatusPending {
			suggestion, dups, err := s.Suggest(ctx, bt)
			if err != nil {
				logger.Warn("computing suggestions failed", "bank_transaction_id", bt.ID, "error", err)
			} else {
				item.Suggestion = suggestion
				item.PotentialDuplicates = dups
			}
		}
		out = append(out, item)
	}
	return out, total, nil
}
