// Package ingest receives normalized payment notifications from upstream
// relays (the Zelle mail parser, the Stripe relay) and records them as
// transactions.
package ingest

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parishworks/parish-ledger/internal/matching"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const HeaderSharedSecret = "X-Ingest-Secret"

type Recorder interface {
	Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error)
}

type MemberLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Member, error)
}

type MemoStore interface {
	Upsert(ctx context.Context, m *model.ZelleMemoMatch) error
}

type Config struct {
	OperatorID   string
	SharedSecret string
}

// PaymentNotification is one upstream payment.
type PaymentNotification struct {
	ExternalID    string  `json:"external_id" binding:"required"`
	Source        string  `json:"source" binding:"required"`
	MemberID      *int64  `json:"member_id"`
	Amount        string  `json:"amount" binding:"required"`
	PaymentDate   string  `json:"payment_date" binding:"required"`
	PaymentType   string  `json:"payment_type"`
	PaymentMethod string  `json:"payment_method"`
	Memo          *string `json:"memo"`
}

type Handler struct {
	cfg      Config
	recorder Recorder
	members  MemberLookup
	memos    MemoStore
	log      zerolog.Logger
}

func NewHandler(cfg Config, recorder Recorder, members MemberLookup, memos MemoStore, log zerolog.Logger) *Handler {
	if cfg.OperatorID == "" {
		cfg.OperatorID = "system:ingest"
	}
	return &Handler{cfg: cfg, recorder: recorder, members: members, memos: memos, log: log}
}

// RequireSecret rejects requests without the shared secret. An empty secret
// disables the service entirely.
func (h *Handler) RequireSecret(c *gin.Context) {
	got := c.GetHeader(HeaderSharedSecret)
	if h.cfg.SharedSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.SharedSecret)) != 1 {
		h.log.Warn().Str("remote", c.ClientIP()).Msg("rejected webhook without valid secret")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid shared secret"})
		return
	}
	c.Next()
}

func (h *Handler) ReceivePayment(c *gin.Context) {
	var n PaymentNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	req, err := h.toRequest(n)
	if err != nil {
		h.writeError(c, err)
		return
	}

	log := h.log.With().
		Str("external_id", n.ExternalID).
		Str("source", req.SourceSystem).
		Logger()

	res, err := h.recorder.Create(c.Request.Context(), req)
	if errors.Is(err, model.ErrConflict) {
		log.Info().Msg("payment already recorded")
		c.JSON(http.StatusOK, gin.H{"status": "already_recorded"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	log.Info().
		Int64("transaction_id", res.Transaction.ID).
		Str("amount", res.Transaction.Amount.StringFixed(2)).
		Bool("ledger_pending", res.LedgerPending).
		Msg("payment recorded")

	if req.SourceSystem == model.SourceZelle && n.MemberID != nil && n.Memo != nil {
		h.rememberMemo(c.Request.Context(), *n.MemberID, *n.Memo)
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":         "recorded",
		"transaction_id": res.Transaction.ID,
		"ledger_pending": res.LedgerPending,
	})
}

func (h *Handler) toRequest(n PaymentNotification) (model.TransactionCreateRequest, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(n.Amount))
	if err != nil {
		return model.TransactionCreateRequest{}, model.NewValidationError("amount", "must be a decimal number")
	}
	date, err := parseDate(n.PaymentDate)
	if err != nil {
		return model.TransactionCreateRequest{}, model.NewValidationError("payment_date", "must be YYYY-MM-DD or RFC3339")
	}
	source := strings.ToLower(strings.TrimSpace(n.Source))

	method := model.PaymentMethod(strings.ToLower(n.PaymentMethod))
	if method == "" {
		method = defaultMethod(source)
	}
	ptype := model.PaymentType(strings.ToLower(n.PaymentType))
	if ptype == "" {
		ptype = model.PaymentTypeDonation
	}
	ext := strings.TrimSpace(n.ExternalID)

	return model.TransactionCreateRequest{
		MemberID:      n.MemberID,
		CollectedBy:   h.cfg.OperatorID,
		PaymentDate:   date,
		Amount:        amount,
		PaymentType:   ptype,
		PaymentMethod: method,
		Status:        model.TransactionStatusSucceeded,
		ExternalID:    &ext,
		Note:          n.Memo,
		SourceSystem:  source,
	}, nil
}

func defaultMethod(source string) model.PaymentMethod {
	switch source {
	case model.SourceZelle:
		return model.PaymentMethodZelle
	case model.SourceStripe:
		return model.PaymentMethodCreditCard
	}
	return model.PaymentMethodOther
}

// rememberMemo is best-effort: the payment is already recorded.
func (h *Handler) rememberMemo(ctx context.Context, memberID int64, memo string) {
	key := matching.NormalizeMemo(memo)
	if key == "" {
		return
	}
	m, err := h.members.GetByID(ctx, memberID)
	if err != nil {
		h.log.Warn().Err(err).Int64("member_id", memberID).Msg("memo match skipped")
		return
	}
	err = h.memos.Upsert(ctx, &model.ZelleMemoMatch{
		MemberID:  m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Memo:      key,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("memo", key).Msg("memo match upsert failed")
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if v, ok := model.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Message, "field": v.Field})
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.log.Error().Err(err).Msg("payment ingest failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
