package bankcsv

import (
	"strings"
	"testing"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chaseExport = `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #,
CREDIT,01/05/2024,"Zelle payment from JOHN DOE BACabc12345",100.00,QUICKPAY_CREDIT,1100.00,,
DEBIT,01/06/2024,"CHECK 1042",-250.00,CHECK_PAID,850.00,1042,
CREDIT,01/07/2024,"ORIG CO NAME:ACME FOUNDATION ORIG ID:123456 DESC DATE:240107 CO ENTRY DESCR:GIFT SEC:CCD TRACE#:021000021234567 EED:240107",500.00,ACH_CREDIT,1350.00,,
CREDIT,01/08/2024,"REMOTE ONLINE DEPOSIT",40.00,DEPOSIT,,,
DEBIT,not-a-date,"BROKEN",-1.00,,,,
`

func TestParser_ChaseExport(t *testing.T) {
	res, err := NewParser().Parse(strings.NewReader(chaseExport))
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 6, res.Skipped[0].Line)

	zelle := res.Rows[0]
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), zelle.Date)
	assert.True(t, decimal.NewFromInt(100).Equal(zelle.Amount))
	assert.Equal(t, model.BankTypeZelle, zelle.Type)
	require.NotNil(t, zelle.PayerName)
	assert.Equal(t, "JOHN DOE", *zelle.PayerName)
	require.NotNil(t, zelle.ExternalRefID)
	assert.Equal(t, "BACabc12345", *zelle.ExternalRefID)
	require.NotNil(t, zelle.Balance)
	assert.Equal(t, "1100.00", zelle.Balance.StringFixed(2))
	assert.Equal(t, "QUICKPAY_CREDIT", zelle.RawData["Type"])
	assert.Len(t, zelle.TransactionHash, 64)

	check := res.Rows[1]
	assert.Equal(t, model.BankTypeCheck, check.Type)
	require.NotNil(t, check.CheckNumber)
	assert.Equal(t, "1042", *check.CheckNumber)
	assert.Nil(t, check.PayerName)

	ach := res.Rows[2]
	assert.Equal(t, model.BankTypeACH, ach.Type)
	require.NotNil(t, ach.PayerName)
	assert.Equal(t, "ACME FOUNDATION", *ach.PayerName)
	require.NotNil(t, ach.ExternalRefID)
	assert.Equal(t, "021000021234567", *ach.ExternalRefID)

	deposit := res.Rows[3]
	assert.Equal(t, model.BankTypeDeposit, deposit.Type)
	assert.Nil(t, deposit.Balance)
	assert.Nil(t, deposit.PayerName)
}

func TestParser_HashIsStable(t *testing.T) {
	first, err := NewParser().Parse(strings.NewReader(chaseExport))
	require.NoError(t, err)
	second, err := NewParser().Parse(strings.NewReader(chaseExport))
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].TransactionHash, second.Rows[i].TransactionHash)
		assert.False(t, seen[first.Rows[i].TransactionHash])
		seen[first.Rows[i].TransactionHash] = true
	}
}

func TestHash(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("50")
	bal := decimal.RequireFromString("1000.5")

	noBalance := Hash(date, amount, nil, "ZELLE FROM A B")
	assert.Equal(t, noBalance, Hash(date, amount, nil, "ZELLE  FROM A B"))
	assert.NotEqual(t, noBalance, Hash(date, amount, &bal, "ZELLE FROM A B"))
	assert.Equal(t, Hash(date, amount, &bal, "X"), Hash(date, decimal.RequireFromString("50.00"), &bal, "X"))

	other := decimal.RequireFromString("999")
	assert.NotEqual(t, Hash(date, amount, &bal, "X"), Hash(date, amount, &other, "X"))
}

func TestParser_DebitCreditColumns(t *testing.T) {
	data := "Date,Description,Debit,Credit,Running Balance\n" +
		"2024-02-01,OFFERING DEPOSIT,,\"1,250.00\",5000.00\n" +
		"2024-02-02,UTILITY BILL,(80.25),,4919.75\n"

	res, err := NewParser().Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "1250.00", res.Rows[0].Amount.StringFixed(2))
	assert.Equal(t, model.BankTypeDeposit, res.Rows[0].Type)
	assert.Equal(t, "-80.25", res.Rows[1].Amount.StringFixed(2))
	assert.Equal(t, model.BankTypeWithdrawal, res.Rows[1].Type)
}

func TestParser_HeaderErrors(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = NewParser().Parse(strings.NewReader("Foo,Description,Amount\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = NewParser().Parse(strings.NewReader("Date,Description\n01/01/2024,X\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParser_AllRowsMalformed(t *testing.T) {
	res, err := NewParser().Parse(strings.NewReader("Date,Description,Amount\nbad,X,1\n01/02/2024,,5\n01/02/2024,Y,abc\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Len(t, res.Skipped, 3)
}

func TestDeriveType(t *testing.T) {
	num := "77"
	tests := []struct {
		name   string
		amount string
		desc   string
		check  *string
		want   model.BankTransactionType
	}{
		{"zero", "0", "ZELLE FROM X", nil, model.BankTypeUnknown},
		{"zelle credit", "20", "Zelle From Jane Roe", nil, model.BankTypeZelle},
		{"zelle debit", "-20", "Zelle payment to Vendor", nil, model.BankTypeZelle},
		{"check by description", "-10", "CHECK 12", nil, model.BankTypeCheck},
		{"check by column", "-10", "PAID ITEM", &num, model.BankTypeCheck},
		{"deposited check", "10", "CHECK DEPOSIT", nil, model.BankTypeDeposit},
		{"ach", "10", "ACH CREDIT PAYROLL", nil, model.BankTypeACH},
		{"ach orig", "-10", "ORIG CO NAME:POWER CO ORIG ID:1", nil, model.BankTypeACH},
		{"each is not ach", "10", "EACH MONTH", nil, model.BankTypeDeposit},
		{"withdrawal", "-5", "ATM", nil, model.BankTypeWithdrawal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveType(decimal.RequireFromString(tt.amount), tt.desc, tt.check)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPayer(t *testing.T) {
	tests := []struct {
		desc      string
		wantPayer string
		wantRef   string
	}{
		{"ZELLE FROM JOHN DOE", "JOHN DOE", ""},
		{"Zelle From Mary Ann Smith on 01/05 Ref # PP0ABC123", "Mary Ann Smith", "PP0ABC123"},
		{"Zelle payment from ABEBE KEBEDE 19283746", "ABEBE KEBEDE", "19283746"},
		{"ORIG CO NAME:GIVING FUND ORIG ID:99 TRACE#:555 EED:1", "GIVING FUND", "555"},
		{"ACH DEPOSIT IND NAME:SARA TESFAY TRN: 1234", "SARA TESFAY", ""},
		{"POS PURCHASE OFFICE DEPOT", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			payer, ref := ExtractPayer(tt.desc)
			if tt.wantPayer == "" {
				assert.Nil(t, payer)
			} else {
				require.NotNil(t, payer)
				assert.Equal(t, tt.wantPayer, *payer)
			}
			if tt.wantRef == "" {
				assert.Nil(t, ref)
			} else {
				require.NotNil(t, ref)
				assert.Equal(t, tt.wantRef, *ref)
			}
		})
	}
}
