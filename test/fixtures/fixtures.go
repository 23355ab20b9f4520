package fixtures

import (
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// MarchStatement is a bank export with two Zelle dues payments from the Doe
// household, a check deposit, a bank fee and a line repeated by the bank.
const MarchStatement = `Posting Date,Description,Amount,Balance,Check or Slip #
03/01/2024,ZELLE FROM JOHN DOE ON 03/01 REF # PP0AAA111,100.00,1100.00,
03/01/2024,ZELLE FROM JOHN DOE ON 03/01 REF # PP0AAA111,100.00,1100.00,
03/05/2024,ZELLE FROM JANE DOE ON 03/05 REF # PP0BBB222,100.00,1200.00,
03/08/2024,DEPOSIT CHECK,250.00,1450.00,1042
03/31/2024,MONTHLY SERVICE FEE,-15.00,1435.00,
`

// MarchStatementWithoutBalance is the same export downloaded before the bank
// filled in running balances.
const MarchStatementWithoutBalance = `Posting Date,Description,Amount,Balance,Check or Slip #
03/01/2024,ZELLE FROM JOHN DOE ON 03/01 REF # PP0AAA111,100.00,,
03/01/2024,ZELLE FROM JOHN DOE ON 03/01 REF # PP0AAA111,100.00,,
03/05/2024,ZELLE FROM JANE DOE ON 03/05 REF # PP0BBB222,100.00,,
03/08/2024,DEPOSIT CHECK,250.00,,1042
03/31/2024,MONTHLY SERVICE FEE,-15.00,,
`

func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Pledge(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// DoeHead pledges 1200 a year, 100 a month.
func DoeHead() *model.Member {
	joined := Day(2020, time.January, 1)
	return &model.Member{
		FirstName:         "John",
		LastName:          "Doe",
		IsHeadOfHousehold: true,
		YearlyPledge:      Pledge("1200"),
		DateJoinedParish:  &joined,
	}
}

func DoeSpouse(familyID int64) *model.Member {
	return &model.Member{
		FirstName: "Jane",
		LastName:  "Doe",
		FamilyID:  &familyID,
	}
}

func Anonymous() *model.Member {
	return &model.Member{FirstName: "Abebe", LastName: "Kebede"}
}
