package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

const (
	TradelineOpen       = "open"
	TradelineClosed     = "closed"
	TradelineDelinquent = "delinquent"
)

// AccountTypeCreditCard is the only revolving account type counted toward utilization.
const AccountTypeCreditCard = "credit-card"

var (
	bureaus      = []string{"equifax", "experian", "transunion"}
	scoreModels  = []string{"fico", "vantage"}
	accountTypes = []string{AccountTypeCreditCard, "auto-loan", "personal-loan", "student-loan", "mortgage", "other"}
)

// CreditScore is one reported score snapshot.
type CreditScore struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Score      int       `json:"score"`
	Bureau     string    `json:"bureau"`
	Model      string    `json:"model"`
	RecordedAt time.Time `json:"recordedAt"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Tradeline is a credit account tracked for credit monitoring.
type Tradeline struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	Creditor       string          `json:"creditor"`
	AccountType    string          `json:"accountType"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	Balance        decimal.Decimal `json:"balance"`
	Status         string          `json:"status"`
	OpenedAt       *time.Time      `json:"openedAt,omitempty"`
	LastReportedAt *time.Time      `json:"lastReportedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Revolving reports whether the tradeline counts toward utilization.
func (t Tradeline) Revolving() bool {
	return t.AccountType == AccountTypeCreditCard && t.Status != TradelineClosed
}

// CreditSummary aggregates scores and tradelines for the credit card on the dashboard.
type CreditSummary struct {
	LatestScore    *CreditScore    `json:"latestScore,omitempty"`
	ScoreChange    int             `json:"scoreChange"`
	Band           string          `json:"band,omitempty"`
	TotalLimit     decimal.Decimal `json:"totalLimit"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	UtilizationPct float64         `json:"utilizationPct"`
	OpenTradelines int             `json:"openTradelines"`
	Delinquent     int             `json:"delinquent"`
}

// ValidBureau reports whether b is a known credit bureau.
func ValidBureau(b string) bool { return contains(bureaus, b) }

// ValidScoreModel reports whether m is a known scoring model.
func ValidScoreModel(m string) bool { return contains(scoreModels, m) }

// ValidAccountType reports whether t is a known tradeline account type.
func ValidAccountType(t string) bool { return contains(accountTypes, t) }

// ValidTradelineStatus reports whether s is a known tradeline status.
func ValidTradelineStatus(s string) bool {
	return s == TradelineOpen || s == TradelineClosed || s == TradelineDelinquent
}
