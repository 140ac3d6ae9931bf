/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the drawer domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Composite response wrappers

TYPES:
  Session:   SessionDTO, OpenSessionRequest, CloseSessionRequest, CloseResponse
  Movement:  MovementDTO, RecordMovementRequest, AmendMovementRequest
  Stats:     StatsDTO
  Report:    ReportDTO, ReportRowDTO, SessionSummaryDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Struct tags (go-playground/validator) check the shape of a request:
  presence and length. Business rules (amount > 0, known payment method,
  float >= 0) belong to the drawer package and are not repeated here.

MONEY:
  Amounts are decimal.Decimal and marshal as JSON strings, never as floats.
  The string is the exact value with trailing zeros trimmed: 1000.00 is sent
  as "1000" and 42.50 as "42.5". Clients format for display.

SEE ALSO:
  - handlers.go: Uses these types
  - drawer/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/cashdrawer/drawer"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// OpenSessionRequest opens today's session. Owner fields fall back to the
// X-Actor-* headers when omitted.
type OpenSessionRequest struct {
	OwnerID      string          `json:"owner_id"      validate:"omitempty,max=64"`
	OwnerName    string          `json:"owner_name"    validate:"omitempty,max=120"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type RecordMovementRequest struct {
	Kind          string          `json:"kind"           validate:"required,max=16"`
	Amount        decimal.Decimal `json:"amount"`
	Concept       string          `json:"concept"        validate:"max=200"`
	PaymentMethod string          `json:"payment_method" validate:"max=32"`
	Observations  string          `json:"observations"   validate:"max=500"`
}

// AmendMovementRequest replaces the fields that are present.
type AmendMovementRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Concept       *string          `json:"concept"        validate:"omitempty,max=200"`
	PaymentMethod *string          `json:"payment_method" validate:"omitempty,max=32"`
	Observations  *string          `json:"observations"   validate:"omitempty,max=500"`
}

type CloseSessionRequest struct {
	DeclaredCashAmount *decimal.Decimal `json:"declared_cash_amount" validate:"required"`
}

// LoadScenarioRequest picks a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type SessionDTO struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	OwnerID      string           `json:"owner_id"`
	OwnerName    string           `json:"owner_name"`
	OpeningFloat decimal.Decimal  `json:"opening_float"`
	OpenedAt     string           `json:"opened_at"`
	ClosedAt     *string          `json:"closed_at"`
	Status       string           `json:"status"`
	DeclaredCash *decimal.Decimal `json:"declared_cash_amount"`
	Discrepancy  *decimal.Decimal `json:"discrepancy"`
}

type MovementDTO struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	Date           string          `json:"date"`
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Concept        string          `json:"concept"`
	PaymentMethod  string          `json:"payment_method"`
	Observations   string          `json:"observations,omitempty"`
	RecordedAt     string          `json:"recorded_at"`
	RecordedByID   string          `json:"recorded_by_id"`
	RecordedByName string          `json:"recorded_by_name"`
}

type StatsDTO struct {
	OpeningFloat     decimal.Decimal `json:"opening_float"`
	CashIncome       decimal.Decimal `json:"cash_income"`
	CashExpenses     decimal.Decimal `json:"cash_expenses"`
	TransferIncome   decimal.Decimal `json:"transfer_income"`
	CardIncome       decimal.Decimal `json:"card_income"`
	OtherIncome      decimal.Decimal `json:"other_income"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	OverallBalance   decimal.Decimal `json:"overall_balance"`
	TransactionCount int             `json:"transaction_count"`
}

type ReconciliationDTO struct {
	CashBalance  decimal.Decimal `json:"cash_balance"`
	DeclaredCash decimal.Decimal `json:"declared_cash_amount"`
	Discrepancy  decimal.Decimal `json:"discrepancy"`
	Outcome      string          `json:"outcome"`
	Flagged      bool            `json:"flagged"`
}

// CloseResponse is returned by a successful close. The reconciliation is
// advisory: a flagged discrepancy still means the close succeeded.
type CloseResponse struct {
	Session        SessionDTO        `json:"session"`
	Stats          StatsDTO          `json:"stats"`
	Reconciliation ReconciliationDTO `json:"reconciliation"`
}

type ReportRowDTO struct {
	MovementID     string          `json:"movement_id"`
	SessionID      string          `json:"session_id"`
	Date           string          `json:"date"`
	RecordedAt     string          `json:"recorded_at"`
	Kind           string          `json:"kind"`
	PaymentMethod  string          `json:"payment_method"`
	Concept        string          `json:"concept"`
	Amount         decimal.Decimal `json:"amount"`
	Signed         decimal.Decimal `json:"signed_amount"`
	Observations   string          `json:"observations,omitempty"`
	RecordedByID   string          `json:"recorded_by_id"`
	RecordedByName string          `json:"recorded_by_name"`
}

type SessionSummaryDTO struct {
	Session SessionDTO `json:"session"`
	Stats   StatsDTO   `json:"stats"`
}

type ReportDTO struct {
	OwnerID          string                     `json:"owner_id,omitempty"`
	Date             string                     `json:"date,omitempty"`
	GeneratedAt      string                     `json:"generated_at"`
	Rows             []ReportRowDTO             `json:"rows"`
	TotalsByMethod   map[string]decimal.Decimal `json:"totals_by_method"`
	OpeningFloat     decimal.Decimal            `json:"opening_float"`
	TotalIncome      decimal.Decimal            `json:"total_income"`
	TotalExpenses    decimal.Decimal            `json:"total_expenses"`
	CashBalance      decimal.Decimal            `json:"cash_balance"`
	OverallBalance   decimal.Decimal            `json:"overall_balance"`
	TransactionCount int                        `json:"transaction_count"`
	Sessions         []SessionSummaryDTO        `json:"sessions"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

const timeLayout = time.RFC3339

func toSessionDTO(s drawer.Session) SessionDTO {
	dto := SessionDTO{
		ID:           string(s.ID),
		Date:         s.Date.String(),
		OwnerID:      string(s.OwnerID),
		OwnerName:    s.OwnerName,
		OpeningFloat: s.OpeningFloat,
		OpenedAt:     s.OpenedAt.Format(timeLayout),
		Status:       string(s.Status),
		DeclaredCash: s.DeclaredCash,
		Discrepancy:  s.Discrepancy,
	}
	if s.ClosedAt != nil {
		c := s.ClosedAt.Format(timeLayout)
		dto.ClosedAt = &c
	}
	return dto
}

func toSessionDTOs(sessions []drawer.Session) []SessionDTO {
	dtos := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		dtos[i] = toSessionDTO(s)
	}
	return dtos
}

func toMovementDTO(m drawer.Movement) MovementDTO {
	return MovementDTO{
		ID:             string(m.ID),
		SessionID:      string(m.SessionID),
		Date:           m.Date.String(),
		Kind:           string(m.Kind),
		Amount:         m.Amount,
		Concept:        m.Concept,
		PaymentMethod:  string(m.PaymentMethod),
		Observations:   m.Observations,
		RecordedAt:     m.RecordedAt.Format(timeLayout),
		RecordedByID:   string(m.RecordedByID),
		RecordedByName: m.RecordedByName,
	}
}

func toMovementDTOs(movements []drawer.Movement) []MovementDTO {
	dtos := make([]MovementDTO, len(movements))
	for i, m := range movements {
		dtos[i] = toMovementDTO(m)
	}
	return dtos
}

func toStatsDTO(s drawer.Stats) StatsDTO {
	return StatsDTO{
		OpeningFloat:     s.OpeningFloat,
		CashIncome:       s.CashIncome,
		CashExpenses:     s.CashExpenses,
		TransferIncome:   s.TransferIncome,
		CardIncome:       s.CardIncome,
		OtherIncome:      s.OtherIncome,
		TotalIncome:      s.TotalIncome,
		TotalExpenses:    s.TotalExpenses,
		CashBalance:      s.CashBalance,
		OverallBalance:   s.OverallBalance,
		TransactionCount: s.TransactionCount,
	}
}

func toCloseResponse(c drawer.Closing) CloseResponse {
	return CloseResponse{
		Session: toSessionDTO(c.Session),
		Stats:   toStatsDTO(c.Stats),
		Reconciliation: ReconciliationDTO{
			CashBalance:  c.Reconciliation.CashBalance,
			DeclaredCash: c.Reconciliation.DeclaredCash,
			Discrepancy:  c.Reconciliation.Discrepancy,
			Outcome:      string(c.Reconciliation.Outcome),
			Flagged:      c.Reconciliation.Flagged(),
		},
	}
}

func toReportDTO(r drawer.Report) ReportDTO {
	dto := ReportDTO{
		OwnerID:          string(r.Query.OwnerID),
		Date:             r.Query.Date.String(),
		GeneratedAt:      r.GeneratedAt.Format(timeLayout),
		Rows:             make([]ReportRowDTO, len(r.Rows)),
		TotalsByMethod:   make(map[string]decimal.Decimal, len(r.TotalsByMethod)),
		OpeningFloat:     r.OpeningFloat,
		TotalIncome:      r.TotalIncome,
		TotalExpenses:    r.TotalExpenses,
		CashBalance:      r.CashBalance,
		OverallBalance:   r.OverallBalance,
		TransactionCount: r.TransactionCount,
		Sessions:         make([]SessionSummaryDTO, len(r.Sessions)),
	}
	for i, row := range r.Rows {
		dto.Rows[i] = ReportRowDTO{
			MovementID:     string(row.MovementID),
			SessionID:      string(row.SessionID),
			Date:           row.Date.String(),
			RecordedAt:     row.RecordedAt.Format(timeLayout),
			Kind:           string(row.Kind),
			PaymentMethod:  string(row.PaymentMethod),
			Concept:        row.Concept,
			Amount:         row.Amount,
			Signed:         row.Signed,
			Observations:   row.Observations,
			RecordedByID:   string(row.RecordedByID),
			RecordedByName: row.RecordedByName,
		}
	}
	for m, v := range r.TotalsByMethod {
		dto.TotalsByMethod[string(m)] = v
	}
	for i, s := range r.Sessions {
		dto.Sessions[i] = SessionSummaryDTO{
			Session: toSessionDTO(drawer.Session{
				ID:           s.SessionID,
				Date:         s.Date,
				OwnerID:      s.OwnerID,
				OwnerName:    s.OwnerName,
				OpeningFloat: s.Stats.OpeningFloat,
				OpenedAt:     s.OpenedAt,
				ClosedAt:     s.ClosedAt,
				Status:       s.Status,
				DeclaredCash: s.DeclaredCash,
				Discrepancy:  s.Discrepancy,
			}),
			Stats: toStatsDTO(s.Stats),
		}
	}
	return dto
}
