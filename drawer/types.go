/*
Package drawer provides the cash drawer session and reconciliation engine.

PURPOSE:
  Tracks one cash drawer per operator per day. An operator opens a session
  with a float, records income and expense movements tagged by payment
  method, and closes the session by declaring the physical cash count. The
  engine reconciles the count against the computed cash balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Actor: who is calling (operator or supervisor)
  - Session: one drawer-day for one owner, Open -> Closed
  - Movement: one income or expense tied to a session and a payment method
  - PaymentMethod: cash, transfer, card, other (only cash touches the drawer)

DESIGN PRINCIPLES:
  1. Derived balances: stats are recomputed from movements, never stored
  2. Precision: every amount is a decimal.Decimal
  3. Type safety: distinct ID types for sessions, movements and owners
  4. Immutability: a closed session and its movements never change

USAGE:
  engine := drawer.NewEngine(store.NewMemory())
  s, err := engine.OpenSession(ctx, "op-1", "Ana", decimal.NewFromInt(1000))
  m, err := engine.RecordMovement(ctx, s.ID, drawer.MovementInput{
      Kind:    drawer.KindIncome,
      Amount:  decimal.NewFromInt(500),
      Concept: "Sale A",
  })
  closing, err := engine.CloseSession(ctx, s.ID, decimal.NewFromInt(1500))

SEE ALSO:
  - engine.go: Session state machine and public operations
  - validate.go: Movement validation rules
  - balance.go: Stats aggregation
  - reconcile.go: Discrepancy at close
  - report.go: Renderer-agnostic report structure
*/
package drawer

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SessionID string
type MovementID string
type OwnerID string

// =============================================================================
// ACTOR - Caller identity (read-only to the engine)
// =============================================================================

type Role string

const (
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
)

// Actor identifies the caller. Role only gates which reports may be requested.
type Actor struct {
	ID   OwnerID
	Name string
	Role Role
}

func (a Actor) IsSupervisor() bool { return a.Role == RoleSupervisor }

// =============================================================================
// SESSION - One drawer-day for one owner
// =============================================================================

type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"
	StatusClosed SessionStatus = "closed"
)

// Session is a drawer-day. ID and OpeningFloat never change after creation.
// DeclaredCash and Discrepancy are set only by CloseSession.
type Session struct {
	ID           SessionID
	Date         Date
	OwnerID      OwnerID
	OwnerName    string
	OpeningFloat decimal.Decimal
	OpenedAt     time.Time
	ClosedAt     *time.Time
	Status       SessionStatus

	DeclaredCash *decimal.Decimal
	Discrepancy  *decimal.Decimal
}

func (s Session) IsOpen() bool { return s.Status == StatusOpen }

// =============================================================================
// MOVEMENT - Income or expense inside a session
// =============================================================================

type MovementKind string

const (
	KindIncome  MovementKind = "income"
	KindExpense MovementKind = "expense"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodCard     PaymentMethod = "card"
	MethodOther    PaymentMethod = "other"
)

// Methods lists the recognized payment methods in display order.
func Methods() []PaymentMethod {
	return []PaymentMethod{MethodCash, MethodTransfer, MethodCard, MethodOther}
}

// Movement is a single monetary event. Amount is always positive; the sign
// comes from Kind.
type Movement struct {
	ID            MovementID
	SessionID     SessionID
	Date          Date
	Kind          MovementKind
	Amount        decimal.Decimal
	Concept       string
	PaymentMethod PaymentMethod
	Observations  string

	RecordedAt     time.Time
	RecordedByID   OwnerID
	RecordedByName string
}

// Signed returns the amount with the sign implied by Kind.
func (m Movement) Signed() decimal.Decimal {
	if m.Kind == KindExpense {
		return m.Amount.Neg()
	}
	return m.Amount
}

// MovementInput is a proposed movement before validation.
type MovementInput struct {
	Kind          MovementKind
	Amount        decimal.Decimal
	Concept       string
	PaymentMethod PaymentMethod // empty means cash
	Observations  string

	// RecordedBy defaults to the session owner when zero.
	RecordedBy Actor
}

// MovementPatch replaces selected fields of an existing movement.
// Kind and SessionID cannot be patched.
type MovementPatch struct {
	Amount        *decimal.Decimal
	Concept       *string
	PaymentMethod *PaymentMethod
	Observations  *string
}
