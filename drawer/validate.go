/*
validate.go - Movement validation rules

PURPOSE:
  Pure checks applied to a proposed movement before anything is persisted.
  No function here touches the store, the clock or the logger.

RULES:
  amount:         finite number > 0               -> ErrInvalidAmount
  concept:        trimmed, non-empty              -> ErrMissingConcept
  payment method: cash | transfer | card | other  -> ErrInvalidPaymentMethod
                  empty defaults to cash
  kind:           income | expense                -> ErrInvalidKind

DEFAULT PAYMENT METHOD:
  Movements recorded before payment methods existed carry no method. They are
  treated as cash for reconciliation, so the default lives here rather than in
  any form or handler.

LEGACY LABELS:
  Older data uses Spanish labels ("Efectivo", "Transferencia", "Tarjeta",
  "Débito", "Otro", "Ingreso", "Egreso"). They are accepted case-insensitively
  and mapped onto the canonical values.
*/
package drawer

import (
	"strings"

	"github.com/shopspring/decimal"
)

var methodAliases = map[string]PaymentMethod{
	"cash":          MethodCash,
	"efectivo":      MethodCash,
	"transfer":      MethodTransfer,
	"transferencia": MethodTransfer,
	"card":          MethodCard,
	"tarjeta":       MethodCard,
	"débito":        MethodCard,
	"debito":        MethodCard,
	"crédito":       MethodCard,
	"credito":       MethodCard,
	"other":         MethodOther,
	"otro":          MethodOther,
}

var kindAliases = map[string]MovementKind{
	"income":  KindIncome,
	"ingreso": KindIncome,
	"expense": KindExpense,
	"egreso":  KindExpense,
}

// ParseAmount parses text into a strictly positive amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckAmount rejects zero and negative amounts.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return &ValidationError{Field: "amount", Value: d.String(), Err: ErrInvalidAmount}
	}
	return nil
}

// CheckFloat rejects a negative opening float. Zero is allowed.
func CheckFloat(d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: "opening_float", Value: d.String(), Err: ErrInvalidFloat}
	}
	return nil
}

// CheckDeclared rejects a negative declared cash count. Zero is allowed.
func CheckDeclared(d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: "declared_cash_amount", Value: d.String(), Err: ErrInvalidAmount}
	}
	return nil
}

// NormalizeConcept trims the concept and rejects an empty result.
func NormalizeConcept(s string) (string, error) {
	c := strings.TrimSpace(s)
	if c == "" {
		return "", &ValidationError{Field: "concept", Err: ErrMissingConcept}
	}
	return c, nil
}

// ParsePaymentMethod maps s onto a recognized method. Empty means cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return MethodCash, nil
	}
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", &ValidationError{Field: "payment_method", Value: s, Err: ErrInvalidPaymentMethod}
}

// ParseKind maps s onto income or expense.
func ParseKind(s string) (MovementKind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", &ValidationError{Field: "kind", Value: s, Err: ErrInvalidKind}
}

// ValidateMovement checks every field of in and returns the normalized input.
func ValidateMovement(in MovementInput) (MovementInput, error) {
	kind, err := ParseKind(string(in.Kind))
	if err != nil {
		return MovementInput{}, err
	}
	if err := CheckAmount(in.Amount); err != nil {
		return MovementInput{}, err
	}
	concept, err := NormalizeConcept(in.Concept)
	if err != nil {
		return MovementInput{}, err
	}
	method, err := ParsePaymentMethod(string(in.PaymentMethod))
	if err != nil {
		return MovementInput{}, err
	}

	out := in
	out.Kind = kind
	out.Concept = concept
	out.PaymentMethod = method
	out.Observations = strings.TrimSpace(in.Observations)
	return out, nil
}

// ValidatePatch checks the fields present in p and returns the normalized patch.
func ValidatePatch(p MovementPatch) (MovementPatch, error) {
	out := MovementPatch{}
	if p.Amount != nil {
		if err := CheckAmount(*p.Amount); err != nil {
			return MovementPatch{}, err
		}
		a := *p.Amount
		out.Amount = &a
	}
	if p.Concept != nil {
		c, err := NormalizeConcept(*p.Concept)
		if err != nil {
			return MovementPatch{}, err
		}
		out.Concept = &c
	}
	if p.PaymentMethod != nil {
		m, err := ParsePaymentMethod(string(*p.PaymentMethod))
		if err != nil {
			return MovementPatch{}, err
		}
		out.PaymentMethod = &m
	}
	if p.Observations != nil {
		o := strings.TrimSpace(*p.Observations)
		out.Observations = &o
	}
	return out, nil
}

// Apply returns m with the patch applied. The patch must already be validated.
func (p MovementPatch) Apply(m Movement) Movement {
	if p.Amount != nil {
		m.Amount = *p.Amount
	}
	if p.Concept != nil {
		m.Concept = *p.Concept
	}
	if p.PaymentMethod != nil {
		m.PaymentMethod = *p.PaymentMethod
	}
	if p.Observations != nil {
		m.Observations = *p.Observations
	}
	return m
}

func (p MovementPatch) IsEmpty() bool {
	return p.Amount == nil && p.Concept == nil && p.PaymentMethod == nil && p.Observations == nil
}
