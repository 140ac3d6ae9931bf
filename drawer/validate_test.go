package drawer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashdrawer/drawer"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"0.01", "0.01", nil},
		{" 1500.50 ", "1500.5", nil},
		{"0", "", drawer.ErrInvalidAmount},
		{"-3", "", drawer.ErrInvalidAmount},
		{"", "", drawer.ErrInvalidAmount},
		{"abc", "", drawer.ErrInvalidAmount},
		{"NaN", "", drawer.ErrInvalidAmount},
		{"Inf", "", drawer.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := drawer.ParseAmount(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		in   string
		want drawer.PaymentMethod
	}{
		{"", drawer.MethodCash},
		{"cash", drawer.MethodCash},
		{"Efectivo", drawer.MethodCash},
		{"TRANSFER", drawer.MethodTransfer},
		{"Transferencia", drawer.MethodTransfer},
		{"card", drawer.MethodCard},
		{"Débito", drawer.MethodCard},
		{"Tarjeta", drawer.MethodCard},
		{"Otro", drawer.MethodOther},
		{"other", drawer.MethodOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := drawer.ParsePaymentMethod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := drawer.ParsePaymentMethod("cheque")
	assert.ErrorIs(t, err, drawer.ErrInvalidPaymentMethod)

	var verr *drawer.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_method", verr.Field)
}

func TestParseKind(t *testing.T) {
	k, err := drawer.ParseKind("Ingreso")
	require.NoError(t, err)
	assert.Equal(t, drawer.KindIncome, k)

	k, err = drawer.ParseKind("expense")
	require.NoError(t, err)
	assert.Equal(t, drawer.KindExpense, k)

	_, err = drawer.ParseKind("refund")
	assert.ErrorIs(t, err, drawer.ErrInvalidKind)
}

func TestNormalizeConcept(t *testing.T) {
	c, err := drawer.NormalizeConcept("  Sale A \n")
	require.NoError(t, err)
	assert.Equal(t, "Sale A", c)

	_, err = drawer.NormalizeConcept(" \t ")
	assert.ErrorIs(t, err, drawer.ErrMissingConcept)
}

func TestValidateMovement_Normalizes(t *testing.T) {
	in := drawer.MovementInput{
		Kind:         "Egreso",
		Amount:       dec("12.5"),
		Concept:      " Bags ",
		Observations: "  paid from drawer ",
	}

	out, err := drawer.ValidateMovement(in)
	require.NoError(t, err)
	assert.Equal(t, drawer.KindExpense, out.Kind)
	assert.Equal(t, drawer.MethodCash, out.PaymentMethod)
	assert.Equal(t, "Bags", out.Concept)
	assert.Equal(t, "paid from drawer", out.Observations)
}

func TestValidateMovement_ReportsFirstFailure(t *testing.T) {
	_, err := drawer.ValidateMovement(drawer.MovementInput{Kind: drawer.KindIncome, Amount: dec("0"), Concept: ""})
	assert.ErrorIs(t, err, drawer.ErrInvalidAmount)
	assert.True(t, drawer.IsValidation(err))
	assert.True(t, drawer.IsClientError(err))
}

func TestValidatePatch_Empty(t *testing.T) {
	p, err := drawer.ValidatePatch(drawer.MovementPatch{})
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestCheckFloatAndDeclared(t *testing.T) {
	assert.NoError(t, drawer.CheckFloat(dec("0")))
	assert.ErrorIs(t, drawer.CheckFloat(dec("-1")), drawer.ErrInvalidFloat)
	assert.NoError(t, drawer.CheckDeclared(dec("0")))
	assert.ErrorIs(t, drawer.CheckDeclared(dec("-0.5")), drawer.ErrInvalidAmount)
}
