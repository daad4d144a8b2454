package calculator

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		num1, num2 float64
		operation  string
		expected   float64
	}{
		{2, 3, "add", 5},
		{2, 3, "ADD", 5},
		{10, 4, "subtract", 6},
		{-2, 4, "Multiply", -8},
		{6, 3, "divide", 2.0},
		{1, 4, " divide ", 0.25},
		{0, 5, "divide", 0},
	}

	for _, tt := range tests {
		result, err := Calculate(tt.num1, tt.num2, tt.operation)
		require.NoError(t, err, "%v %s %v", tt.num1, tt.operation, tt.num2)
		assert.InDelta(t, tt.expected, result, 1e-12)
	}
}

func TestCalculateDivisionByZero(t *testing.T) {
	for _, num1 := range []float64{5, 0, -1, math.MaxFloat64} {
		_, err := Calculate(num1, 0, "divide")
		require.ErrorIs(t, err, ErrDivisionByZero)
		assert.Equal(t, "Division by zero is not allowed", err.Error())
		assert.True(t, IsValidationError(err))
	}
}

func TestCalculateInvalidOperation(t *testing.T) {
	for _, op := range []string{"", "modulo", "plus", "div"} {
		_, err := Calculate(1, 2, op)
		require.ErrorIs(t, err, ErrInvalidOperation)
		assert.Equal(t, "Invalid operation. Use: add, subtract, multiply, divide", err.Error())
	}
}

func TestCalculateOverflow(t *testing.T) {
	_, err := Calculate(math.MaxFloat64, 10, "multiply")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseOperand(t *testing.T) {
	tests := []struct {
		raw      any
		expected float64
	}{
		{float64(6), 6},
		{"3.5", 3.5},
		{" 42 ", 42},
		{json.Number("-7"), -7},
		{12, 12},
	}
	for _, tt := range tests {
		got, err := ParseOperand("num1", tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestParseOperandErrors(t *testing.T) {
	tests := []struct {
		raw     any
		message string
	}{
		{nil, "Invalid input: num2 is required"},
		{"abc", `Invalid input: num2 "abc" is not a number`},
		{"NaN", "Invalid input: num2 is not a finite number"},
		{true, "Invalid input: num2 has unsupported type bool"},
	}
	for _, tt := range tests {
		_, err := ParseOperand("num2", tt.raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, tt.message, err.Error())
	}
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("Divide")
	require.NoError(t, err)
	assert.Equal(t, "Divide", op)

	_, err = ParseOperation(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	op, err = ParseOperation(float64(1))
	require.NoError(t, err)
	assert.Equal(t, "1", op)
}
