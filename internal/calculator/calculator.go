// Package calculator implements the four-operation arithmetic endpoint.
package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

var (
	ErrDivisionByZero   = errors.New("Division by zero is not allowed")
	ErrInvalidOperation = errors.New("Invalid operation. Use: add, subtract, multiply, divide")
	ErrInvalidInput     = errors.New("Invalid input")
)

// IsValidationError reports whether err is caused by the caller's input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrInvalidInput)
}

// Calculate applies operation (case-insensitive) to num1 and num2.
func Calculate(num1, num2 float64, operation string) (float64, error) {
	var result float64
	switch strings.ToLower(strings.TrimSpace(operation)) {
	case OpAdd:
		result = num1 + num2
	case OpSubtract:
		result = num1 - num2
	case OpMultiply:
		result = num1 * num2
	case OpDivide:
		if num2 == 0 {
			return 0, ErrDivisionByZero
		}
		result = num1 / num2
	default:
		return 0, ErrInvalidOperation
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, fmt.Errorf("%w: result is not a finite number", ErrInvalidInput)
	}
	return result, nil
}

// ParseOperand accepts a decoded JSON number or a numeric string.
func ParseOperand(name string, raw any) (float64, error) {
	var value float64
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, name, v.String())
		}
		value = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, name, v)
		}
		value = f
	default:
		return 0, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidInput, name, raw)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, name)
	}
	return value, nil
}

// ParseOperation stringifies the operation field; absence is an input error.
func ParseOperation(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", fmt.Errorf("%w: operation is required", ErrInvalidInput)
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}
