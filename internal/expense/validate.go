package expense

import (
	"math"
	"strconv"
	"strings"
	"time"

	"expense-ledger/internal/models"
)

// Code classifies a validation failure.
type Code string

const (
	CodeFieldsMissing     Code = "fields_missing"
	CodeInvalidAmount     Code = "invalid_amount"
	CodeNonPositiveAmount Code = "non_positive_amount"
	CodeInvalidDate       Code = "invalid_date"
)

var messages = map[Code]string{
	CodeFieldsMissing:     "All fields are required!",
	CodeInvalidAmount:     "Invalid amount!",
	CodeNonPositiveAmount: "Amount must be greater than 0!",
	CodeInvalidDate:       "Invalid date format!",
}

// ValidationError rejects submitted fields before any store access. Input is
// the submission exactly as received so the form can be shown again.
type ValidationError struct {
	Code    Code
	Message string
	Input   Input
}

func (e *ValidationError) Error() string {
	return "invalid expense: " + e.Message
}

func reject(code Code, in Input) *ValidationError {
	return &ValidationError{Code: code, Message: messages[code], Input: in}
}

// Input is an expense as submitted through a form.
type Input struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// Valid is an expense submission that passed ValidateFields.
type Valid struct {
	Description string
	Amount      float64
	Category    string
	Date        time.Time
}

func (v Valid) applyTo(e models.Expense) models.Expense {
	e.Description = v.Description
	e.Amount = v.Amount
	e.Category = v.Category
	e.Date = v.Date
	return e
}

// ValidateFields checks a submission and reports the first failure in this
// order: missing fields, then amount, then date.
func ValidateFields(in Input) (Valid, error) {
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)
	if description == "" || in.Amount == "" || category == "" || in.Date == "" {
		return Valid{}, reject(CodeFieldsMissing, in)
	}

	rawAmount := strings.TrimSpace(in.Amount)
	if isHexLiteral(rawAmount) {
		return Valid{}, reject(CodeInvalidAmount, in)
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Valid{}, reject(CodeInvalidAmount, in)
	}
	if amount <= 0 {
		return Valid{}, reject(CodeNonPositiveAmount, in)
	}

	date, err := time.Parse(models.DateLayout, in.Date)
	if err != nil {
		return Valid{}, reject(CodeInvalidDate, in)
	}

	return Valid{
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        date,
	}, nil
}

// isHexLiteral reports whether s is written in hexadecimal, which
// strconv.ParseFloat accepts but a decimal amount field must not.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
