package expense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFields(t *testing.T) {
	ok := Input{Description: "Lunch", Amount: "12.50", Category: "food", Date: "2024-01-01"}

	tests := []struct {
		name string
		in   Input
		want Code
	}{
		{"missing description", Input{"", "1", "food", "2024-01-01"}, CodeFieldsMissing},
		{"blank description", Input{"   ", "1", "food", "2024-01-01"}, CodeFieldsMissing},
		{"missing amount", Input{"Lunch", "", "food", "2024-01-01"}, CodeFieldsMissing},
		{"blank category", Input{"Lunch", "1", " \t", "2024-01-01"}, CodeFieldsMissing},
		{"missing date", Input{"Lunch", "1", "food", ""}, CodeFieldsMissing},
		{"missing beats bad amount and date", Input{"", "abc", "food", "nope"}, CodeFieldsMissing},
		{"non-numeric amount", Input{"Lunch", "abc", "food", "2024-01-01"}, CodeInvalidAmount},
		{"whitespace amount", Input{"Lunch", "  ", "food", "2024-01-01"}, CodeInvalidAmount},
		{"nan amount", Input{"Lunch", "NaN", "food", "2024-01-01"}, CodeInvalidAmount},
		{"infinite amount", Input{"Lunch", "inf", "food", "2024-01-01"}, CodeInvalidAmount},
		{"hex amount", Input{"Lunch", "0x1p3", "food", "2024-01-01"}, CodeInvalidAmount},
		{"signed hex amount", Input{"Lunch", "+0X10", "food", "2024-01-01"}, CodeInvalidAmount},
		{"overflowing amount", Input{"Lunch", "1e400", "food", "2024-01-01"}, CodeInvalidAmount},
		{"negative amount", Input{"Lunch", "-5", "food", "2024-01-01"}, CodeNonPositiveAmount},
		{"zero amount", Input{"Lunch", "0", "food", "2024-01-01"}, CodeNonPositiveAmount},
		{"amount beats date", Input{"Lunch", "-5", "food", "2024-13-40"}, CodeNonPositiveAmount},
		{"impossible date", Input{"Lunch", "5", "food", "2024-13-40"}, CodeInvalidDate},
		{"day month year", Input{"Lunch", "5", "food", "01-02-2024"}, CodeInvalidDate},
		{"date with time", Input{"Lunch", "5", "food", "2024-01-01T10:00"}, CodeInvalidDate},
		{"february 30", Input{"Lunch", "5", "food", "2024-02-30"}, CodeInvalidDate},
		{"padded date", Input{"Lunch", "5", "food", " 2024-01-01"}, CodeInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFields(tt.in)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Code)
			assert.Equal(t, messages[tt.want], ve.Message)
			assert.Equal(t, tt.in, ve.Input, "original input must be preserved")
		})
	}

	t.Run("valid", func(t *testing.T) {
		v, err := ValidateFields(ok)
		require.NoError(t, err)
		assert.Equal(t, "Lunch", v.Description)
		assert.Equal(t, 12.5, v.Amount)
		assert.Equal(t, "food", v.Category)
		assert.Equal(t, "2024-01-01", v.Date.Format("2006-01-02"))
	})

	t.Run("trims text fields", func(t *testing.T) {
		v, err := ValidateFields(Input{Description: "  Lunch ", Amount: " 3 ", Category: " food ", Date: "2024-01-01"})
		require.NoError(t, err)
		assert.Equal(t, "Lunch", v.Description)
		assert.Equal(t, 3.0, v.Amount)
		assert.Equal(t, "food", v.Category)
	})

	t.Run("tiny positive amount", func(t *testing.T) {
		v, err := ValidateFields(Input{Description: "Gum", Amount: "0.01", Category: "food", Date: "2024-01-01"})
		require.NoError(t, err)
		assert.Equal(t, 0.01, v.Amount)
	})
}

func TestValidationErrorMessages(t *testing.T) {
	assert.Equal(t, "Amount must be greater than 0!", messages[CodeNonPositiveAmount])
	assert.NotEqual(t, messages[CodeInvalidAmount], messages[CodeNonPositiveAmount],
		"parse failure and non-positive value must be distinct messages")

	err := reject(CodeInvalidDate, Input{})
	assert.Equal(t, "invalid expense: Invalid date format!", err.Error())
}
