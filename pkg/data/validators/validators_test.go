package validators

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintf(t *testing.T) {
	got := Printf("between ${min} and ${max}, ${min} again", map[string]any{"min": 1, "max": 5})
	assert.Equal(t, "between 1 and 5, 1 again", got)
	assert.Equal(t, "no ${placeholders} filled", Printf("no ${placeholders} filled", nil))
}

func TestRangeValidator(t *testing.T) {
	v := NewRange(0, 10)

	assert.Empty(t, v.Validate(0))
	assert.Empty(t, v.Validate(10))
	assert.Empty(t, v.Validate(5.5))
	assert.Empty(t, v.Validate(uint8(3)))

	assert.Equal(t, []string{"A value between 0 and 10 is required"}, v.Validate(11))
	assert.Equal(t, []string{"A value between 0 and 10 is required"}, v.Validate(-1))
	assert.Len(t, v.Validate("five"), 1, "non-numeric values are out of range")

	t.Run("Unbounded when Max below Min", func(t *testing.T) {
		assert.Empty(t, NewRange(0, -1).Validate(1_000_000))
	})

	t.Run("Custom Message", func(t *testing.T) {
		custom := NewRange(1, 3, WithMessage(MsgOutOfRange, "pick ${min}..${max}"))
		assert.Equal(t, []string{"pick 1..3"}, custom.Validate(4))
	})
}

func TestStringValidator(t *testing.T) {
	t.Run("Max Only", func(t *testing.T) {
		v := MaxLength(5)
		assert.Empty(t, v.Validate("Amy"))
		assert.Empty(t, v.Validate("héllo"), "length counts characters, not bytes")
		assert.Equal(t, []string{"String must have no more than 5 characters"}, v.Validate("Toolong"))
	})

	t.Run("Min Only", func(t *testing.T) {
		v := MinLength(2)
		assert.Equal(t, []string{"String must have at least 2 characters"}, v.Validate("a"))
		assert.Empty(t, v.Validate("ab"))
	})

	t.Run("Both Bounds", func(t *testing.T) {
		v := NewLength(2, 4)
		msg := "String must have between 2 and 4 characters"
		assert.Equal(t, []string{msg}, v.Validate("a"))
		assert.Equal(t, []string{msg}, v.Validate("abcde"))
		assert.Empty(t, v.Validate("abc"))
	})

	t.Run("Ignores Non Strings", func(t *testing.T) {
		assert.Empty(t, MaxLength(1).Validate(12345))
	})
}

func TestRegexValidator(t *testing.T) {
	v := NewRegex(regexp.MustCompile(`^[A-Z]`))
	assert.Empty(t, v.Validate("Amy"))
	assert.Equal(t, []string{"The provided value is invalid"}, v.Validate("amy"))
	assert.Len(t, v.Validate(42), 1)

	t.Run("Pattern Placeholder", func(t *testing.T) {
		p, err := NewPattern(`^\d+$`, WithMessage(MsgNoMatch, "must match ${pattern}"))
		require.NoError(t, err)
		assert.Equal(t, []string{`must match ^\d+$`}, p.Validate("x"))
	})

	t.Run("Invalid Pattern", func(t *testing.T) {
		_, err := NewPattern("(")
		assert.Error(t, err)
	})
}

func TestFunc(t *testing.T) {
	even := Func(func(value any) []string {
		if n, ok := value.(int); ok && n%2 == 0 {
			return nil
		}
		return []string{"must be even"}
	})

	var v Validator = even
	assert.Empty(t, v.Validate(2))
	assert.Equal(t, []string{"must be even"}, v.Validate(3))
}

func TestParseFloat(t *testing.T) {
	f, ok := ParseFloat("3.5")
	require.True(t, ok)
	assert.Equal(t, 3.5, f)

	_, ok = ParseFloat("abc")
	assert.False(t, ok)

	f, ok = ParseFloat(int64(7))
	require.True(t, ok)
	assert.Equal(t, 7.0, f)
}
