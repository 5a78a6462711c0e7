package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDigitWords(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"my phone ends in nine eight seven six", "my phone ends in 9 8 7 6"},
		{"Five-Six-Seven-Eight.", "5-6-7-8."},
		{"someone gave me nothing", "someone gave me nothing"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDigitWords(tc.in), tc.in)
	}
}

func TestPhoneSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"my phone ends in 9 8 7 6", "9876", true},
		{"phone ends in 5678", "5678", true},
		{"call me at 555-123-5678 please", "5678", true},
		{"1234, and also 5678", "1234", true},
		{"my phone ends in 5678, 2 lines are down", "5678", true},
		{"5678 2 lines", "5678", true},
		{"nine, eight, seven, six", "", false},
		{"9, 8, 7, 6", "9876", true},
		{"I have 12 dogs", "", false},
		{"no digits at all", "", false},
	}
	for _, tc := range cases {
		got, ok := PhoneSuffix(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestPhoneSuffixes_AllRuns(t *testing.T) {
	assert.Equal(t, []string{"2019", "9876"},
		PhoneSuffixes("customer since 2019, phone ends in 9 8 7 6"))
	assert.Equal(t, []string{"5678", "1234"},
		PhoneSuffixes("555-123-5678 or 4 3 2 1 2 3 4"))
	assert.Empty(t, PhoneSuffixes("2 lines, 3 phones"))
}

func testRecords() []Customer {
	return []Customer{
		{ID: "CUST-1", Name: "Sarah Johnson", Phone: "***-***-5678"},
		{ID: "CUST-2", Name: "John Doe", Phone: "***-***-1234"},
		{ID: "CUST-3", Name: "Maria Rodriguez", Phone: "***-***-9876"},
		{ID: "CUST-4", Name: "Mark Twin", Phone: "(555) 000-5678"},
	}
}

func TestMatchPhoneSuffix_FirstMatchWins(t *testing.T) {
	c, ok := MatchPhoneSuffix(testRecords(), "5678")
	assert.True(t, ok)
	assert.Equal(t, "CUST-1", c.ID)

	_, ok = MatchPhoneSuffix(testRecords(), "0000")
	assert.False(t, ok)
	_, ok = MatchPhoneSuffix(testRecords(), "")
	assert.False(t, ok)
}

func TestMatchUtterance(t *testing.T) {
	cases := []struct {
		text string
		id   string
		ok   bool
	}{
		{"my phone ends in nine eight seven six", "CUST-3", true},
		{"Phone ends in 1234", "CUST-2", true},
		{"My name is SARAH", "CUST-1", true},
		{"hi, it's maria here", "CUST-3", true},
		{"ends in four four four four but I'm John", "CUST-2", true},
		{"customer since 2019, phone ends in nine eight seven six", "CUST-3", true},
		{"I've been with you since 2019 and my phone ends in nine eight seven six", "CUST-3", true},
		{"my phone ends in 5678, 2 lines are down", "CUST-1", true},
		{"hello there", "", false},
	}
	for _, tc := range cases {
		c, ok := MatchUtterance(testRecords(), tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.id, c.ID, tc.text)
	}
}

func TestCustomerFirstName(t *testing.T) {
	assert.Equal(t, "Sarah", Customer{Name: "Sarah Johnson"}.FirstName())
	assert.Equal(t, "Cher", Customer{Name: "Cher"}.FirstName())
	assert.Equal(t, "", Customer{}.FirstName())
}
