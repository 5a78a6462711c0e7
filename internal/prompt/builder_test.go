package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrVanHelsing/CallTech/internal/directory"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func fullCustomer() directory.Customer {
	return directory.Customer{
		ID:          "CUST-2024-001",
		Name:        "Sarah Johnson",
		Phone:       "***-***-5678",
		Plan:        "Premium Internet + TV Bundle",
		Status:      "Active",
		Balance:     "$89.99",
		LastPayment: "Feb 15, 2024",
		Billing: &directory.Billing{
			Usage:         "245GB / 500GB",
			NextDue:       "Mar 15, 2024",
			PaymentMethod: "Visa ending in 1234",
		},
		Support: &directory.Support{
			Tickets:      intPtr(3),
			Satisfaction: floatPtr(4.5),
			RecentIssues: []string{"Slow speeds", "Router reboot"},
		},
		Services: map[string]string{"tv": "Active", "internet": "Degraded", "mobile": "Active"},
	}
}

func TestBuild_RendersPresentOptionalFields(t *testing.T) {
	p := Build(fullCustomer(), "Why is my bill high?")
	assert.Equal(t, "Why is my bill high?", p.User)
	for _, want := range []string{
		"Customer Data:",
		"ID: CUST-2024-001",
		"Balance: $89.99",
		"Last Payment: Feb 15, 2024",
		"Usage: 245GB / 500GB",
		"Next Due: Mar 15, 2024",
		"Payment Method: Visa ending in 1234",
		"Support Tickets: 3",
		"Satisfaction Score: 4.5 out of 5",
		"Recent Issues: Slow speeds; Router reboot",
		"Service internet: Degraded",
	} {
		assert.Contains(t, p.System, want)
	}
	assert.NotContains(t, p.System, "Current Bill:")
	assert.NotContains(t, p.System, "Last Support Contact:")
}

func TestBuild_OmitsAbsentOptionalFields(t *testing.T) {
	c := directory.Customer{ID: "CUST-2", Name: "John Doe", Phone: "***-***-1234", Plan: "Basic", Status: "Active", Balance: "$45.00"}
	p := Build(c, "hello")
	for _, absent := range []string{"Last Payment", "Usage", "Support Tickets", "Satisfaction", "Recent Issues", "Service "} {
		assert.NotContains(t, p.System, absent+":")
	}
	assert.Contains(t, p.System, "Name: John Doe")
}

func TestBuild_ZeroValuesArePresent(t *testing.T) {
	c := directory.Customer{ID: "x", Support: &directory.Support{Tickets: intPtr(0)}}
	assert.Contains(t, Build(c, "hi").System, "Support Tickets: 0")
}

func TestBuild_Deterministic(t *testing.T) {
	first := Build(fullCustomer(), "Why is my bill high?")
	for i := 0; i < 20; i++ {
		again := Build(fullCustomer(), "Why is my bill high?")
		require.Equal(t, first.System, again.System)
		require.Equal(t, first.User, again.User)
	}
}

func TestCustomerLines_ServicesSorted(t *testing.T) {
	lines := CustomerLines(fullCustomer())
	var services []string
	for _, l := range lines {
		if strings.HasPrefix(l, "Service ") {
			services = append(services, l)
		}
	}
	assert.Equal(t, []string{"Service internet: Degraded", "Service mobile: Active", "Service tv: Active"}, services)
}

func TestBuild_SectionsInOrder(t *testing.T) {
	sys := Build(fullCustomer(), "q").System
	policy := strings.Index(sys, "telecommunications company")
	speech := strings.Index(sys, "text-to-speech")
	data := strings.Index(sys, "Customer Data:")
	assert.True(t, policy >= 0 && policy < speech && speech < data)
}
