// Package prompt assembles the system prompt sent with every caller
// utterance: fixed agent policy, text-to-speech formatting rules and the
// caller's account data.
package prompt

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DrVanHelsing/CallTech/internal/directory"
)

// Prompt is the message pair handed to the chat completion provider.
type Prompt struct {
	System string
	User   string
}

var policyLines = []string{
	"You are an AI customer service agent for a telecommunications company, speaking with a customer on a voice call.",
	"Be polite, warm and patient. Greet the customer by first name when it fits.",
	"You can help with billing, payments, plans, service status, technical issues and account questions.",
	"Use only the provided customer data. If something is unknown, say so instead of guessing.",
	"Never reveal full payment details or other customers' information.",
	"If the customer asks to cancel, disputes a charge you cannot explain, or is still unhappy after two attempts, offer to transfer them to a human agent.",
}

var speechLines = []string{
	"Your reply will be read aloud by a text-to-speech engine.",
	"Do not use symbols such as $, %, &, #, * or emojis. Say 'dollars', 'percent' and 'and' instead.",
	"Spell out abbreviations that could be read ambiguously, for example say gigabytes instead of GB.",
	"Do not use lists, bullet points, headings, tables or any markdown. Speak in plain sentences.",
	"Keep the reply to two or three short sentences unless the customer asks for detail.",
}

// Build renders the prompt for one turn. The customer block has a fixed line
// order so the same input always yields the same prompt.
func Build(c directory.Customer, transcript string) Prompt {
	var b strings.Builder
	writeLines(&b, policyLines)
	b.WriteString("\n")
	writeLines(&b, speechLines)
	b.WriteString("\nCustomer Data:\n")
	writeLines(&b, CustomerLines(c))
	return Prompt{
		System: strings.TrimRight(b.String(), "\n"),
		User:   transcript,
	}
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
}

// CustomerLines renders one "Label: value" line per field. Required fields
// are always present; optional fields are skipped when absent.
func CustomerLines(c directory.Customer) []string {
	lines := []string{
		"ID: " + c.ID,
		"Name: " + c.Name,
		"Phone: " + c.Phone,
		"Plan: " + c.Plan,
		"Status: " + c.Status,
		"Balance: " + c.Balance,
	}
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Last Payment", c.LastPayment)
	add("Email", c.Email)
	add("Customer Since", c.JoinDate)

	if bl := c.Billing; bl != nil {
		add("Current Bill", bl.CurrentBill)
		add("Usage", bl.Usage)
		add("Next Due", bl.NextDue)
		add("Payment Method", bl.PaymentMethod)
	}

	if s := c.Support; s != nil {
		if s.Tickets != nil {
			add("Support Tickets", strconv.Itoa(*s.Tickets))
		}
		add("Last Support Contact", s.LastContact)
		if s.Satisfaction != nil {
			add("Satisfaction Score", strconv.FormatFloat(*s.Satisfaction, 'f', -1, 64)+" out of 5")
		}
		if len(s.RecentIssues) > 0 {
			add("Recent Issues", strings.Join(s.RecentIssues, "; "))
		}
	}

	if len(c.Services) > 0 {
		names := make([]string, 0, len(c.Services))
		for name := range c.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			add("Service "+name, c.Services[name])
		}
	}
	return lines
}
