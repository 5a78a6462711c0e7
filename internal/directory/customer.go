package directory

// Customer is one record of the customer directory. Optional fields are
// pointers or omitempty so that an absent value is distinguishable from a
// zero value when rendering prompts.
type Customer struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Plan        string            `json:"plan"`
	Status      string            `json:"status"`
	Balance     string            `json:"balance"`
	LastPayment string            `json:"lastPayment,omitempty"`
	Email       string            `json:"email,omitempty"`
	JoinDate    string            `json:"joinDate,omitempty"`
	Billing     *Billing          `json:"billing,omitempty"`
	Support     *Support          `json:"support,omitempty"`
	Services    map[string]string `json:"services,omitempty"`
}

type Billing struct {
	CurrentBill   string `json:"currentBill,omitempty"`
	Usage         string `json:"usage,omitempty"`
	NextDue       string `json:"nextDue,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

type Support struct {
	Tickets      *int     `json:"tickets,omitempty"`
	LastContact  string   `json:"lastContact,omitempty"`
	Satisfaction *float64 `json:"satisfaction,omitempty"`
	RecentIssues []string `json:"recentIssues,omitempty"`
}

// FirstName returns the first word of the customer's name.
func (c Customer) FirstName() string {
	for i, r := range c.Name {
		if r == ' ' {
			return c.Name[:i]
		}
	}
	return c.Name
}
