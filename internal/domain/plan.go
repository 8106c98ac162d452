package domain

// Plan describes a purchasable subscription plan. The actual purchase happens
// on the external checkout page; plans here are display data.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval"`
	Popular  bool     `json:"popular,omitempty"`
	Savings  string   `json:"savings,omitempty"`
	Features []string `json:"features"`
}

// Plans returns the available premium plans.
func Plans() []Plan {
	names := make([]string, 0, len(PremiumFeatures()))
	for _, f := range PremiumFeatures() {
		names = append(names, f.Name)
	}

	return []Plan{
		{ID: "monthly", Name: "Monthly", Price: 9.99, Interval: "month", Popular: true, Features: names},
		{ID: "yearly", Name: "Yearly", Price: 99.00, Interval: "year", Savings: "17%", Features: names},
		{ID: "lifetime", Name: "Lifetime", Price: 299.00, Interval: "lifetime", Features: names},
	}
}
