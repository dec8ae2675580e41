package profile

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Profile is the per-user auxiliary state blob: settings, planning lists
// and gamification counters. It is loaded once at session start, held in
// memory, and rewritten in full on every relevant change
// (last-writer-wins). The JSON field names are the blob's wire format.
type Profile struct {
	Settings          Settings         `json:"settings"`
	Goals             []Goal           `json:"goals"`
	RegretedPurchases []RegretEntry    `json:"regretedPurchases"`
	FuturePurchases   []FuturePurchase `json:"futurePurchases"`
	Subscriptions     []Subscription   `json:"subscriptions"`
	Streak            int              `json:"streak"`
	Badges            []string         `json:"badges"`
}

type Settings struct {
	DarkMode      bool            `json:"darkMode"`
	Currency      string          `json:"currency"`
	HourlyWage    decimal.Decimal `json:"hourlyWage"`
	Notifications bool            `json:"notifications"`
}

type Goal struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Target   decimal.Decimal `json:"target"`
	Current  decimal.Decimal `json:"current"`
	Deadline string          `json:"deadline,omitempty"`
}

type RegretEntry struct {
	ExpenseID  int64  `json:"expenseId"`
	RegretDate string `json:"regretDate"`
	Reason     string `json:"reason"`
}

type FuturePurchase struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	CurrentSavings decimal.Decimal `json:"currentSavings"`
	TargetDate     string          `json:"targetDate,omitempty"`
	Priority       string          `json:"priority,omitempty"`
}

type Subscription struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Frequency      string          `json:"frequency"`
	NextBilling    string          `json:"nextBilling,omitempty"`
	CancelReminder bool            `json:"cancelReminder"`
}

// Default returns the profile every user starts with.
func Default() Profile {
	p := Profile{
		Settings: Settings{
			DarkMode:      false,
			Currency:      "USD",
			HourlyWage:    decimal.NewFromInt(25),
			Notifications: true,
		},
	}
	p.normalize()
	return p
}

// Encode serializes the full profile blob.
func (p Profile) Encode() ([]byte, error) {
	clean := p
	clean.normalize()
	return json.Marshal(clean)
}

// Decode parses a profile blob. The decode is tolerant: fields missing
// from the blob keep their defaults, nil lists become empty, a
// non-positive hourly wage falls back to the default, a negative streak
// clamps to zero and duplicate badges are dropped. Only structurally
// broken JSON is an error.
func Decode(data []byte) (Profile, error) {
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.normalize()
	return p, nil
}

func (p *Profile) normalize() {
	if p.Settings.Currency == "" {
		p.Settings.Currency = "USD"
	}
	if !p.Settings.HourlyWage.IsPositive() {
		p.Settings.HourlyWage = decimal.NewFromInt(25)
	}
	if p.Goals == nil {
		p.Goals = []Goal{}
	}
	if p.RegretedPurchases == nil {
		p.RegretedPurchases = []RegretEntry{}
	}
	if p.FuturePurchases == nil {
		p.FuturePurchases = []FuturePurchase{}
	}
	if p.Subscriptions == nil {
		p.Subscriptions = []Subscription{}
	}
	if p.Streak < 0 {
		p.Streak = 0
	}
	p.Badges = dedupe(p.Badges)
}

// Copy returns a profile that shares no slices with the receiver.
func (p Profile) Copy() Profile {
	out := p
	out.Goals = append([]Goal{}, p.Goals...)
	out.RegretedPurchases = append([]RegretEntry{}, p.RegretedPurchases...)
	out.FuturePurchases = append([]FuturePurchase{}, p.FuturePurchases...)
	out.Subscriptions = append([]Subscription{}, p.Subscriptions...)
	out.Badges = append([]string{}, p.Badges...)
	return out
}

// HasBadge reports whether the badge is already held.
func (p Profile) HasBadge(name string) bool {
	for _, b := range p.Badges {
		if b == name {
			return true
		}
	}
	return false
}

func dedupe(badges []string) []string {
	seen := make(map[string]struct{}, len(badges))
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		if _, ok := seen[b]; ok || b == "" {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}
