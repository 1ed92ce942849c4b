package adminapi

import (
	"time"

	"github.com/goliatone/go-access-console/components/console"
)

// DemoData returns a small subscriber base relative to now, covering every
// view: active (one due for renewal), blocked, and pending requests.
func DemoData(now time.Time) MockData {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time {
		t := now.Add(d).UTC()
		return &t
	}
	return MockData{
		Users: []console.User{
			{ID: "100200300", Username: "ana_lima", Allowed: true, StartDate: at(-12 * day), EndDate: at(18 * day), LastInteraction: at(-2 * time.Hour)},
			{ID: "100200301", Username: "bruno", Allowed: true, StartDate: at(-41 * day), EndDate: at(-11 * day), LastInteraction: at(-3 * day)},
			{ID: "100200302", Allowed: false, LastInteraction: at(-30 * time.Minute)},
			{ID: "100200303", Username: "carla_fx", Allowed: false, LastInteraction: at(-5 * day)},
			{ID: "100200304", Username: "diego", Allowed: false},
		},
		History: map[string]console.History{
			"100200300": {
				Transactions: []console.Transaction{
					{Kind: console.TransactionKindGain, Description: "Depósito inicial", Amount: 1500, CreatedAt: now.Add(-10 * day).UTC()},
					{Kind: "loss", Description: "Operação EUR/USD", Amount: -230.5, CreatedAt: now.Add(-6 * day).UTC()},
					{Kind: console.TransactionKindGain, Description: "Operação BTC", Amount: 410.25, CreatedAt: now.Add(-1 * day).UTC()},
				},
				Balance: 1679.75,
			},
			"100200301": {
				Transactions: []console.Transaction{},
				Balance:      0,
			},
		},
	}
}
