package config

// Example returns a small but complete configuration, used by the CLI to
// scaffold a new deployment.
func Example() *Config {
	cfg := &Config{
		Environment: "local",
		Journal:     Journal{Path: "journal.db"},
		Token: Token{
			Symbol: "SALE",
			Holders: []Holder{
				{Address: "0x00000000000000000000000000000000000000a1", Amount: "100000000e18"},
				{Address: "0x00000000000000000000000000000000000000e1", Amount: "20000000e18"},
			},
		},
		Sale: Sale{
			Rate:       "1e18",
			TokenPrice: "19e16",
			HardCapUSD: "5000000e18",
			Inventory:  "0x00000000000000000000000000000000000000a1",
			Custody:    "0x00000000000000000000000000000000000000c1",
			Stages: []Stage{
				{ID: 1, Start: 1_900_000_000, End: 1_902_592_000, MinInvestment: "300e18", SupplyCeiling: "40000000e18"},
				{ID: 2, Start: 1_902_592_000, End: 1_905_184_000, MinInvestment: "100e18", SupplyCeiling: "100000000e18"},
			},
			Bonuses: []Bonus{
				{Stage: 1, Threshold: "300e18", Bps: 1250},
				{Stage: 1, Threshold: "2000e18", Bps: 2000},
				{Stage: 1, Threshold: "15000e18", Bps: 3000},
			},
		},
		Roles: Roles{
			Owners:    []string{"0x00000000000000000000000000000000000000f1"},
			Operators: []string{"0x00000000000000000000000000000000000000f2"},
		},
		Escrows: []Escrow{{
			ID:               "team",
			Wallet:           "0x00000000000000000000000000000000000000e1",
			DefaultRecipient: "0x00000000000000000000000000000000000000d1",
			TotalIntervals:   4,
			IntervalSeconds:  7_776_000,
			FollowSaleEnd:    true,
		}},
	}
	cfg.applyDefaults()
	return cfg
}
