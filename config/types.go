package config

// Log controls the slog JSON handler and optional rotated log file.
type Log struct {
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"max_size_mb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"max_age_days"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Headers  string `toml:"Headers" yaml:"headers"`
	Traces   bool   `toml:"Traces" yaml:"traces"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
}

// Journal configures the SQL audit journal. An empty Path disables it and a
// relative Path is resolved against DataDir.
type Journal struct {
	Path string `toml:"Path" yaml:"path"`
}

// Holder is a genesis token allocation.
type Holder struct {
	Address string `toml:"Address" yaml:"address"`
	Amount  string `toml:"Amount" yaml:"amount"`
}

// Token describes the sale token and its genesis distribution.
type Token struct {
	Symbol   string   `toml:"Symbol" yaml:"symbol"`
	Decimals uint8    `toml:"Decimals" yaml:"decimals"`
	Holders  []Holder `toml:"Holders" yaml:"holders"`
}

// Stage is one sale window. Start is inclusive, End exclusive, both unix
// seconds.
type Stage struct {
	ID            uint64 `toml:"ID" yaml:"id"`
	Start         uint64 `toml:"Start" yaml:"start"`
	End           uint64 `toml:"End" yaml:"end"`
	MinInvestment string `toml:"MinInvestment" yaml:"min_investment"`
	SupplyCeiling string `toml:"SupplyCeiling" yaml:"supply_ceiling"`
}

// Bonus is a volume bonus tier of one stage.
type Bonus struct {
	Stage     uint64 `toml:"Stage" yaml:"stage"`
	Threshold string `toml:"Threshold" yaml:"threshold"`
	Bps       uint32 `toml:"Bps" yaml:"bps"`
}

// Sale holds pricing, caps and wallets of the sale.
type Sale struct {
	Rate             string  `toml:"Rate" yaml:"rate"`
	TokenPrice       string  `toml:"TokenPrice" yaml:"token_price"`
	HardCapUSD       string  `toml:"HardCapUSD" yaml:"hard_cap_usd"`
	Inventory        string  `toml:"Inventory" yaml:"inventory"`
	Custody          string  `toml:"Custody" yaml:"custody"`
	RequireWhitelist bool    `toml:"RequireWhitelist" yaml:"require_whitelist"`
	Stages           []Stage `toml:"Stages" yaml:"stages"`
	Bonuses          []Bonus `toml:"Bonuses" yaml:"bonuses"`
}

// Roles lists the accounts granted each role at genesis.
type Roles struct {
	Owners      []string `toml:"Owners" yaml:"owners"`
	Operators   []string `toml:"Operators" yaml:"operators"`
	Whitelisted []string `toml:"Whitelisted" yaml:"whitelisted"`
}

// Link is a genesis referral link.
type Link struct {
	Owner      string `toml:"Owner" yaml:"owner"`
	InviteeBps uint32 `toml:"InviteeBps" yaml:"invitee_bps"`
	OwnerBps   uint32 `toml:"OwnerBps" yaml:"owner_bps"`
}

// Banner is a genesis referral banner.
type Banner struct {
	ID         string `toml:"ID" yaml:"id"`
	InviteeBps uint32 `toml:"InviteeBps" yaml:"invitee_bps"`
}

// Referral lists the referral sources registered at genesis.
type Referral struct {
	Links   []Link   `toml:"Links" yaml:"links"`
	Banners []Banner `toml:"Banners" yaml:"banners"`
}

// Escrow describes one vesting escrow.
type Escrow struct {
	ID                   string `toml:"ID" yaml:"id"`
	Wallet               string `toml:"Wallet" yaml:"wallet"`
	DefaultRecipient     string `toml:"DefaultRecipient" yaml:"default_recipient"`
	TotalIntervals       uint64 `toml:"TotalIntervals" yaml:"total_intervals"`
	IntervalSeconds      uint64 `toml:"IntervalSeconds" yaml:"interval_seconds"`
	IncludeFirstInterval bool   `toml:"IncludeFirstInterval" yaml:"include_first_interval"`
	FollowSaleEnd        bool   `toml:"FollowSaleEnd" yaml:"follow_sale_end"`
	// Activation, when non-zero, is scheduled at genesis.
	Activation uint64 `toml:"Activation" yaml:"activation"`
}

// Pauses lists modules paused at genesis.
type Pauses struct {
	Sale     bool `toml:"Sale" yaml:"sale"`
	Vesting  bool `toml:"Vesting" yaml:"vesting"`
	Referral bool `toml:"Referral" yaml:"referral"`
}
