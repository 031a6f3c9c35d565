package model

// Wallet is a labeled signing identity configured at process start.
// The mnemonic is exclusively owned key material: it is never logged and
// never serialized into API responses.
type Wallet struct {
	Label     string `yaml:"label" json:"label"`
	Address   string `yaml:"address" json:"address"`
	Mnemonic  string `yaml:"mnemonic" json:"-"`
	IsDefault bool   `yaml:"isDefault" json:"isDefault"`
}
