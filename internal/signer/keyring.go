// Package signer holds the wallet keyring and produces authorization
// grants over canonical receive-with-approval messages.
package signer

import (
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	bip39 "github.com/tyler-smith/go-bip39"
	"gopkg.in/yaml.v3"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
)

// Bech32Prefix is the human-readable part of derived chain addresses.
const Bech32Prefix = "wasm"

// Cosmos hub coin type, path m/44'/118'/0'/0/0.
var derivationPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 118,
	hdkeychain.HardenedKeyStart + 0,
	0,
	0,
}

// Keyring is the fixed set of wallets configured at process start.
// Immutable for the process lifetime.
type Keyring struct {
	wallets []model.Wallet
	byLabel map[string]*model.Wallet
}

// NewKeyring builds a keyring from the given wallet set.
func NewKeyring(wallets []model.Wallet) (*Keyring, error) {
	if len(wallets) == 0 {
		return nil, fmt.Errorf("keyring requires at least one wallet")
	}
	kr := &Keyring{
		wallets: wallets,
		byLabel: make(map[string]*model.Wallet, len(wallets)),
	}
	for i := range kr.wallets {
		w := &kr.wallets[i]
		if w.Label == "" {
			return nil, fmt.Errorf("wallet %d has no label", i)
		}
		if _, dup := kr.byLabel[w.Label]; dup {
			return nil, fmt.Errorf("duplicate wallet label %q", w.Label)
		}
		kr.byLabel[w.Label] = w
	}
	return kr, nil
}

// LoadKeyring reads a wallet set from a YAML file. An empty path yields
// the compiled-in development defaults.
func LoadKeyring(path string) (*Keyring, error) {
	if path == "" {
		return NewKeyring(defaultWallets())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallets file: %w", err)
	}
	var doc struct {
		Wallets []model.Wallet `yaml:"wallets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse wallets file: %w", err)
	}
	return NewKeyring(doc.Wallets)
}

// ByLabel returns the wallet with the given label.
func (k *Keyring) ByLabel(label string) (*model.Wallet, bool) {
	w, ok := k.byLabel[label]
	return w, ok
}

// Default returns the wallet marked isDefault, or the first wallet.
func (k *Keyring) Default() *model.Wallet {
	for i := range k.wallets {
		if k.wallets[i].IsDefault {
			return &k.wallets[i]
		}
	}
	return &k.wallets[0]
}

// Wallets returns the configured wallet set. Mnemonics are excluded from
// JSON serialization at the model level.
func (k *Keyring) Wallets() []model.Wallet {
	return k.wallets
}

// DeriveKey derives the secp256k1 private key for a mnemonic along the
// fixed path m/44'/118'/0'/0/0.
func DeriveKey(mnemonic string) (*btcec.PrivateKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	for _, index := range derivationPath {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("derive path index %d: %w", index, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}
	return priv, nil
}

// Address derives the bech32 chain address for a public key:
// bech32(prefix, ripemd160(sha256(compressed pubkey))).
func Address(pub *btcec.PublicKey) (string, error) {
	raw := btcutil.Hash160(pub.SerializeCompressed())
	converted, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert address bits: %w", err)
	}
	addr, err := bech32.Encode(Bech32Prefix, converted)
	if err != nil {
		return "", fmt.Errorf("encode bech32 address: %w", err)
	}
	return addr, nil
}

// defaultWallets is the development wallet set used when no wallets file
// is configured. These are well-known localnet test keys.
func defaultWallets() []model.Wallet {
	return []model.Wallet{
		{
			Label:     "Alice",
			Address:   "wasm18thxpksjlupr6szqctcjvj0mmhkr0suj5t3xnj",
			Mnemonic:  "pony swap next infant awkward sheriff first ridge light away net shadow ankle meat copy various spell timber aerobic name atom excuse just gossip",
			IsDefault: true,
		},
		{
			Label:    "Bob",
			Address:  "wasm19weunt25ekfqe5v7mj0k69dwzhdt8qfa0uawuz",
			Mnemonic: "mesh admit blade produce equip humor cluster chair arch loud like grant extend believe avocado hover dream market resist tobacco mass copper tide inherit",
		},
		{
			Label:    "Charlie",
			Address:  "wasm1ga4d4tsxrk6na6ehttwvdfmn2ejy4gwfxpt2m7",
			Mnemonic: "artist still shield fit embark same follow lounge model dumb valid half snake deposit divorce develop color glory liberty elder flight silly swing audit",
		},
		{
			Label:    "Admin",
			Address:  "wasm1sse6pdmn5s7epjycxadjzku4qfgs604cgur6me",
			Mnemonic: "enemy flower party waste put south clip march victory breeze oxygen cram hospital march enlist black october surprise across wage bomb spawn describe heavy",
		},
		{
			Label:    "Oracle",
			Address:  "wasm12gcpk8rsezs5lfjq2xmp0rd69e6k8gx02u7yv5",
			Mnemonic: "leopard run palm busy weasel comfort maze turkey canyon rural response predict ball scale coil tape organ dizzy paddle mystery fluid flight capital thing",
		},
	}
}
