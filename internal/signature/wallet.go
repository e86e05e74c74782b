package signature

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"
)

const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// KeyFromMnemonic derives the account key at path from a BIP-39 mnemonic.
func KeyFromMnemonic(mnemonic, path string) (*ecdsa.PrivateKey, common.Address, error) {
	if path == "" {
		path = DefaultDerivationPath
	}

	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "open mnemonic")
	}

	derivationPath, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, common.Address{}, errors.Wrapf(err, "parse derivation path %s", path)
	}

	account, err := wallet.Derive(derivationPath, false)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "derive account")
	}

	key, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "account private key")
	}

	return key, account.Address, nil
}

// KeyFromHex parses a hex encoded private key with or without 0x prefix.
func KeyFromHex(hexKey string) (*ecdsa.PrivateKey, common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "parse private key")
	}

	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}
