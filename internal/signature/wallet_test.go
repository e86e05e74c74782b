package signature

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "tag volcano eight thank tide danger coast health above argue embrace heavy"

func TestKeyFromMnemonic(t *testing.T) {
	key, addr, err := KeyFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947"), addr)
	require.Equal(t, addr, crypto.PubkeyToAddress(key.PublicKey))

	_, second, err := KeyFromMnemonic(testMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	require.NotEqual(t, addr, second)
}

func TestKeyFromMnemonic_Invalid(t *testing.T) {
	_, _, err := KeyFromMnemonic("not a mnemonic", "")
	require.Error(t, err)

	_, _, err = KeyFromMnemonic(testMnemonic, "m/bad")
	require.Error(t, err)
}

func TestKeyFromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	parsed, addr, err := KeyFromHex("0x" + common.Bytes2Hex(crypto.FromECDSA(key)))
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)
	require.Equal(t, key.D, parsed.D)
}
