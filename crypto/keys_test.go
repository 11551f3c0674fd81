package crypto

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr := AddressFromArray(raw)
	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, "split1"))

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded.Array())

	fromHex, err := ParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, raw, fromHex.Array())
}

func TestParseAddressRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "0x1234", "0xzz", "notbech32"} {
		_, err := ParseAddress(input)
		require.Error(t, err, input)
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys", "owner.json")
	require.NoError(t, saveToKeystore(path, key, "pass", keystore.LightScryptN, keystore.LightScryptP))

	loaded, err := LoadFromKeystore(path, "pass")
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Array(), loaded.PubKey().Address().Array())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
}
