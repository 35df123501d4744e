package utils

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverPersonalSignAddressRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey).Hex()

	msg := "Authenticate session: abc123"
	sig, err := crypto.Sign(PersonalSignDigest(msg), key)
	require.NoError(t, err)

	// Library form (V in {0,1}).
	got, err := RecoverPersonalSignAddress(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Wallet form (V in {27,28}), as the companion app sends it.
	walletSig := make([]byte, len(sig))
	copy(walletSig, sig)
	walletSig[64] += 27
	got, err = RecoverPersonalSignAddress(msg, walletSig)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecoverPersonalSignAddressRejectsMalformed(t *testing.T) {
	_, err := RecoverPersonalSignAddress("msg", make([]byte, 64))
	assert.Error(t, err)

	bad := make([]byte, 65)
	bad[64] = 9 // neither 0/1 nor 27/28
	_, err = RecoverPersonalSignAddress("msg", bad)
	assert.Error(t, err)
}

func TestRecoverDifferentMessageYieldsDifferentAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sig, err := crypto.Sign(PersonalSignDigest("message one"), key)
	require.NoError(t, err)

	got, err := RecoverPersonalSignAddress("message two", sig)
	if err == nil {
		// Recovery may still produce some key, but never the signer's.
		assert.NotEqual(t, signer, got)
	}
}

func TestDecodeSignatureHex(t *testing.T) {
	b, err := DecodeSignatureHex("0x00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, b)

	b, err = DecodeSignatureHex("00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, b)

	_, err = DecodeSignatureHex("zz")
	assert.Error(t, err)
}

func TestLoginTokenRoundTrip(t *testing.T) {
	tok, err := NewLoginToken("secret", "user-1", 24)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	uid, err := ParseLoginToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	_, err = ParseLoginToken("other-secret", tok.Token)
	assert.Error(t, err)

	_, err = ParseLoginToken("secret", "not-a-jwt")
	assert.Error(t, err)
}
