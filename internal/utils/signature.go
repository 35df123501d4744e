package utils // wallet signature helpers for the QR login handshake

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto" // secp256k1 recovery and address derivation
	"golang.org/x/crypto/sha3"               // keccak256 for the EIP-191 digest
)

// PersonalSignDigest returns the EIP-191 "personal message" hash of the
// challenge: keccak256("\x19Ethereum Signed Message:\n" + len(message) +
// message).  The companion app signs exactly this digest, so both sides
// must derive byte-identical input from the message string alone.
func PersonalSignDigest(message string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return h.Sum(nil)
}

// RecoverPersonalSignAddress recovers the checksummed address of the key
// that produced signature over message.  The signature must be the
// 65-byte [R || S || V] form; wallets emit V as 27/28, which is
// normalized to the 0/1 recovery id expected by the library.  Any
// malformed input is an error, never a bogus address.
func RecoverPersonalSignAddress(message string, signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", fmt.Errorf("signature must be 65 bytes, got %d", len(signature))
	}
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] != 0 && sig[64] != 1 {
		return "", fmt.Errorf("invalid recovery id %d", sig[64])
	}
	pub, err := crypto.SigToPub(PersonalSignDigest(message), sig)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// DecodeSignatureHex parses a hex signature string as sent by the
// companion app, accepting an optional 0x prefix.
func DecodeSignatureHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return hex.DecodeString(s)
}
