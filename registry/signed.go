package registry

import (
	"fmt"

	"github.com/hexpm/hexgo/internal/sign"
)

// DecodeSigned extracts the payload of a signed index document, verifying
// its RSA-SHA512 signature against the repository public key. Skipping
// verification is for development and tests only.
func DecodeSigned(data, publicKeyPEM []byte, verify bool) ([]byte, error) {
	var signed Signed
	if err := signed.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("decoding signed message: %w", err)
	}
	if verify {
		if err := sign.RSAVerifySHA512(signed.Payload, signed.Signature, publicKeyPEM); err != nil {
			return nil, err
		}
	}
	return signed.Payload, nil
}

// EncodeSigned signs a payload with a PEM encoded RSA private key and
// wraps both in the signed message envelope. It is the producing side of
// DecodeSigned, used when building registries.
func EncodeSigned(payload, privateKeyPEM []byte) ([]byte, error) {
	signature, err := sign.RSASignSHA512(payload, privateKeyPEM)
	if err != nil {
		return nil, err
	}
	signed := Signed{Payload: payload, Signature: signature}
	return signed.Marshal(), nil
}
