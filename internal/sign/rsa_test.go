package sign

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})
	return privPEM, pubPEM
}

func TestRSASignAndVerify(t *testing.T) {
	priv, pub := testKeys(t)
	message := []byte("payload")

	sig, err := RSASignSHA512(message, priv)
	require.NoError(t, err)
	require.NoError(t, RSAVerifySHA512(message, sig, pub))
}

func TestVerifyTamperedMessage(t *testing.T) {
	priv, pub := testKeys(t)
	message := []byte("payload")

	sig, err := RSASignSHA512(message, priv)
	require.NoError(t, err)
	require.Error(t, RSAVerifySHA512([]byte("Payload"), sig, pub))
}

func TestVerifyBadKey(t *testing.T) {
	require.Error(t, RSAVerifySHA512([]byte("m"), []byte("sig"), []byte("not a pem")))
}
