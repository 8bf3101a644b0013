// Package sign verifies and produces the RSA signatures carried by signed
// registry payloads.
package sign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// RSAVerifySHA512 verifies an RSA PKCS1v15 signature over the SHA512
// digest of message. The key must be a PEM encoded public key, either
// PKIX or PKCS1.
func RSAVerifySHA512(message, signature, publicKeyPEM []byte) error {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return err
	}

	digest := sha512.Sum512(message)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA512, digest[:], signature); err != nil {
		return fmt.Errorf("verify PKCS1v15 signature: %w", err)
	}
	return nil
}

// RSASignSHA512 signs the SHA512 digest of message with a PEM encoded
// PKCS1 or PKCS8 private key. It is the producing side of RSAVerifySHA512
// and is mostly useful for building registry fixtures.
func RSASignSHA512(message, privateKeyPEM []byte) ([]byte, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, errors.New("parse PEM block with private key")
	}

	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		key, err8 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err8 != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		var ok bool
		if priv, ok = key.(*rsa.PrivateKey); !ok {
			return nil, errors.New("private key is no RSA key")
		}
	}

	digest := sha512.Sum512(message)
	signature, err := priv.Sign(rand.Reader, digest[:], crypto.SHA512)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return signature, nil
}

func parsePublicKey(publicKeyPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, errors.New("parse PEM block with public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		if pkcs1, err1 := x509.ParsePKCS1PublicKey(block.Bytes); err1 == nil {
			return pkcs1, nil
		}
		return nil, fmt.Errorf("parse PKIX public key: %w", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is no RSA key")
	}
	return rsaPub, nil
}
