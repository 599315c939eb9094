package domain

import (
	"crypto/rsa"
	"crypto/x509"
)

// Identity holds your long-term RSA key pair.
type Identity struct {
	Key *rsa.PrivateKey
}

// Public returns the public half of the identity key.
func (id Identity) Public() *rsa.PublicKey { return &id.Key.PublicKey }

// PublicDER returns the public key in PKIX DER form, the encoding peers
// exchange during a dial.
func (id Identity) PublicDER() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(&id.Key.PublicKey)
}
