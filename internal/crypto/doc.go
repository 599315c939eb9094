// Package crypto exposes the minimal primitives used by parley.
//
// Contents
//
//   - RSA identity key generation (GenerateRSA)
//   - PKIX DER encoding and decoding of RSA public keys (MarshalPublicKey,
//     ParsePublicKey)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Public keys travel on the wire in DER form so peers with different RSA
// implementations can interoperate. Callers should treat private keys as
// sensitive and keep them out of logs.
package crypto
