// Package store provides file-based persistence for parley's key material.
//
// It contains the concrete implementation of the domain storage interfaces.
// The identity key is written as a passphrase-encrypted blob under the
// user's configured home directory; writes go through a temp file and
// rename so a crash never leaves a truncated keystore behind.
package store
