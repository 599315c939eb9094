package domain

// IdentityStore persists your long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	Generate(passphrase string) (Identity, Fingerprint, error)
	Load(passphrase string) (Identity, error)
	Fingerprint(passphrase string) (Fingerprint, error)
}
