package ports

// PasswordHasher is the opaque password hashing capability.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
