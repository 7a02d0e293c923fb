package domain

// PasswordVerifier is the opaque credential-check capability. Wrong passwords
// are a negative result, never an error.
type PasswordVerifier interface {
	Verify(plain, hash string) bool
}

// User is an account that owns boards. At most one board exists per
// (BoardKind, username) pair.
type User struct {
	id           string
	username     string
	passwordHash string
	boards       []*Board
}

// NewUser creates an unpersisted user. The hash must already be derived from
// the plaintext by the hashing capability.
func NewUser(username, passwordHash string) *User {
	return &User{username: username, passwordHash: passwordHash}
}

// RestoreUser rebuilds a user from storage. The stored hash is taken
// verbatim, never re-derived.
func RestoreUser(id, username, passwordHash string) *User {
	u := NewUser(username, passwordHash)
	u.id = id
	return u
}

func (u *User) ID() string           { return u.id }
func (u *User) Username() string     { return u.username }
func (u *User) PasswordHash() string { return u.passwordHash }

// SetID records the identifier assigned by the store.
func (u *User) SetID(id string) { u.id = id }

// VerifyCredentials checks a plaintext password against the stored hash.
func (u *User) VerifyCredentials(v PasswordVerifier, plain string) bool {
	return v.Verify(plain, u.passwordHash)
}

// Boards returns a copy of the user's board list.
func (u *User) Boards() []*Board {
	out := make([]*Board, len(u.boards))
	copy(out, u.boards)
	return out
}

// BoardFor returns the user's board of the given kind.
func (u *User) BoardFor(kind BoardKind) (*Board, bool) {
	for _, b := range u.boards {
		if b.Kind() == kind {
			return b, true
		}
	}
	return nil, false
}

// AddBoard attaches a board. Returns false when the user already has a board
// of that kind.
func (u *User) AddBoard(b *Board) bool {
	if _, ok := u.BoardFor(b.Kind()); ok {
		return false
	}
	u.boards = append(u.boards, b)
	return true
}

// ProvisionDefaultBoards ensures one board exists for every default kind and
// returns the boards that were newly created. Idempotent: kinds already
// present are left alone.
func (u *User) ProvisionDefaultBoards() []*Board {
	var created []*Board
	for _, kind := range DefaultBoardKinds() {
		if _, ok := u.BoardFor(kind); ok {
			continue
		}
		b := NewBoard(kind, u.username)
		u.boards = append(u.boards, b)
		created = append(created, b)
	}
	return created
}
