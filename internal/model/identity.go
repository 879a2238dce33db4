package model

// IdentityKind tells a guest session apart from a verified account.
type IdentityKind int

const (
	IdentityAnonymous IdentityKind = iota
	IdentityGuest
	IdentityAuthenticated
)

const (
	GuestUserID = "guest-user"
	GuestEmail  = "guest@lounge.local"
	GuestRole   = "guest"
)

// Identity is resolved once per request and passed explicitly to services.
type Identity struct {
	Kind   IdentityKind `json:"-"`
	UserID string       `json:"user_id"`
	Email  string       `json:"email"`
	Role   string       `json:"role"`
}

func GuestIdentity() Identity {
	return Identity{
		Kind:   IdentityGuest,
		UserID: GuestUserID,
		Email:  GuestEmail,
		Role:   GuestRole,
	}
}

func AuthenticatedIdentity(userID, email, role string) Identity {
	return Identity{
		Kind:   IdentityAuthenticated,
		UserID: userID,
		Email:  email,
		Role:   role,
	}
}

// HasUser reports whether the identity carries a user id usable for
// per-user data such as carts.
func (i Identity) HasUser() bool {
	return i.Kind != IdentityAnonymous && i.UserID != ""
}

func (i Identity) IsAuthenticated() bool {
	return i.Kind == IdentityAuthenticated && i.UserID != ""
}

func (i Identity) IsStaff() bool {
	return i.IsAuthenticated() && (i.Role == RoleStaff || i.Role == RoleAdmin)
}
