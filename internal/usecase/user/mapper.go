package user

import domain "user-api/internal/domain/user"

// ToDTO converts a persisted user into its external representation.
func ToDTO(u *domain.User) User {
	return User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToDTOs converts a slice of persisted users. The result is never nil.
func ToDTOs(users []domain.User) []User {
	out := make([]User, len(users))
	for i := range users {
		out[i] = ToDTO(&users[i])
	}
	return out
}

// ToEntity builds a new, unsaved user from client fields. ID and timestamps
// are left for the store to assign.
func ToEntity(f UserFields) *domain.User {
	u := &domain.User{}
	ApplyUpdate(f, u)
	return u
}

// ApplyUpdate copies the non-nil fields of f onto u. Nil fields leave the
// corresponding value on u untouched.
func ApplyUpdate(f UserFields, u *domain.User) {
	if f.FirstName != nil {
		u.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		u.LastName = *f.LastName
	}
	if f.Email != nil {
		u.Email = *f.Email
	}
}
