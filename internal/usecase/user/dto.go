package user

import "time"

// UserFields holds the client-editable fields of a user. A nil field means
// the client did not send it.
type UserFields struct {
	FirstName *string `validate:"required,notblank,max=100"`
	LastName  *string `validate:"required,notblank,max=100"`
	Email     *string `validate:"required,email,max=255"`
}

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	UserFields
}

// UpdateUserRequest represents the request payload for replacing the editable
// fields of an existing user.
type UpdateUserRequest struct {
	ID int64 `validate:"gt=0"`
	UserFields
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// User is the externally visible representation of a user.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
