package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        int64     // ID is assigned by the store and never reused
	FirstName string    // FirstName is the user's given name
	LastName  string    // LastName is the user's family name
	Email     string    // Email is unique across all users, compared exactly as stored
	CreatedAt time.Time // CreatedAt is set once on insert
	UpdatedAt time.Time // UpdatedAt is refreshed on every successful save
}
