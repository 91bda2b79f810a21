package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "user-api/internal/domain/user"
)

func TestToDTO(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	u := &domain.User{ID: 3, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", CreatedAt: created, UpdatedAt: updated}

	assert.Equal(t, User{
		ID:        3,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		CreatedAt: created,
		UpdatedAt: updated,
	}, ToDTO(u))
}

func TestToDTOs_NeverNil(t *testing.T) {
	assert.NotNil(t, ToDTOs(nil))
	assert.Len(t, ToDTOs([]domain.User{{ID: 1}, {ID: 2}}), 2)
}

func TestToEntity_LeavesServerFieldsUnset(t *testing.T) {
	u := ToEntity(fields("Ada", "Lovelace", "ada@example.com"))

	assert.Zero(t, u.ID)
	assert.True(t, u.CreatedAt.IsZero())
	assert.True(t, u.UpdatedAt.IsZero())
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestApplyUpdate(t *testing.T) {
	base := func() *domain.User {
		return &domain.User{ID: 9, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	}

	tests := []struct {
		name     string
		in       UserFields
		expected domain.User
	}{
		{
			name:     "all fields replaced",
			in:       fields("Grace", "Hopper", "grace@example.com"),
			expected: domain.User{ID: 9, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
		},
		{
			name:     "nil fields ignored",
			in:       UserFields{LastName: strPtr("Byron")},
			expected: domain.User{ID: 9, FirstName: "Ada", LastName: "Byron", Email: "ada@example.com"},
		},
		{
			name:     "nothing sent",
			in:       UserFields{},
			expected: *base(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := base()
			ApplyUpdate(tt.in, target)
			assert.Equal(t, tt.expected, *target)
		})
	}
}
