package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"student":    RoleStudent,
		" Admin ":    RoleAdmin,
		"INSTRUCTOR": RoleInstructor,
		"superuser":  RoleUnknown,
		"":           RoleUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRole(in), "input %q", in)
	}
}

func TestUserSummaryOmitsHash(t *testing.T) {
	u := &User{ID: "u1", Name: "Ann", Email: "ann@x.com", PasswordHash: "$2a$10$secret", Role: RoleStudent}
	s := u.Summary()

	assert.Equal(t, UserSummary{ID: "u1", Name: "Ann", Email: "ann@x.com", Role: RoleStudent}, s)
}

func TestEventPatchEmpty(t *testing.T) {
	assert.True(t, EventPatch{}.Empty())
	venue := "Hall A"
	assert.False(t, EventPatch{Venue: &venue}.Empty())
}
