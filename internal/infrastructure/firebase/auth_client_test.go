package firebase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skipped/internal/domain/entity"
)

func TestPrincipalFromClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
		email  string
		admin  bool
	}{
		{"plain user", map[string]interface{}{"email": "a@example.com"}, "a@example.com", false},
		{"role claim", map[string]interface{}{"role": "admin"}, "", true},
		{"admin flag", map[string]interface{}{"admin": true}, "", true},
		{"unknown role", map[string]interface{}{"role": "owner"}, "", false},
		{"no claims", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := principalFromClaims("uid-1", tt.claims)
			assert.Equal(t, "uid-1", p.UID)
			assert.Equal(t, tt.email, p.Email)
			assert.Equal(t, tt.admin, p.IsAdmin())
			if !tt.admin {
				assert.Equal(t, entity.UserRoleUser, p.Role)
			}
		})
	}
}
