package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"skipped/internal/domain/entity"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token. Admins carry a custom claim role=admin
// or admin=true, set with SetAdmin.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*entity.Principal, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return principalFromClaims(result.UID, result.Claims), nil
}

func (f *FirebaseAuthClient) SetAdmin(ctx context.Context, uid string, admin bool) error {
	role := entity.UserRoleUser
	if admin {
		role = entity.UserRoleAdmin
	}
	return f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"role": role})
}

func principalFromClaims(uid string, claims map[string]interface{}) *entity.Principal {
	principal := &entity.Principal{
		UID:  uid,
		Role: entity.UserRoleUser,
	}

	if email, ok := claims["email"].(string); ok {
		principal.Email = email
	}
	if role, ok := claims["role"].(string); ok && role == entity.UserRoleAdmin {
		principal.Role = entity.UserRoleAdmin
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		principal.Role = entity.UserRoleAdmin
	}

	return principal
}
