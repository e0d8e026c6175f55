package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite un token firmado para un usuario autenticado.
// Lo usa el módulo de usuarios en signup/login.
type TokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}
