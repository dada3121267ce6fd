package auth

import "context"

type ctxKey int

const claimsKey ctxKey = 0

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

func UserIDFrom(ctx context.Context) string {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.UserID
	}
	return ""
}

func RoleFrom(ctx context.Context) string {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.Role
	}
	return ""
}
