package authz

import (
	"context"

	"inventory-system/pkg/contextkeys"
)

// Principal - аутентифицированный вызывающий. Отсутствие Principal означает анонима.
type Principal struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextkeys.PrincipalKey, p)
}

// PrincipalFromContext возвращает nil для анонимного запроса
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextkeys.PrincipalKey).(*Principal)
	return p
}

// RoleOf классифицирует вызывающего: anonymous / user / admin
func RoleOf(p *Principal) string {
	if p == nil {
		return RoleAnonymous
	}
	return p.Role
}
