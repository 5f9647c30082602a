package authz

import (
	"context"
	"fmt"

	apperrors "inventory-system/pkg/errors"
)

// Gatekeeper остается пустым, это просто "контейнер" для методов
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Can - чистая проверка по таблице политики
func (g *Gatekeeper) Can(p *Principal, permission string) bool {
	return rolePermissions[RoleOf(p)][permission]
}

// Authorize различает "не представился" (401) и "не хватает роли" (403).
// Если право есть даже у анонима, вызывающий не обязан быть аутентифицирован.
func (g *Gatekeeper) Authorize(p *Principal, permission string) error {
	if g.Can(p, permission) {
		return nil
	}
	if p == nil {
		return fmt.Errorf("%s: %w", permission, apperrors.ErrUnauthorized)
	}
	return fmt.Errorf("%s для роли %q: %w", permission, p.Role, apperrors.ErrForbidden)
}

// AuthorizeContext - то же самое, но Principal берётся из контекста запроса
func (g *Gatekeeper) AuthorizeContext(ctx context.Context, permission string) (*Principal, error) {
	p := PrincipalFromContext(ctx)
	if err := g.Authorize(p, permission); err != nil {
		return nil, err
	}
	return p, nil
}
