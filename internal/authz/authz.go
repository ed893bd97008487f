// Package authz decides whether a role may access a path. The policy is a
// static prefix table — pure data, no I/O — so it can be audited and tested
// independently of the HTTP layer.
package authz

import (
	"strings"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
)

// Rule grants a set of roles access to one path prefix.
type Rule struct {
	Prefix string
	Roles  []string
}

// Controller answers allow/deny for (role, path). Paths outside every
// configured prefix are unprotected and always allowed.
type Controller struct {
	rules []Rule
}

// New builds a controller from a rule table. Prefixes are expected to be
// non-overlapping; the first matching prefix wins.
func New(rules []Rule) *Controller {
	return &Controller{rules: rules}
}

// DefaultTable is the production policy for the protected API surface.
func DefaultTable() []Rule {
	return []Rule{
		{Prefix: "/api/pagamentos", Roles: []string{model.RoleFinancas, model.RoleAdmin}},
		{Prefix: "/api/faturas", Roles: []string{model.RoleGabineteApoio, model.RoleFinancas, model.RoleAdmin}},
		{Prefix: "/api/pedidos", Roles: []string{model.RoleGabineteContratacao, model.RolePresidente, model.RoleGabineteApoio, model.RoleFinancas, model.RoleAdmin}},
		{Prefix: "/api/fornecedores", Roles: []string{model.RoleGabineteContratacao, model.RoleAdmin}},
		{Prefix: "/api/categorias", Roles: []string{model.RoleGabineteContratacao, model.RoleAdmin}},
		{Prefix: "/api/relatorios", Roles: []string{model.RolePresidente, model.RoleFinancas, model.RoleViewer, model.RoleAdmin}},
		{Prefix: "/api/auditoria", Roles: []string{model.RoleAdmin}},
		{Prefix: "/api/admin", Roles: []string{model.RoleAdmin}},
	}
}

// Resolve returns the owning prefix for a path, or "" if the path is
// unprotected.
func (c *Controller) Resolve(path string) (string, bool) {
	for _, rule := range c.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Prefix, true
		}
	}
	return "", false
}

// Authorize reports whether role may access path. An empty role means the
// caller is unauthenticated; that only passes on unprotected paths.
func (c *Controller) Authorize(role, path string) bool {
	prefix, protected := c.Resolve(path)
	if !protected {
		return true
	}
	if role == "" {
		return false
	}
	for _, rule := range c.rules {
		if rule.Prefix != prefix {
			continue
		}
		for _, allowed := range rule.Roles {
			if allowed == role {
				return true
			}
		}
		return false
	}
	return false
}
