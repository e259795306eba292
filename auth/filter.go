package auth

import (
	"dsadmin/apperror"
	"dsadmin/response"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

const principalAttribute = "principal"

// RouteGuard adapts the Authenticator to go-restful filter chains.
type RouteGuard struct {
	auth   *Authenticator
	logger *zap.Logger
}

func NewRouteGuard(a *Authenticator, logger *zap.Logger) *RouteGuard {
	return &RouteGuard{auth: a, logger: logger}
}

// Authenticated resolves the bearer token to a Principal and stores it on the
// request. It must precede any Require filter.
func (g *RouteGuard) Authenticated() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		token, err := BearerToken(req.HeaderParameter("Authorization"))
		if err != nil {
			response.Error(resp, g.logger, err)
			return
		}
		principal, err := g.auth.RequireIdentity(req.Request.Context(), token)
		if err != nil {
			response.Error(resp, g.logger, err)
			return
		}
		req.SetAttribute(principalAttribute, principal)
		chain.ProcessFilter(req, resp)
	}
}

// Require admits the request only if the principal holds permission. On
// denial the chain stops and the handler never runs.
func (g *RouteGuard) Require(permission string) restful.FilterFunction {
	check := g.auth.RequirePermission(permission)
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		principal, ok := PrincipalFrom(req)
		if !ok {
			response.Error(resp, g.logger, apperror.Internal("Route is missing authentication.", nil))
			return
		}
		if err := check(principal.Permissions); err != nil {
			response.Error(resp, g.logger, err)
			return
		}
		chain.ProcessFilter(req, resp)
	}
}

// PrincipalFrom returns the principal stored by Authenticated.
func PrincipalFrom(req *restful.Request) (*Principal, bool) {
	p, ok := req.Attribute(principalAttribute).(*Principal)
	return p, ok && p != nil
}
