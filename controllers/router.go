package controllers

import (
	"net/http"
	"strings"

	"dsadmin/auth"
	"dsadmin/response"
	"dsadmin/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"go.uber.org/zap"
)

// Dependencies is everything the HTTP API is assembled from.
type Dependencies struct {
	APIPrefix      string
	AllowedOrigins []string
	Authenticator  *auth.Authenticator
	LoginLimiter   *LoginLimiter
	Users          services.UserService
	Roles          services.RoleService
	Permissions    services.PermissionService
	DataSources    services.DataSourceService
	Health         HealthCheck
	Logger         *zap.Logger
}

// NewContainer registers every WebService, the CORS and request logging
// filters, and the OpenAPI document at /apidocs.json.
func NewContainer(deps Dependencies) *restful.Container {
	logger := deps.Logger
	guard := auth.NewRouteGuard(deps.Authenticator, logger)
	limiter := deps.LoginLimiter
	if limiter == nil {
		limiter = NewLoginLimiter(0, 0, logger)
	}

	container := restful.NewContainer()
	container.ServiceErrorHandler(serviceErrorHandler)

	authCtl := NewAuthController(deps.APIPrefix, deps.Authenticator, limiter, logger)
	add := func(register func(*restful.WebService)) {
		ws := new(restful.WebService)
		register(ws)
		container.Add(ws)
	}
	add(authCtl.RegisterRoutes)
	add(authCtl.RegisterLogoutRoutes)
	add(NewUserController(deps.APIPrefix, deps.Users, guard, logger).RegisterRoutes)
	roleCtl := NewRoleController(deps.APIPrefix, deps.Roles, guard, logger)
	add(roleCtl.RegisterRoutes)
	add(roleCtl.RegisterPermissionLinkRoutes)
	add(NewPermissionController(deps.APIPrefix, deps.Permissions, guard, logger).RegisterRoutes)
	add(NewDataSourceController(deps.APIPrefix, deps.DataSources, guard, logger).RegisterRoutes)
	add(NewHealthController(deps.Health, logger).RegisterRoutes)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))

	cors := NewCORS(container, deps.AllowedOrigins)
	container.Filter(RequestLogger(logger))
	container.Filter(cors.Filter)
	container.Filter(container.OPTIONSFilter)
	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "dsadmin",
			Description: "Role-based administration of monitoring data sources",
			Version:     response.APIVersion,
		},
	}
	swo.SecurityDefinitions = spec.SecurityDefinitions{
		"bearer": spec.APIKeyAuth("Authorization", "header"),
	}
}

// serviceErrorHandler writes routing failures (unknown path, wrong method or
// media type) in the standard envelope.
func serviceErrorHandler(serr restful.ServiceError, _ *restful.Request, resp *restful.Response) {
	message := serr.Message
	if message == "" {
		message = http.StatusText(serr.Code)
	}
	_ = resp.WriteHeaderAndJson(serr.Code, response.Envelope{
		Success:  false,
		Message:  message,
		Data:     response.ErrorData{Code: strings.ReplaceAll(strings.ToLower(http.StatusText(serr.Code)), " ", "_")},
		Metadata: response.Metadata{APIVersion: response.APIVersion},
	}, restful.MIME_JSON)
}
