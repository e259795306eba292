package controllers

import (
	"net/http"

	"dsadmin/auth"
	"dsadmin/response"
	"dsadmin/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type PermissionController struct {
	prefix            string
	permissionService services.PermissionService
	guard             *auth.RouteGuard
	logger            *zap.Logger
}

func NewPermissionController(prefix string, permissionService services.PermissionService, guard *auth.RouteGuard, logger *zap.Logger) *PermissionController {
	return &PermissionController{prefix: prefix, permissionService: permissionService, guard: guard, logger: logger}
}

type PermissionsEnvelope struct {
	Permissions []services.PermissionResponse `json:"permissions"`
}

func (ctl *PermissionController) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/permissions").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_permission")).
		To(ctl.listPermissionsHandler).
		Doc("List all permissions").
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Returns(http.StatusOK, "List of permissions", PermissionsEnvelope{}))
}

func (ctl *PermissionController) listPermissionsHandler(req *restful.Request, resp *restful.Response) {
	perms, err := ctl.permissionService.ListPermissions(req.Request.Context())
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "List of permissions", PermissionsEnvelope{Permissions: services.MapPermissionsToResponse(perms)})
}
