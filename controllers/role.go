package controllers

import (
	"context"
	"net/http"

	"dsadmin/auth"
	"dsadmin/models"
	"dsadmin/response"
	"dsadmin/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type RoleController struct {
	prefix      string
	roleService services.RoleService
	guard       *auth.RouteGuard
	logger      *zap.Logger
}

func NewRoleController(prefix string, roleService services.RoleService, guard *auth.RouteGuard, logger *zap.Logger) *RoleController {
	return &RoleController{prefix: prefix, roleService: roleService, guard: guard, logger: logger}
}

type RoleEnvelope struct {
	Role services.RoleResponse `json:"role"`
}

type RolesEnvelope struct {
	Roles []services.RoleResponse `json:"roles"`
}

func (ctl *RoleController) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/roles").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"roles"}
	idParam := ws.PathParameter("role-id", "Identifier of the role").DataType("integer")

	ws.Route(ws.GET("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_role")).
		To(ctl.listRolesHandler).
		Doc("List roles with their permissions").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "List of roles", RolesEnvelope{}))

	ws.Route(ws.GET("/{role-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_role")).
		To(ctl.getRoleHandler).
		Doc("Get role by ID").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Role details", RoleEnvelope{}).
		Returns(http.StatusNotFound, "Role not found", response.Envelope{}))

	ws.Route(ws.POST("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("create_role")).
		To(ctl.createRoleHandler).
		Doc("Create a role with optional permissions").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateRoleInput{}).
		Returns(http.StatusCreated, "Role created successfully", RoleEnvelope{}).
		Returns(http.StatusBadRequest, "Name taken or unknown permissions", response.Envelope{}))

	ws.Route(ws.PUT("/{role-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("rename_role")).
		To(ctl.renameRoleHandler).
		Doc("Rename a role").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RenameRoleInput{}).
		Returns(http.StatusOK, "Role renamed successfully", RoleEnvelope{}).
		Returns(http.StatusBadRequest, "Name taken", response.Envelope{}).
		Returns(http.StatusNotFound, "Role not found", response.Envelope{}))

	ws.Route(ws.DELETE("/{role-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("delete_role")).
		To(ctl.deleteRoleHandler).
		Doc("Delete a role and its permission links").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Role deleted successfully", response.Envelope{}).
		Returns(http.StatusBadRequest, "Role still assigned to users", response.Envelope{}).
		Returns(http.StatusNotFound, "Role not found", response.Envelope{}))
}

// RegisterPermissionLinkRoutes sets up the role-has-permissions routes.
func (ctl *RoleController) RegisterPermissionLinkRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/role-has-permissions").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"role-has-permissions"}
	idParam := ws.PathParameter("role-id", "Identifier of the role").DataType("integer")

	ws.Route(ws.POST("/{role-id}/assign-permissions").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("assign_permissions")).
		To(ctl.assignPermissionsHandler).
		Doc("Assign permissions to a role").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.PermissionIDsInput{}).
		Returns(http.StatusOK, "Permissions assigned successfully", RoleEnvelope{}).
		Returns(http.StatusBadRequest, "One or more permissions do not exist", response.Envelope{}).
		Returns(http.StatusNotFound, "Role not found", response.Envelope{}))

	ws.Route(ws.POST("/{role-id}/remove-permissions").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("remove_permissions")).
		To(ctl.removePermissionsHandler).
		Doc("Remove permissions from a role").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.PermissionIDsInput{}).
		Returns(http.StatusOK, "Permissions removed successfully", RoleEnvelope{}).
		Returns(http.StatusBadRequest, "One or more permissions do not exist", response.Envelope{}).
		Returns(http.StatusNotFound, "Role not found", response.Envelope{}))
}

func (ctl *RoleController) listRolesHandler(req *restful.Request, resp *restful.Response) {
	roles, err := ctl.roleService.ListRoles(req.Request.Context())
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "List of roles", RolesEnvelope{Roles: services.MapRolesToResponse(roles)})
}

func (ctl *RoleController) getRoleHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "role-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	role, err := ctl.roleService.GetRole(req.Request.Context(), id)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Role details", RoleEnvelope{Role: services.MapRoleToResponse(role)})
}

func (ctl *RoleController) createRoleHandler(req *restful.Request, resp *restful.Response) {
	input := new(services.CreateRoleInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	role, err := ctl.roleService.CreateRole(req.Request.Context(), input)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusCreated, "Role created successfully", RoleEnvelope{Role: services.MapRoleToResponse(role)})
}

func (ctl *RoleController) renameRoleHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "role-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	input := new(services.RenameRoleInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	role, err := ctl.roleService.RenameRole(req.Request.Context(), id, input)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Role renamed successfully", RoleEnvelope{Role: services.MapRoleToResponse(role)})
}

func (ctl *RoleController) deleteRoleHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "role-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	if err := ctl.roleService.DeleteRole(req.Request.Context(), id); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Role deleted successfully", nil)
}

func (ctl *RoleController) assignPermissionsHandler(req *restful.Request, resp *restful.Response) {
	ctl.changePermissions(req, resp, ctl.roleService.AssignPermissions, "Permissions assigned successfully")
}

func (ctl *RoleController) removePermissionsHandler(req *restful.Request, resp *restful.Response) {
	ctl.changePermissions(req, resp, ctl.roleService.RemovePermissions, "Permissions removed successfully")
}

type permissionChange func(ctx context.Context, id uint, input *services.PermissionIDsInput) (*models.Role, error)

func (ctl *RoleController) changePermissions(req *restful.Request, resp *restful.Response, change permissionChange, message string) {
	id, err := pathID(req, "role-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	input := new(services.PermissionIDsInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	role, err := change(req.Request.Context(), id, input)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, message, RoleEnvelope{Role: services.MapRoleToResponse(role)})
}
