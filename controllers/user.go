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

type UserController struct {
	prefix      string
	userService services.UserService
	guard       *auth.RouteGuard
	logger      *zap.Logger
}

func NewUserController(prefix string, userService services.UserService, guard *auth.RouteGuard, logger *zap.Logger) *UserController {
	return &UserController{prefix: prefix, userService: userService, guard: guard, logger: logger}
}

type UserEnvelope struct {
	User services.UserResponse `json:"user"`
}

type UsersEnvelope struct {
	Users []services.UserResponse `json:"users"`
}

// RegisterRoutes sets up the user administration routes. Every route runs the
// authentication filter first, then its own permission filter.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"users"}
	idParam := ws.PathParameter("user-id", "Identifier of the user").DataType("integer")

	ws.Route(ws.GET("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_user")).
		To(ctl.listUsersHandler).
		Doc("List users").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "List of users", UsersEnvelope{}).
		Returns(http.StatusUnauthorized, "Unauthorized", response.Envelope{}).
		Returns(http.StatusForbidden, "Forbidden", response.Envelope{}))

	ws.Route(ws.GET("/{user-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_user")).
		To(ctl.getUserHandler).
		Doc("Get user by ID").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "User details", UserEnvelope{}).
		Returns(http.StatusNotFound, "User not found", response.Envelope{}))

	ws.Route(ws.POST("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("create_user")).
		To(ctl.createUserHandler).
		Doc("Create a user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateUserInput{}).
		Returns(http.StatusCreated, "User created successfully", UserEnvelope{}).
		Returns(http.StatusBadRequest, "Email already registered or role not found", response.Envelope{}).
		Returns(http.StatusUnprocessableEntity, "Invalid request body", response.Envelope{}))

	ws.Route(ws.PUT("/{user-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("update_user")).
		To(ctl.updateUserHandler).
		Doc("Update user by ID").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateUserInput{}).
		Returns(http.StatusOK, "User updated successfully", UserEnvelope{}).
		Returns(http.StatusBadRequest, "Email in use, invalid status or unknown role", response.Envelope{}).
		Returns(http.StatusNotFound, "User not found", response.Envelope{}))

	ws.Route(ws.DELETE("/{user-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("delete_user")).
		To(ctl.deleteUserHandler).
		Doc("Delete user by ID").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "User deleted successfully", response.Envelope{}).
		Returns(http.StatusNotFound, "User not found", response.Envelope{}))
}

func (ctl *UserController) listUsersHandler(req *restful.Request, resp *restful.Response) {
	users, err := ctl.userService.ListUsers(req.Request.Context())
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "List of users", UsersEnvelope{Users: services.MapUsersToResponse(users)})
}

func (ctl *UserController) getUserHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "user-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	user, err := ctl.userService.GetUserByID(req.Request.Context(), id)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "User details", UserEnvelope{User: services.MapUserToResponse(user)})
}

func (ctl *UserController) createUserHandler(req *restful.Request, resp *restful.Response) {
	input := new(services.CreateUserInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	user, err := ctl.userService.CreateUser(req.Request.Context(), input)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusCreated, "User created successfully", UserEnvelope{User: services.MapUserToResponse(user)})
}

func (ctl *UserController) updateUserHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "user-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	input := new(services.UpdateUserInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	user, err := ctl.userService.UpdateUser(req.Request.Context(), id, input)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "User updated successfully", UserEnvelope{User: services.MapUserToResponse(user)})
}

func (ctl *UserController) deleteUserHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "user-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	if err := ctl.userService.DeleteUser(req.Request.Context(), id); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "User deleted successfully", nil)
}
