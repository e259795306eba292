package controllers

import (
	"net/http"
	"time"

	"dsadmin/auth"
	"dsadmin/response"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type AuthController struct {
	prefix  string
	auth    *auth.Authenticator
	limiter *LoginLimiter
	logger  *zap.Logger
}

func NewAuthController(prefix string, a *auth.Authenticator, limiter *LoginLimiter, logger *zap.Logger) *AuthController {
	return &AuthController{prefix: prefix, auth: a, limiter: limiter, logger: logger}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccessTokenResponse struct {
	TokenType string    `json:"token_type"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginUserResponse struct {
	Email string `json:"email"`
}

type LoginResponse struct {
	AccessToken AccessTokenResponse `json:"access_token"`
	User        LoginUserResponse   `json:"user"`
}

// RegisterRoutes sets up the public login route.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/login").Filter(ctl.limiter.Filter).To(ctl.loginHandler).
		Doc("Exchange email and password for a bearer token").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(LoginInput{}).
		Returns(http.StatusOK, "Login successful", LoginResponse{}).
		Returns(http.StatusUnauthorized, "Incorrect email or password", response.Envelope{}).
		Returns(http.StatusUnprocessableEntity, "Email field is required", response.Envelope{}).
		Returns(http.StatusTooManyRequests, "Too many login attempts", response.Envelope{}))
}

// RegisterLogoutRoutes sets up logout. It checks the token only, not the
// identity behind it.
func (ctl *AuthController) RegisterLogoutRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/logout").Produces(restful.MIME_JSON)

	ws.Route(ws.POST("").To(ctl.logoutHandler).
		Doc("Revoke the presented bearer token").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Returns(http.StatusOK, "Logout successful", response.Envelope{}).
		Returns(http.StatusUnauthorized, "Unauthorized", response.Envelope{}))
}

func (ctl *AuthController) loginHandler(req *restful.Request, resp *restful.Response) {
	input := new(LoginInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}

	issued, err := ctl.auth.Authenticate(req.Request.Context(), input.Email, input.Password)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}

	response.Success(resp, http.StatusOK, "Login successful", LoginResponse{
		AccessToken: AccessTokenResponse{
			TokenType: issued.TokenType,
			Token:     issued.Token,
			ExpiresAt: issued.ExpiresAt.UTC(),
		},
		User: LoginUserResponse{Email: issued.Email},
	})
}

func (ctl *AuthController) logoutHandler(req *restful.Request, resp *restful.Response) {
	token, err := auth.BearerToken(req.HeaderParameter("Authorization"))
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	if err := ctl.auth.Logout(req.Request.Context(), token); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Logout successful", nil)
}
