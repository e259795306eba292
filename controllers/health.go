package controllers

import (
	"context"
	"net/http"
	"time"

	"dsadmin/apperror"
	"dsadmin/response"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	check  HealthCheck
	logger *zap.Logger
}

func NewHealthController(check HealthCheck, logger *zap.Logger) *HealthController {
	return &HealthController{check: check, logger: logger}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// RegisterRoutes sets up the unauthenticated liveness route used by load
// balancers and the Consul HTTP check.
func (ctl *HealthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/healthz").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").To(ctl.healthHandler).
		Doc("Service health").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "Service is healthy", HealthResponse{}).
		Returns(http.StatusServiceUnavailable, "Database unreachable", response.Envelope{}))
}

func (ctl *HealthController) healthHandler(req *restful.Request, resp *restful.Response) {
	if ctl.check != nil {
		ctx, cancel := context.WithTimeout(req.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ctl.check(ctx); err != nil {
			ctl.logger.Warn("health check failed", zap.Error(err))
			_ = resp.WriteHeaderAndJson(http.StatusServiceUnavailable, response.Envelope{
				Success:  false,
				Message:  "Database unreachable.",
				Data:     response.ErrorData{Code: apperror.KindInternal.String()},
				Metadata: response.Metadata{APIVersion: response.APIVersion},
			}, restful.MIME_JSON)
			return
		}
	}
	response.Success(resp, http.StatusOK, "OK", HealthResponse{Status: "ok"})
}
