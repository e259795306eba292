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

type DataSourceController struct {
	prefix            string
	dataSourceService services.DataSourceService
	guard             *auth.RouteGuard
	logger            *zap.Logger
}

func NewDataSourceController(prefix string, dataSourceService services.DataSourceService, guard *auth.RouteGuard, logger *zap.Logger) *DataSourceController {
	return &DataSourceController{prefix: prefix, dataSourceService: dataSourceService, guard: guard, logger: logger}
}

type DataSourceEnvelope struct {
	DataSource services.DataSourceResponse `json:"data_source"`
}

type DataSourcesEnvelope struct {
	DataSources []services.DataSourceResponse `json:"data_sources"`
}

func (ctl *DataSourceController) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.prefix + "/data-sources").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"data-sources"}
	idParam := ws.PathParameter("data-source-id", "Identifier of the data source").DataType("integer")

	ws.Route(ws.GET("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_data_source")).
		To(ctl.listHandler).
		Doc("List data sources").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "List of data sources", DataSourcesEnvelope{}))

	ws.Route(ws.GET("/{data-source-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("read_data_source")).
		To(ctl.getHandler).
		Doc("Get data source by ID").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Data source details", DataSourceEnvelope{}).
		Returns(http.StatusNotFound, "Data source not found", response.Envelope{}))

	ws.Route(ws.POST("").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("create_data_source")).
		To(ctl.createHandler).
		Doc("Create a grafana or kibana data source").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateDataSourceInput{}).
		Returns(http.StatusCreated, "Data source created successfully", DataSourceEnvelope{}).
		Returns(http.StatusBadRequest, "Data source name already in use", response.Envelope{}).
		Returns(http.StatusUnprocessableEntity, "Invalid type", response.Envelope{}))

	ws.Route(ws.PUT("/{data-source-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("update_data_source")).
		To(ctl.updateHandler).
		Doc("Update a data source").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateDataSourceInput{}).
		Returns(http.StatusOK, "Data source updated successfully", DataSourceEnvelope{}).
		Returns(http.StatusNotFound, "Data source not found", response.Envelope{}))

	ws.Route(ws.DELETE("/{data-source-id}").
		Filter(ctl.guard.Authenticated()).Filter(ctl.guard.Require("delete_data_source")).
		To(ctl.deleteHandler).
		Doc("Delete a data source").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Data source deleted successfully", response.Envelope{}).
		Returns(http.StatusNotFound, "Data source not found", response.Envelope{}))
}

func (ctl *DataSourceController) listHandler(req *restful.Request, resp *restful.Response) {
	list, err := ctl.dataSourceService.ListDataSources(req.Request.Context())
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "List of data sources", DataSourcesEnvelope{DataSources: services.MapDataSourcesToResponse(list)})
}

func (ctl *DataSourceController) getHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "data-source-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	ds, err := ctl.dataSourceService.GetDataSource(req.Request.Context(), id)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Data source details", DataSourceEnvelope{DataSource: services.MapDataSourceToResponse(ds)})
}

// createHandler records the authenticated principal as the creator.
func (ctl *DataSourceController) createHandler(req *restful.Request, resp *restful.Response) {
	input := new(services.CreateDataSourceInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	principal, _ := auth.PrincipalFrom(req)
	ds, err := ctl.dataSourceService.CreateDataSource(req.Request.Context(), input, principal.User.ID)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusCreated, "Data source created successfully", DataSourceEnvelope{DataSource: services.MapDataSourceToResponse(ds)})
}

func (ctl *DataSourceController) updateHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "data-source-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	input := new(services.UpdateDataSourceInput)
	if err := readBody(req, input); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	ds, err := ctl.dataSourceService.UpdateDataSource(req.Request.Context(), id, input)
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Data source updated successfully", DataSourceEnvelope{DataSource: services.MapDataSourceToResponse(ds)})
}

func (ctl *DataSourceController) deleteHandler(req *restful.Request, resp *restful.Response) {
	id, err := pathID(req, "data-source-id")
	if err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	if err := ctl.dataSourceService.DeleteDataSource(req.Request.Context(), id); err != nil {
		response.Error(resp, ctl.logger, err)
		return
	}
	response.Success(resp, http.StatusOK, "Data source deleted successfully", nil)
}
