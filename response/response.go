// Package response writes the JSON envelope shared by every HTTP endpoint and
// translates classified errors to status codes.
package response

import (
	"net/http"

	"dsadmin/apperror"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

const APIVersion = "1.0"

type Metadata struct {
	APIVersion string `json:"api_version"`
}

// Envelope is the body of every response.
type Envelope struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Data     any      `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// ErrorData is the data member of an error envelope.
type ErrorData struct {
	Code string `json:"code"`
}

func Success(resp *restful.Response, status int, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	_ = resp.WriteHeaderAndJson(status, Envelope{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: Metadata{APIVersion: APIVersion},
	}, restful.MIME_JSON)
}

// Error writes err as an error envelope. Integrity and internal failures are
// logged and their details never reach the client.
func Error(resp *restful.Response, log *zap.Logger, err error) {
	appErr := apperror.From(err)
	status := appErr.Kind.HTTPStatus()

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("kind", appErr.Kind.String()),
			zap.String("code", appErr.Code),
			zap.Error(appErr),
		)
	}

	_ = resp.WriteHeaderAndJson(status, Envelope{
		Success:  false,
		Message:  appErr.Message,
		Data:     ErrorData{Code: appErr.Code},
		Metadata: Metadata{APIVersion: APIVersion},
	}, restful.MIME_JSON)
}
