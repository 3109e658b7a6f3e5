package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
)

const (
	ContentType    = "application/json"
	CSVContentType = "text/csv"

	// FileNameHeader carries the name of an uploaded file.
	FileNameHeader = "X-File-Name"
)

type errorRes struct {
	Err     string `json:"error"`
	Message string `json:"message,omitempty"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(StatusCode(err))

	res := errorRes{Err: err.Error()}
	var remote *pkgerrors.RemoteError
	if errors.As(err, &remote) {
		res.Err = pkgerrors.ErrRemoteRejection.Error()
		res.Message = remote.Message
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// StatusCode maps an error to the HTTP status reported to API clients.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, pkgerrors.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrMalformedRequest),
		errors.Is(err, pkgerrors.ErrInvalidSelection),
		errors.Is(err, pkgerrors.ErrEmptyKey):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgerrors.ErrConcurrencyConflict),
		errors.Is(err, pkgerrors.ErrInvalidTransition),
		errors.Is(err, pkgerrors.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, pkgerrors.ErrRemoteRejection):
		return http.StatusBadGateway
	case errors.Is(err, pkgerrors.ErrNetworkFailure):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
