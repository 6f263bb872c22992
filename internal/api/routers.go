package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/zrupay/zru-go/pkg/notification"
)

const (
	basePath            = "/zru/v1"
	maxNotificationBody = 1 << 20
	defaultHistoryRange = 24 * time.Hour
)

var errMalformedBody = errors.New("malformed notification body")

// ImplResponse is a status code and the body to encode as JSON.
type ImplResponse struct {
	Code int
	Body interface{}
}

func Response(code int, body interface{}) ImplResponse {
	return ImplResponse{Code: code, Body: body}
}

type Status struct {
	Maintenance bool   `json:"maintenance"`
	Status      string `json:"status"`
}

type ErrorBody struct {
	Error string `json:"error"`
}

// NewRouter routes the API onto service.
func NewRouter(service ApiServicer) *mux.Router {
	c := &controller{service: service}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc(basePath+"/status", c.GetStatus).
		Methods(http.MethodGet).
		Name("GetStatus")
	router.HandleFunc(basePath+"/notification", c.PostNotification).
		Methods(http.MethodPost).
		Name("PostNotification")
	router.HandleFunc(basePath+"/notification/{notificationId}", c.GetNotification).
		Methods(http.MethodGet).
		Name("GetNotification")
	router.HandleFunc(basePath+"/notifications", c.GetNotifications).
		Methods(http.MethodGet).
		Name("GetNotifications")

	return router
}

type controller struct {
	service ApiServicer
}

func (c *controller) GetStatus(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetStatus(r.Context())
	encode(w, r, result, err)
}

func (c *controller) PostNotification(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeNotification(r)
	if err != nil {
		encode(w, r, Response(http.StatusBadRequest, ErrorBody{Error: err.Error()}), nil)
		return
	}

	result, err := c.service.PostNotification(r.Context(), payload)
	encode(w, r, result, err)
}

func (c *controller) GetNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := mux.Vars(r)["notificationId"]
	result, err := c.service.GetNotification(r.Context(), notificationID)
	encode(w, r, result, err)
}

func (c *controller) GetNotifications(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-defaultHistoryRange)
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			encode(w, r, Response(http.StatusBadRequest, ErrorBody{Error: fmt.Sprintf("invalid since: %v", err)}), nil)
			return
		}
		since = t
	}

	result, err := c.service.GetNotifications(r.Context(), since)
	encode(w, r, result, err)
}

// decodeNotification reads a form encoded or JSON webhook body.
func decodeNotification(r *http.Request) (notification.Payload, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxNotificationBody)

	switch mediaType {
	case "application/json":
		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		payload, err := notification.DecodePayload(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return payload, nil
	case "application/x-www-form-urlencoded", "multipart/form-data":
		err = r.ParseMultipartForm(maxNotificationBody)
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return notification.PayloadFromForm(r.PostForm), nil
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", errMalformedBody, mediaType)
	}
}

// encode writes result as JSON. A non-nil err with no response code is a 500.
func encode(w http.ResponseWriter, r *http.Request, result ImplResponse, err error) {
	if err != nil {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if result.Code == 0 {
			result = Response(http.StatusInternalServerError, ErrorBody{Error: http.StatusText(http.StatusInternalServerError)})
		}
	}
	if result.Code == 0 {
		result.Code = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(result.Code)
	if result.Body == nil {
		return
	}
	err = json.NewEncoder(w).Encode(result.Body)
	if err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}
