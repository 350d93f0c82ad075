package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"diabetesapi/pipeline"
)

const indexBanner = "Diabetes Prediction API is ready!"

var knownRoutes = map[string]bool{
	"/":        true,
	"/predict": true,
	"/health":  true,
	"/metrics": true,
}

// RegisterHandlers mounts every route on mux. Wrong methods on a known path
// and unknown paths get JSON error envelopes rather than the mux defaults.
func RegisterHandlers(mux *http.ServeMux, deps Deps) {
	h := &handlers{deps: deps}

	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("/{$}", handleMethodNotAllowed)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("/predict", handleMethodNotAllowed)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("/health", handleMethodNotAllowed)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
		mux.HandleFunc("/metrics", handleMethodNotAllowed)
	}
	mux.HandleFunc("/", handleNotFound)
}

type handlers struct {
	deps Deps
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, indexBanner)
}

type healthResponse struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded"`
	ModelType       string `json:"model_type,omitempty"`
	ModelGeneration uint64 `json:"model_generation,omitempty"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "degraded"}
	if m, ok := h.deps.Handle.Current(); ok {
		resp = healthResponse{
			Status:          "ok",
			ModelLoaded:     true,
			ModelType:       m.Type,
			ModelGeneration: m.Generation,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r.Header.Get("Content-Type")) {
		writeError(w, pipeline.NewError(pipeline.StatusInvalidContentType, "Content-Type must be application/json"))
		return
	}

	payload, perr := DecodePayload(r.Body)
	if perr != nil {
		writeError(w, perr)
		return
	}

	ctx := pipeline.WithLanguage(r.Context(), pipeline.MatchLanguage(r.Header.Get("Accept-Language")))
	result, err := h.deps.Pipeline.Run(ctx, payload)
	if err != nil {
		var failure *pipeline.Error
		if !errors.As(err, &failure) {
			failure = pipeline.NewError(pipeline.StatusInternalError, err.Error())
		}
		writeError(w, failure)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, pipeline.NewError(pipeline.StatusNotFound, "no route for "+r.URL.Path))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, pipeline.NewError(pipeline.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path))
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// DecodePayload reads exactly one JSON object. Anything else, including an
// empty body or trailing data, is no_data. Numbers are kept as json.Number so
// out-of-range literals reach range validation instead of failing here.
func DecodePayload(body io.Reader) (pipeline.Payload, *pipeline.Error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, pipeline.NewError(pipeline.StatusNoData, "no input data provided")
		case errors.As(err, &tooLarge):
			return nil, pipeline.NewError(pipeline.StatusNoData, "request body too large")
		default:
			return nil, pipeline.NewError(pipeline.StatusNoData, "request body is not valid JSON")
		}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, pipeline.NewError(pipeline.StatusNoData, "request body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, pipeline.NewError(pipeline.StatusNoData, "request body has data after the JSON object")
	}
	return pipeline.Payload(obj), nil
}

func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}
