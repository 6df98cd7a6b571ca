package httphandler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const proxyErrorBody = `{"errors":[{"message":"graphql proxy error"}]}`

// GraphQLProxy forwards GraphQL documents to the upstream endpoint
// without looking into them.
type GraphQLProxy struct {
	endpoint string
	client   *http.Client
}

func NewGraphQLProxy(endpoint string, client *http.Client) GraphQLProxy {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return GraphQLProxy{endpoint: endpoint, client: client}
}

// Forward relays the body and answers with the upstream status and body.
func (p GraphQLProxy) Forward(w http.ResponseWriter, r *http.Request) {
	const op = "GraphQLProxy.Forward"
	log := slog.With("op", op)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Warn("failed to read request body", "err", err)
		p.fail(w)
		return
	}

	status, contentType, respBody, err := p.roundTrip(r, body)
	if err != nil {
		log.Error("failed to forward request", "err", err)
		p.fail(w)
		return
	}

	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(respBody); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func (p GraphQLProxy) roundTrip(
	r *http.Request, body []byte,
) (status int, contentType string, respBody []byte, err error) {
	req, err := http.NewRequestWithContext(
		r.Context(), http.MethodPost, p.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return 0, "", nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), respBody, nil
}

func (p GraphQLProxy) fail(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, proxyErrorBody)
}

// Preflight answers CORS preflight requests from any origin.
func (p GraphQLProxy) Preflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
