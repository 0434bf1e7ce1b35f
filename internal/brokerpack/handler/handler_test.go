package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wipefix/wipefix/backend/go-services/internal/auth"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/repository"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/service"
)

const packBody = `{"version":"1.0.1","brokers":[{"id":"acxiom-test","name":"Acxiom Test","opt_out_url":"https://isapps.acxiom.com/optout/optout.aspx","required_fields":["name","email","address"]}]}`

type downRepo struct {
	*repository.MemoryRepo
}

func (downRepo) FindByVersion(context.Context, string) (*brokerpack.StoredPack, error) {
	return nil, errors.New("no reachable servers")
}

// faultyService fails reads with an error that is neither domain nor storage.
type faultyService struct {
	service.Service
}

func (faultyService) Get(context.Context, string) (*brokerpack.BrokerPack, error) {
	return nil, errors.New("json: unsupported value: NaN")
}

func setup(token string, repo repository.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterPackRoutes(g, service.New(repo, auth.NewAdminAuthorizer(token)))
	return g
}

func do(g *gin.Engine, method, path, body, authz string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	g.ServeHTTP(w, req)
	return w
}

func TestPackHandler_Lifecycle(t *testing.T) {
	g := setup("s3cret", repository.NewMemoryRepo())

	// latest on empty store
	w := do(g, http.MethodGet, "/api/broker-packs/latest", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// create
	w = do(g, http.MethodPost, "/api/broker-packs", packBody, "Bearer s3cret")
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "1.0.1", created["version"])
	require.NotEmpty(t, created["created_at"])
	require.NotContains(t, created, "_id")
	broker := created["brokers"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "web", broker["form_type"])

	// get
	w = do(g, http.MethodGet, "/api/broker-packs/1.0.1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotContains(t, got, "_id")
	require.Equal(t, created, got)

	// latest
	w = do(g, http.MethodGet, "/api/broker-packs/latest", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "1.0.1", got["version"])

	// duplicate
	w = do(g, http.MethodPost, "/api/broker-packs", `{"version":"1.0.1","brokers":[]}`, "Bearer s3cret")
	require.Equal(t, http.StatusConflict, w.Code)

	// unknown version
	w = do(g, http.MethodGet, "/api/broker-packs/0.0.1", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPackHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		authz  string
		body   string
		status int
	}{
		{name: "missing credential", token: "s3cret", body: packBody, status: http.StatusUnauthorized},
		{name: "wrong credential", token: "s3cret", authz: "Bearer nope", body: packBody, status: http.StatusUnauthorized},
		{name: "token not configured", authz: "Bearer s3cret", body: packBody, status: http.StatusInternalServerError},
		{name: "malformed json", token: "s3cret", authz: "Bearer s3cret", body: `{"version":`, status: http.StatusBadRequest},
		{name: "reserved version", token: "s3cret", authz: "Bearer s3cret", body: `{"version":"latest","brokers":[]}`, status: http.StatusBadRequest},
		{name: "blank url", token: "s3cret", authz: "Bearer s3cret", body: `{"version":"1","brokers":[{"id":"a","name":"A","opt_out_url":" "}]}`, status: http.StatusBadRequest},
		{name: "brokers absent", token: "s3cret", authz: "Bearer s3cret", body: `{"version":"1"}`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemoryRepo()
			g := setup(tt.token, repo)
			w := do(g, http.MethodPost, "/api/broker-packs", tt.body, tt.authz)
			require.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], "token")

			_, err := repo.FindNewest(context.Background())
			require.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestPackHandler_StorageFailure(t *testing.T) {
	g := setup("s3cret", downRepo{repository.NewMemoryRepo()})

	w := do(g, http.MethodGet, "/api/broker-packs/1.0.0", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "no reachable servers")
}

func TestPackHandler_UnclassifiedFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterPackRoutes(g, faultyService{})

	w := do(g, http.MethodGet, "/api/broker-packs/1.0.0", "", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestPackHandler_AcceptsFreeFormEntries(t *testing.T) {
	g := setup("s3cret", repository.NewMemoryRepo())

	body := `{"version":"2.0.0","brokers":[` +
		`{"id":"mailer","name":"Mailer","opt_out_url":"mailto:privacy@b.example","form_type":"email"},` +
		`{"id":"custom","name":"Custom","opt_out_url":"https://c.example/optout","form_type":"online_form"}]}`
	w := do(g, http.MethodPost, "/api/broker-packs", body, "Bearer s3cret")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"form_type":"online_form"`)
}
