package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/estatehq/backoffice/internal/backoffice/media"
	"github.com/estatehq/backoffice/internal/backoffice/notify"
	"github.com/estatehq/backoffice/internal/backoffice/service"
	"github.com/estatehq/backoffice/internal/backoffice/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

type capturingDispatcher struct {
	email string
	code  string
	err   error
}

func (d *capturingDispatcher) SendCode(_ context.Context, email, code string) error {
	if d.err != nil {
		return d.err
	}
	d.email = email
	d.code = code
	return nil
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, dispatcher service.Dispatcher) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := NewRouter("test", st, logger)
	r.ClientService = &service.ClientService{Store: st}
	r.AdminService = &service.AdminService{Store: st}
	r.AgencyService = &service.AgencyService{Store: st}
	r.OTPService = &service.OTPService{Store: st, Mailer: dispatcher}
	r.RequireVerification = true
	r.MailerConfigured = true
	r.ApplyRoutes()

	return r
}

func doJSON(t *testing.T, router *Router, method, target, ip string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// issueAndVerify walks the full verification handshake and returns the
// session token, ready to be spent on a create.
func issueAndVerify(t *testing.T, router *Router, dispatcher *capturingDispatcher, email, ip string) string {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/otp", ip, map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var issued struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	require.NotEmpty(t, issued.Token)
	require.Equal(t, email, dispatcher.email)

	rec, _ = doJSON(t, router, http.MethodPost, "/otp/verify", ip,
		map[string]string{"token": issued.Token, "code": dispatcher.code}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	return issued.Token
}

func clientPayload(email string) map[string]any {
	return map[string]any{
		"name":        "Acme Realty",
		"phoneNumber": "+61 400 000 001",
		"email":       email,
		"city":        "Brisbane",
		"state":       "QLD",
		"address":     "1 Example Street",
		"logo":        "https://cdn.example/acme.png",
	}
}

func TestClientCreateRequiresVerifiedEmail(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newTestRouter(t, dispatcher)

	t.Run("create without a token is refused", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/clients", "10.0.0.1",
			clientPayload("owner@acme.example"), nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "email has not been verified", env.Message)
	})

	token := issueAndVerify(t, router, dispatcher, "owner@acme.example", "10.0.0.2")

	t.Run("token for a different email is refused", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/clients", "10.0.0.3",
			clientPayload("other@acme.example"),
			map[string]string{verificationTokenHeader: token})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	var createdID string
	t.Run("verified create succeeds", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/clients", "10.0.0.4",
			clientPayload("owner@acme.example"),
			map[string]string{verificationTokenHeader: token})
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "client created successfully", env.Message)

		var created clientResponse
		require.NoError(t, json.Unmarshal(env.Data, &created))
		require.NotEmpty(t, created.ID)
		createdID = created.ID
	})

	t.Run("the token is single use", func(t *testing.T) {
		payload := clientPayload("owner@acme.example")
		payload["phoneNumber"] = "+61 400 000 009"
		rec, _ := doJSON(t, router, http.MethodPost, "/clients", "10.0.0.5",
			payload, map[string]string{verificationTokenHeader: token})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("created record is readable", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/clients?id="+createdID, "10.0.0.6", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got clientResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		require.Equal(t, "owner@acme.example", got.Email)
	})
}

func TestFailedCreateKeepsVerificationIntact(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newTestRouter(t, dispatcher)

	seedToken := issueAndVerify(t, router, dispatcher, "first@acme.example", "10.9.0.1")
	seed := clientPayload("first@acme.example")
	rec, _ := doJSON(t, router, http.MethodPost, "/clients", "10.9.0.2",
		seed, map[string]string{verificationTokenHeader: seedToken})
	require.Equal(t, http.StatusCreated, rec.Code)

	token := issueAndVerify(t, router, dispatcher, "second@acme.example", "10.9.0.3")

	t.Run("missing field is rejected", func(t *testing.T) {
		payload := clientPayload("second@acme.example")
		delete(payload, "city")
		payload["phoneNumber"] = "+61 400 000 002"
		rec, _ := doJSON(t, router, http.MethodPost, "/clients", "10.9.0.4",
			payload, map[string]string{verificationTokenHeader: token})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate phone number is rejected", func(t *testing.T) {
		payload := clientPayload("second@acme.example")
		rec, _ := doJSON(t, router, http.MethodPost, "/clients", "10.9.0.5",
			payload, map[string]string{verificationTokenHeader: token})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("corrected resubmission reuses the same token", func(t *testing.T) {
		payload := clientPayload("second@acme.example")
		payload["phoneNumber"] = "+61 400 000 002"
		rec, env := doJSON(t, router, http.MethodPost, "/clients", "10.9.0.6",
			payload, map[string]string{verificationTokenHeader: token})
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "client created successfully", env.Message)
	})
}

func TestClientCreateIgnoresPasswordField(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newTestRouter(t, dispatcher)

	token := issueAndVerify(t, router, dispatcher, "owner@acme.example", "10.1.0.1")

	// A hostile form payload smuggling a password must not break the
	// create, and nothing credential-shaped may come back out.
	payload := clientPayload("owner@acme.example")
	payload["password"] = "hunter2"

	rec, env := doJSON(t, router, http.MethodPost, "/clients", "10.1.0.2",
		payload, map[string]string{verificationTokenHeader: token})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, string(env.Data), "hunter2")
	require.NotContains(t, string(env.Data), "password")
}

func TestClientQueryParamContract(t *testing.T) {
	router := newTestRouter(t, &capturingDispatcher{})

	t.Run("unknown id is a 404", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/clients?id=nope", "10.2.0.1", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "client not found", env.Message)
	})

	t.Run("update without id is a 400", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPut, "/clients", "10.2.0.2",
			map[string]string{"name": "x"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "id query parameter is required", env.Message)
	})

	t.Run("delete without id is a 400", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodDelete, "/clients", "10.2.0.3", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete of unknown id is a 404", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodDelete, "/clients?id=nope", "10.2.0.4", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/otp", bytes.NewBufferString("{broken"))
		req.Header.Set("X-Forwarded-For", "10.2.0.5")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOTPVerifyFailures(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newTestRouter(t, dispatcher)

	rec, env := doJSON(t, router, http.MethodPost, "/otp", "10.3.0.1",
		map[string]string{"email": "buyer@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))

	t.Run("wrong code is a 400", func(t *testing.T) {
		wrong := "000000"
		if dispatcher.code == wrong {
			wrong = "000001"
		}
		rec, env := doJSON(t, router, http.MethodPost, "/otp/verify", "10.3.0.2",
			map[string]string{"token": issued.Token, "code": wrong}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid verification code", env.Message)
	})

	t.Run("unknown token is a 404", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/otp/verify", "10.3.0.3",
			map[string]string{"token": "bogus", "code": "123456"}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad address is a 400", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/otp", "10.3.0.4",
			map[string]string{"email": "not-an-address"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOTPDispatchFailureIsBadGateway(t *testing.T) {
	dispatchErr := fmt.Errorf("%w: relay down", notify.ErrDispatch)
	router := newTestRouter(t, &capturingDispatcher{err: dispatchErr})

	rec, env := doJSON(t, router, http.MethodPost, "/otp", "10.4.0.1",
		map[string]string{"email": "buyer@example.com"}, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Empty(t, env.Data)
}

func TestUploadPassThrough(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "preset", r.FormValue("upload_preset"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example/up.png"}`))
	}))
	defer host.Close()

	router := newTestRouter(t, &capturingDispatcher{})
	router.Uploader = media.NewUploader(host.URL, "preset")
	router.Mux = http.NewServeMux()
	router.ApplyRoutes()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/media/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Forwarded-For", "10.5.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var uploaded uploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	require.Equal(t, "https://cdn.example/up.png", uploaded.URL)

	t.Run("missing file is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/media/upload", bytes.NewBufferString(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		req.Header.Set("X-Forwarded-For", "10.5.0.2")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &capturingDispatcher{})

	t.Run("livez is always ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.Header.Set("X-Forwarded-For", "10.6.0.1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var health struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		require.Equal(t, "ok", health.Status)
	})

	t.Run("readyz reports ok with live store and mailer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.Header.Set("X-Forwarded-For", "10.6.0.2")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminEndpointsRoundTrip(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newTestRouter(t, dispatcher)

	ownerToken := issueAndVerify(t, router, dispatcher, "owner@acme.example", "10.7.0.1")
	rec, env := doJSON(t, router, http.MethodPost, "/clients", "10.7.0.2",
		clientPayload("owner@acme.example"),
		map[string]string{verificationTokenHeader: ownerToken})
	require.Equal(t, http.StatusCreated, rec.Code)

	var owner clientResponse
	require.NoError(t, json.Unmarshal(env.Data, &owner))

	adminToken := issueAndVerify(t, router, dispatcher, "jordan@acme.example", "10.7.0.3")
	rec, env = doJSON(t, router, http.MethodPost, "/admin", "10.7.0.4",
		map[string]string{
			"firstName":   "Jordan",
			"lastName":    "Lee",
			"email":       "jordan@acme.example",
			"phoneNumber": "+61 400 100 001",
			"clientId":    owner.ID,
		},
		map[string]string{verificationTokenHeader: adminToken})
	require.Equal(t, http.StatusCreated, rec.Code)

	var admin adminResponse
	require.NoError(t, json.Unmarshal(env.Data, &admin))
	require.Equal(t, owner.ID, admin.ClientID)

	t.Run("list filters by clientId", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/admin?clientId="+owner.ID, "10.7.0.5", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var admins []adminResponse
		require.NoError(t, json.Unmarshal(env.Data, &admins))
		require.Len(t, admins, 1)
	})

	t.Run("update then delete", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPut, "/admin?id="+admin.ID, "10.7.0.6",
			map[string]string{"phoneNumber": "+61 400 100 999"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated adminResponse
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		require.Equal(t, "+61 400 100 999", updated.PhoneNumber)

		rec, _ = doJSON(t, router, http.MethodDelete, "/admin?id="+admin.ID, "10.7.0.7", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = doJSON(t, router, http.MethodGet, "/admin?id="+admin.ID, "10.7.0.8", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAgencyEndpointsRoundTrip(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newTestRouter(t, dispatcher)

	token := issueAndVerify(t, router, dispatcher, "hello@harbour.example", "10.8.0.1")
	rec, env := doJSON(t, router, http.MethodPost, "/agency", "10.8.0.2",
		map[string]any{
			"name":        "Harbour Group",
			"phoneNumber": "+61 400 200 001",
			"email":       "hello@harbour.example",
			"address":     "2 Harbour Road",
			"logo":        "https://cdn.example/harbour.png",
			"clients":     []string{"client-a"},
		},
		map[string]string{verificationTokenHeader: token})
	require.Equal(t, http.StatusCreated, rec.Code)

	var agency agencyResponse
	require.NoError(t, json.Unmarshal(env.Data, &agency))
	require.Equal(t, []string{"client-a"}, agency.Clients)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dupToken := issueAndVerify(t, router, dispatcher, "hello@harbour.example", "10.8.0.3")
		rec, _ := doJSON(t, router, http.MethodPost, "/agency", "10.8.0.4",
			map[string]any{
				"name":        "Harbour Clone",
				"phoneNumber": "+61 400 200 002",
				"email":       "hello@harbour.example",
				"address":     "3 Harbour Road",
				"logo":        "https://cdn.example/clone.png",
			},
			map[string]string{verificationTokenHeader: dupToken})
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}
