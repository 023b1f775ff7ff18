package dlplapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NercinoN21/dlpl-frontend/core"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(ClientConfig{BaseURL: srv.URL, HTTPClient: srv.Client()}), srv
}

func jsonDecode(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func testCreds() core.Credentials {
	return core.Credentials{
		Token:   "tok-123",
		Cookies: map[string]string{"session-token": "sess-456"},
	}
}

func TestClientNormalizesRejections(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode int
	}{
		{"detail body", http.StatusUnprocessableEntity, `{"detail": "CPF não encontrado"}`, "CPF não encontrado", 422},
		{"error body", http.StatusForbidden, `{"error": "not allowed"}`, "not allowed", 403},
		{"raw body", http.StatusBadGateway, `upstream exploded`, "upstream exploded", 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			defer srv.Close()

			err := client.VerifyApplicant(context.Background(), "ANA", "111.111.111-11")
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "want *APIError, got %T", err)
			assert.Equal(t, tt.wantCode, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.False(t, IsConnectionError(err))
		})
	}
}

func TestClientNormalizesConnectionFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(ClientConfig{BaseURL: srv.URL})
	srv.Close() // refuse all connections from now on

	err := client.VerifyApplicant(context.Background(), "ANA", "111.111.111-11")
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	_, ok := AsAPIError(err)
	assert.False(t, ok)
}

func TestClientAttachesAuth(t *testing.T) {
	var gotAuth, gotCookie string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ck, err := r.Cookie("session-token"); err == nil {
			gotCookie = ck.Value
		}
		_, _ = w.Write([]byte(`{"users": []}`))
	})
	defer srv.Close()

	_, err := client.Users(context.Background(), testCreds())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "sess-456", gotCookie)
}

func TestClientPublicCallsCarryNoAuth(t *testing.T) {
	var gotAuth string
	var gotQuery map[string][]string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"courses": ["Letras", "Libras"]}`))
	})
	defer srv.Close()

	courses, err := client.EligibleCourses(context.Background(), "ANA LUCIA", "111.111.111-11")
	require.NoError(t, err)
	assert.Equal(t, []string{"Letras", "Libras"}, courses)
	assert.Empty(t, gotAuth)
	assert.Equal(t, []string{"ANA LUCIA"}, gotQuery["name"])
	assert.Equal(t, []string{"111.111.111-11"}, gotQuery["cpf"])
}

func TestClientLogin(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "root", r.PostFormValue("name"))
			assert.Equal(t, "hunter2", r.PostFormValue("password"))
			http.SetCookie(w, &http.Cookie{Name: "session-token", Value: "sess-456"})
			_, _ = w.Write([]byte(`{"token": "tok-123"}`))
		})
		defer srv.Close()

		creds, err := client.Login(context.Background(), "root", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "tok-123", creds.Token)
		assert.Equal(t, "sess-456", creds.Cookies["session-token"])
	})

	t.Run("missing session cookie", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token": "tok-123"}`))
		})
		defer srv.Close()

		_, err := client.Login(context.Background(), "root", "hunter2")
		assert.Error(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "session-token", Value: "sess-456"})
			_, _ = w.Write([]byte(`{}`))
		})
		defer srv.Close()

		_, err := client.Login(context.Background(), "root", "hunter2")
		assert.Error(t, err)
	})

	t.Run("rejected", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "bad credentials"}`))
		})
		defer srv.Close()

		_, err := client.Login(context.Background(), "root", "wrong")
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "bad credentials", apiErr.Message)
	})
}

func TestClientEnrollmentsFilter(t *testing.T) {
	var gotQuery map[string][]string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data": [{"name": "ANA", "turma": "Turma A"}]}`))
	})
	defer srv.Close()

	rows, err := client.Enrollments(context.Background(), testCreds(), core.EnrollmentFilter{Turma: "Turma A"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ANA", rows[0].Name)

	assert.Equal(t, []string{"Turma A"}, gotQuery["query_turma"])
	// "all" sentinels are never sent
	assert.NotContains(t, gotQuery, "query_nome")
	assert.NotContains(t, gotQuery, "query_semestre")
}

func TestClientEntryInfoRequiresOptions(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"NOTA_PREDITA": 8.5, "OPCOES": []}`))
	})
	defer srv.Close()

	_, err := client.EntryInfo(context.Background(), "ANA", "111.111.111-11", "Letras")
	assert.Error(t, err, "an entry-info record without options must be rejected at the boundary")
}

func TestClientActiveTurmas(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"turmas": [{"name": "Turma A", "semester": "2025.1"}], "active_semester": "2025.1"}`))
	})
	defer srv.Close()

	turmas, semester, err := client.ActiveTurmas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025.1", semester)
	assert.Equal(t, []core.Turma{{Name: "Turma A", Semester: "2025.1"}}, turmas)
}

func TestClientConfigRoundTrip(t *testing.T) {
	var posted configRecord
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{
				"activeSemester": "2025.1",
				"cutoffScore": 6.75,
				"enrollmentStartDate": "2025-01-02T08:00:00",
				"enrollmentEndDate": "2025-02-28T23:59:00"
			}`))
		case http.MethodPost:
			require.NoError(t, jsonDecode(r, &posted))
			w.WriteHeader(http.StatusCreated)
		}
	})
	defer srv.Close()

	conf, err := client.GetConfig(context.Background(), testCreds())
	require.NoError(t, err)
	assert.Equal(t, "2025.1", conf.ActiveSemester)
	assert.Equal(t, 6.75, conf.CutoffScore)
	assert.Equal(t, time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), conf.EnrollmentStart)

	require.NoError(t, client.SaveConfig(context.Background(), testCreds(), conf))
	assert.Equal(t, "2025-01-02T08:00:00", posted.StartDate)
	assert.Equal(t, "2025-02-28T23:59:00", posted.EndDate)
}
