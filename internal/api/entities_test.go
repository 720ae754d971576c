package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickets_List_UsesEntityEndpointAndQueryParams(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","title":"Login broken"},{"id":"2","title":"Slow dashboard"}]`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	got, err := c.Tickets().List(context.Background(), ListOptions{SortBy: "title", Limit: 50})
	require.NoError(t, err)

	assert.Equal(t, "/entities/Ticket/", gotPath)
	assert.Equal(t, "limit=50&sortBy=title", gotQuery)
	require.Len(t, got, 2)
	assert.Equal(t, "Login broken", got[0].Title)
}

func TestTickets_Filter_PostsConditions(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","title":"Login broken","status":"open"}]`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	got, err := c.Tickets().Filter(context.Background(),
		map[string]any{"status": "open"}, ListOptions{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "/entities/Ticket/filter/", gotPath)
	assert.Equal(t, map[string]any{"status": "open"}, gotBody["conditions"])
	assert.EqualValues(t, 10, gotBody["limit"])
	require.Len(t, got, 1)
	assert.Equal(t, "open", got[0].Status)
}

func TestTickets_CreateGetUpdateDelete(t *testing.T) {
	t.Parallel()

	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","title":"Login broken"}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	created, err := c.Tickets().Create(ctx, &Ticket{Title: "Login broken"})
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)

	_, err = c.Tickets().Get(ctx, "42")
	require.NoError(t, err)

	_, err = c.Tickets().Update(ctx, "42", created)
	require.NoError(t, err)

	require.NoError(t, c.Tickets().Delete(ctx, "42"))

	assert.Equal(t, []string{
		"POST /entities/Ticket/",
		"GET /entities/Ticket/42/",
		"PUT /entities/Ticket/42/",
		"DELETE /entities/Ticket/42/",
	}, methods)
}

func TestLogin_InstallsReturnedSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"aaa.bbb.ccc","refresh":"refresh-1"}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.Login(context.Background(), "dev@example.com", "hunter2"))
	assert.True(t, c.HasSession())
}

func TestLogin_OTPRequiredLeavesSessionEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"otpRequired":true}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.Login(context.Background(), "dev@example.com", "hunter2"))
	assert.False(t, c.HasSession())
}

func TestVerifyOTP_InstallsSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/otp/verify/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"aaa.bbb.ccc","refresh":"refresh-2"}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.VerifyOTP(context.Background(), "dev@example.com", "123456"))
	assert.True(t, c.HasSession())
}
