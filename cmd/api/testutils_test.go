package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/blogservice"
	"github.com/kbrown-stack/Api-Blogging-Project/internal/common"
	"github.com/kbrown-stack/Api-Blogging-Project/internal/userservice"
)

type mockProducer struct{}

func (p *mockProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	return nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	db := common.TestDB("file://../../migrations", t)

	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	tm := userservice.NewTokenManager("test-secret", userservice.AccessTokenTime)

	cfg := &Config{
		Environment:    "testing",
		Version:        "test",
		JWTSecret:      "test-secret",
		LimiterEnabled: false,
	}

	return &application{
		config:      cfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		userService: userservice.NewUserService(db, &mockProducer{}, tm, cache),
		blogService: blogservice.NewBlogService(db),
	}
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	ts.Client().Jar = jar

	return &testServer{ts}
}

func (ts *testServer) get(t *testing.T, urlPath string) (int, []byte) {
	t.Helper()

	res, err := ts.Client().Get(ts.URL + urlPath)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, body
}

func (ts *testServer) post(t *testing.T, urlPath string, payload []byte) (int, []byte) {
	return ts.do(t, http.MethodPost, urlPath, payload)
}

func (ts *testServer) patch(t *testing.T, urlPath string, payload []byte) (int, []byte) {
	return ts.do(t, http.MethodPatch, urlPath, payload)
}

func (ts *testServer) put(t *testing.T, urlPath string, payload []byte) (int, []byte) {
	return ts.do(t, http.MethodPut, urlPath, payload)
}

func (ts *testServer) delete(t *testing.T, urlPath string) (int, []byte) {
	return ts.do(t, http.MethodDelete, urlPath, nil)
}

func (ts *testServer) do(t *testing.T, method, urlPath string, payload []byte) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+urlPath, bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, body
}
