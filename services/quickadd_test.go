package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestQuickAddClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != QuickAddCategoryPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get(CSRFFieldName) != "masked-1" {
			t.Errorf("csrf field = %q", r.PostForm.Get(CSRFFieldName))
		}
		if c, err := r.Cookie(CSRFCookieName); err != nil || c.Value != "secret-1" {
			t.Errorf("csrf cookie missing: %v", err)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Error("missing X-Requested-With header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","id":"cat123","nombre":"SUELOS"}`))
	}))
	defer srv.Close()

	client := NewQuickAddClient(srv.URL+"/", CSRFCredentials{Cookie: "secret-1", Token: "masked-1"}, srv.Client())
	res, err := client.CreateCategory(context.Background(), "Suelos")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if res.ID != "cat123" || res.Name != "SUELOS" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestQuickAddClient_ClientName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","id":"c1","razon_social":"ACME SAC","ruc":"20123456789"}`))
	}))
	defer srv.Close()

	res, err := NewQuickAddClient(srv.URL, CSRFCredentials{Token: "t"}, nil).CreateClient(context.Background(), "20123456789", "ACME SAC")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if res.Name != "ACME SAC" || res.Fields["ruc"] != "20123456789" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestQuickAddClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		rejection  bool
		wantStatus int
	}{
		{"server rejection", http.StatusOK, `{"status":"error","message":"RUC duplicado"}`, true, 0},
		{"rejection with 400", http.StatusBadRequest, `{"status":"error","message":"nombre requerido"}`, true, 0},
		{"server error", http.StatusInternalServerError, `boom`, false, 500},
		{"malformed json", http.StatusOK, `{"status":`, false, 200},
		{"unknown status", http.StatusOK, `{"status":"maybe"}`, false, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewQuickAddClient(srv.URL, CSRFCredentials{Token: "t"}, srv.Client()).CreateSubcategory(context.Background(), "cat1", "Campo")
			if err == nil {
				t.Fatal("expected error")
			}

			var rej *ServerRejection
			var netErr *NetworkError
			switch {
			case tt.rejection:
				if !errors.As(err, &rej) {
					t.Fatalf("expected ServerRejection, got %T: %v", err, err)
				}
				if rej.Message == "" {
					t.Error("rejection message should be carried")
				}
			default:
				if !errors.As(err, &netErr) {
					t.Fatalf("expected NetworkError, got %T: %v", err, err)
				}
				if netErr.Status != tt.wantStatus {
					t.Errorf("status = %d, want %d", netErr.Status, tt.wantStatus)
				}
			}
		})
	}
}

func TestQuickAddClient_TransportFailure(t *testing.T) {
	transportErr := errors.New("connection refused")
	httpClient := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, transportErr
		}),
	}

	_, err := NewQuickAddClient("http://example.test", CSRFCredentials{Token: "t"}, httpClient).CreateCategory(context.Background(), "x")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !errors.Is(err, transportErr) {
		t.Error("NetworkError should unwrap to the transport error")
	}
}

func TestQuickAddClient_ReadFailure(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(&failingReader{}),
				Header:     make(http.Header),
			}, nil
		}),
	}

	_, err := NewQuickAddClient("http://example.test", CSRFCredentials{Token: "t"}, httpClient).CreateCategory(context.Background(), "x")
	var netErr *NetworkError
	if !errors.As(err, &netErr) || !strings.Contains(err.Error(), "read failed") {
		t.Fatalf("expected NetworkError wrapping the read failure, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }
