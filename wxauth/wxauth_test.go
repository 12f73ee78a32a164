package wxauth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/wxauth"
)

func wxServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(handler))
}

func newExchanger(serverURL string) *wxauth.Exchanger {
	return wxauth.New(authcore.WeChatConfig{
		AppID:   "test-appid",
		Secret:  "test-secret",
		BaseURL: serverURL,
	})
}

func TestExchange_Success(t *testing.T) {
	server := wxServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sns/jscode2session" {
			t.Errorf("path = %q, want /sns/jscode2session", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("appid") != "test-appid" {
			t.Errorf("appid = %q, want test-appid", q.Get("appid"))
		}
		if q.Get("js_code") != "the-code" {
			t.Errorf("js_code = %q, want the-code", q.Get("js_code"))
		}
		if q.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q, want authorization_code", q.Get("grant_type"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"openid":      "openid-xyz",
			"session_key": "sk",
			"unionid":     "union-1",
		})
	})
	defer server.Close()

	ident, err := newExchanger(server.URL).Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange() unexpected error: %v", err)
	}
	if ident.OpenID != "openid-xyz" {
		t.Errorf("OpenID = %q, want %q", ident.OpenID, "openid-xyz")
	}
	if ident.UnionID != "union-1" {
		t.Errorf("UnionID = %q, want %q", ident.UnionID, "union-1")
	}
}

func TestExchange_ErrorCategories(t *testing.T) {
	cases := []struct {
		errcode int
		want    error
	}{
		{-1, wxauth.ErrSystem},
		{40029, wxauth.ErrInvalidCode},
		{40226, wxauth.ErrUserBlocked},
		{45011, wxauth.ErrRateLimited},
	}
	for _, tc := range cases {
		server := wxServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"errcode": tc.errcode,
				"errmsg":  "provider says no",
			})
		})

		_, err := newExchanger(server.URL).Exchange(context.Background(), "code")
		if !errors.Is(err, tc.want) {
			t.Errorf("errcode %d: Exchange() error = %v, want %v", tc.errcode, err, tc.want)
		}
		server.Close()
	}
}

func TestExchange_UnknownErrCode(t *testing.T) {
	server := wxServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"errcode": 99999, "errmsg": "???"})
	})
	defer server.Close()

	_, err := newExchanger(server.URL).Exchange(context.Background(), "code")
	if err == nil {
		t.Fatal("Exchange() succeeded on unknown errcode, want error")
	}
}

func TestExchange_MissingOpenID(t *testing.T) {
	server := wxServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"session_key": "sk"})
	})
	defer server.Close()

	_, err := newExchanger(server.URL).Exchange(context.Background(), "code")
	if err == nil {
		t.Fatal("Exchange() succeeded without an openid, want error")
	}
}

func TestExchange_EmptyCode(t *testing.T) {
	ex := wxauth.New(authcore.WeChatConfig{AppID: "a", Secret: "s"})
	if _, err := ex.Exchange(context.Background(), ""); err == nil {
		t.Error("Exchange(\"\") succeeded, want error")
	}
}

func TestExchange_HTTPError(t *testing.T) {
	server := wxServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := newExchanger(server.URL).Exchange(context.Background(), "code")
	if err == nil {
		t.Fatal("Exchange() succeeded on HTTP 502, want error")
	}
}

func TestExchange_DefaultBaseURL(t *testing.T) {
	ex := wxauth.New(authcore.WeChatConfig{AppID: "a", Secret: "s"})
	if ex == nil {
		t.Fatal("New() returned nil")
	}
}
