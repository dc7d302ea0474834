package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// テスト用のトークン・ユーザー情報エンドポイントを立てる
func newTestOAuthServer(t *testing.T, accessToken string, userInfo googleUserInfo) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(googleTokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// 認可コード交換でアクセストークンとユーザー情報が得られることを検証
func TestGoogleOAuthProvider_ExchangeCode_Success(t *testing.T) {
	srv := newTestOAuthServer(t, "provider-access-token", googleUserInfo{
		Sub:     "google-sub-1",
		Email:   "taro@example.com",
		Name:    "Taro",
		Picture: "https://example.com/taro.png",
	})

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:5173",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})

	info, err := p.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	if info.Email != "taro@example.com" {
		t.Errorf("Email = %q, want %q", info.Email, "taro@example.com")
	}
	if info.Name != "Taro" {
		t.Errorf("Name = %q, want %q", info.Name, "Taro")
	}
	if info.Picture != "https://example.com/taro.png" {
		t.Errorf("Picture = %q", info.Picture)
	}
	if info.AccessToken != "provider-access-token" {
		t.Errorf("AccessToken = %q, want %q", info.AccessToken, "provider-access-token")
	}
}

// トークンエンドポイントがエラーを返した場合にエラーになることを検証
func TestGoogleOAuthProvider_ExchangeCode_TokenEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	t.Cleanup(srv.Close)

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{
		TokenURL:    srv.URL,
		UserInfoURL: srv.URL,
	})

	if _, err := p.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Error("expected error for token endpoint failure")
	}
}

// アクセストークンが空のレスポンスを拒否することを検証
func TestGoogleOAuthProvider_ExchangeCode_EmptyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(googleTokenResponse{})
	}))
	t.Cleanup(srv.Close)

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{
		TokenURL:    srv.URL,
		UserInfoURL: srv.URL,
	})

	if _, err := p.ExchangeCode(context.Background(), "auth-code"); err == nil {
		t.Error("expected error for empty access token")
	}
}

// デフォルトのエンドポイントURLとタイムアウト付きクライアントが設定されることを検証
func TestNewGoogleOAuthProvider_Defaults(t *testing.T) {
	p := NewGoogleOAuthProvider(GoogleOAuthConfig{})
	if p.config.TokenURL != defaultGoogleTokenURL {
		t.Errorf("TokenURL = %q", p.config.TokenURL)
	}
	if p.config.UserInfoURL != defaultGoogleUserInfoURL {
		t.Errorf("UserInfoURL = %q", p.config.UserInfoURL)
	}
	if p.client == nil || p.client.Timeout <= 0 {
		t.Error("default HTTP client must carry a timeout")
	}
}

// 応答しないエンドポイントに対してクライアントのタイムアウトでエラーになることを検証
func TestGoogleOAuthProvider_ExchangeCode_StalledEndpointTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{
		TokenURL:    srv.URL,
		UserInfoURL: srv.URL,
		HTTPClient:  &http.Client{Timeout: 100 * time.Millisecond},
	})

	start := time.Now()
	_, err := p.ExchangeCode(context.Background(), "auth-code")
	if err == nil {
		t.Fatal("expected timeout error for stalled token endpoint")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("ExchangeCode took %v, want bounded by client timeout", elapsed)
	}
}
