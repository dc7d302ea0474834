package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mailcal/internal/auth"
	"github.com/hitoshi/mailcal/internal/middleware"
	"github.com/hitoshi/mailcal/internal/model"
)

const sessionCookieName = "session_token"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は認可コードを交換し、セッショントークンを発行する。
	Login(ctx context.Context, code string) (*auth.LoginResult, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	TokenMaxAge  int // セッションCookieの有効期間（秒）。トークンTTLと一致させる。
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Code string `json:"code"`
}

// loginResponse はログイン成功時のレスポンス。
// トークンはボディとHTTP Only Cookieの両方で返す。
type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// Login はGoogle認可コードによるログインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}
	if req.Code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "認可コードが指定されていません。",
			Category: "validation",
			Action:   "Googleログインをやり直してください。",
		})
		return
	}

	result, err := h.service.Login(r.Context(), req.Code)
	if err != nil {
		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// セッショントークンをHTTP Only Cookieにも設定する
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    result.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.TokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "ログインしました。",
		Token:   result.Token,
		User:    toUserResponse(result.User),
	})
}
