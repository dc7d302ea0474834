// Package token はステートレスなセッショントークンの発行と検証を提供する。
// トークンはHS256署名付きJWTで、サーバー側には一切永続化しない。
// 有効性は署名と有効期限のみで決まる。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はセッショントークンの既定の有効期間。
const DefaultTTL = time.Hour

// ErrInvalidToken は署名不一致・ペイロード不正・期限切れのいずれかを表す。
// 呼び出し元には失効理由を区別させない。
var ErrInvalidToken = errors.New("invalid session token")

// Claims はセッショントークンのペイロード。
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Codec はセッショントークンの発行・検証を行う。
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec はCodecを生成する。ttlが0以下の場合はDefaultTTLを使用する。
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Issue は指定ユーザーIDを主体とするセッショントークンを発行する。
// 有効期限は発行時刻 + TTL。副作用はない。
func (c *Codec) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Validate はトークンを検証し、主体のユーザーIDを返す。
// 署名不一致・ペイロード不正・期限切れはすべてErrInvalidTokenになる。
// クロックスキューの許容は設けない。
func (c *Codec) Validate(raw string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// アルゴリズム混同攻撃を防ぐため、HMAC以外の署名方式は拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// TTL はトークンの有効期間を返す。Cookieのmax-age設定に使用する。
func (c *Codec) TTL() time.Duration {
	return c.ttl
}
