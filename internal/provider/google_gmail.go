package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hitoshi/mailcal/internal/model"
)

// gmailUserID はGmail APIのユーザー指定。アクセストークンの持ち主を指す。
const gmailUserID = "me"

// GoogleGmailClient はGmail APIの読み取り専用クライアント。
// カレンダークライアントと同様にリクエスト単位のサービスハンドルを構築する。
type GoogleGmailClient struct {
	endpoint string // テスト用にオーバーライド可能なエンドポイント
}

// NewGoogleGmailClient はGoogleGmailClientを生成する。
func NewGoogleGmailClient() *GoogleGmailClient {
	return &GoogleGmailClient{}
}

func (c *GoogleGmailClient) newService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// SearchMessages はクエリに一致するメッセージの要約一覧を取得する。
func (c *GoogleGmailClient) SearchMessages(ctx context.Context, accessToken, query string, limit int64) ([]model.MessageSummary, error) {
	svc, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Messages.List(gmailUserID).Q(query).Context(ctx)
	if limit > 0 {
		call = call.MaxResults(limit)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	summaries := make([]model.MessageSummary, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		summaries = append(summaries, model.MessageSummary{
			ID:       m.Id,
			ThreadID: m.ThreadId,
		})
	}
	return summaries, nil
}

// GetMessage は指定IDのメッセージ全文を取得し、抽出に必要な部分へ変換する。
func (c *GoogleGmailClient) GetMessage(ctx context.Context, accessToken, id string) (*model.Message, error) {
	svc, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return toModelMessage(msg), nil
}

// toModelMessage はGmail APIのメッセージをドメインモデルに変換する。
func toModelMessage(msg *gmail.Message) *model.Message {
	m := &model.Message{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}

	if msg.Payload == nil {
		return m
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			m.Subject = h.Value
		case "Date":
			if t, err := mail.ParseDate(h.Value); err == nil {
				m.ReceivedAt = t
			}
		}
	}

	// ヘッダのDateが欠落・不正な場合はAPIの内部受信日時を使う
	if m.ReceivedAt.IsZero() && msg.InternalDate > 0 {
		m.ReceivedAt = time.UnixMilli(msg.InternalDate)
	}

	m.Body = decodeBody(msg.Payload)
	return m
}

// decodeBody は本文のtext/plainパートを探してデコードする。
func decodeBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" {
		if s := decodeBase64URL(payload.Body.Data); s != "" {
			return s
		}
	}
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			if s := decodeBase64URL(part.Body.Data); s != "" {
				return s
			}
		}
	}
	return ""
}

// decodeBase64URL はGmail APIのbase64url本文をデコードする。
// パディングの有無は送信元によって揺れるため両方を試す。
func decodeBase64URL(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

// compile-time interface check
var _ GmailClient = (*GoogleGmailClient)(nil)
