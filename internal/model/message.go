package model

import "time"

// MessageSummary はメール検索結果の要約を表す。
type MessageSummary struct {
	ID       string
	ThreadID string
}

// Message は取得したメールのうちイベント抽出に必要な部分を表す。
type Message struct {
	ID         string
	Subject    string
	Snippet    string
	Body       string
	ReceivedAt time.Time // メッセージヘッダの受信日時。不明な場合はゼロ値。
}
