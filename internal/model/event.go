package model

import "time"

// Event はプロバイダーが管理するカレンダーイベントを表す。
// 本システムはプロキシ経由で読み書きするのみで、権威あるコピーは保持しない。
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"` // RFC3339
	End         string `json:"end"`   // RFC3339
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	HTMLLink    string `json:"htmlLink,omitempty"`
}

// EventDraft はプロバイダー未登録のイベントペイロードを表す。
type EventDraft struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
}

// ExtractedEvent は抽出APIのレスポンス形式。
// 生成AI抽出・ヒューリスティック抽出の双方で同じ形を返す。
type ExtractedEvent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"` // ISO 8601
	EndTime     string `json:"endTime"`   // ISO 8601
	Location    string `json:"location"`
	Priority    string `json:"priority"` // low / medium / high
	Type        string `json:"type"`     // meeting / task / reminder / other
	TimeZone    string `json:"timeZone"`
}
