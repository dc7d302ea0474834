// Package extract はテキスト・メールからのイベント抽出を提供する。
// 生成AIによる抽出と、外部呼び出しを行わない決定的なヒューリスティック抽出の
// 2系統を同じ契約の下に持つ。
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/mailcal/internal/model"
)

const (
	// defaultHour / defaultMinute は時刻トークンがない場合の既定開始時刻。
	defaultHour   = 9
	defaultMinute = 0

	// defaultDuration は終了時刻の既定（明示的な終了時刻は解析しない）。
	defaultDuration = 60 * time.Minute

	// maxDescriptionLen は説明文の最大長。
	maxDescriptionLen = 200

	// defaultTitle は件名がない場合のタイトル。
	defaultTitle = "Untitled"
)

// relevanceKeywords はイベント関連と判定するキーワードの固定集合。
// 1つも一致しない場合は抽出を行わない（適合率優先の方針）。
var relevanceKeywords = []string{
	"meeting", "schedule", "task", "reminder", "invite", "reservation", "flight",
}

var (
	// 日付トークン: M/D/YYYY または YYYY-MM-DD。
	// 直後に任意で時刻トークン H:MM（am/pm付き可）が続く。2桁年は受け付けない。
	dateTimeRe = regexp.MustCompile(
		`(?i)(?:(\d{1,2})/(\d{1,2})/(\d{4})|(\d{4})-(\d{2})-(\d{2}))(?:\s+(\d{1,2}):(\d{2})\s*(am|pm)?)?`)

	// 場所トークン: "at <place>"。コンマ・改行の手前までを場所とみなす。
	locationRe = regexp.MustCompile(`(?i)\bat\s+([A-Za-z][A-Za-z0-9 .'\-]*)`)
)

// snippetPolicy はメール由来のテキストからHTMLタグを除去するポリシー。
var snippetPolicy = bluemonday.StrictPolicy()

// Input はヒューリスティック抽出の入力。
// 自由テキストの場合はBodyのみを設定する。
type Input struct {
	Subject    string
	Body       string
	ReceivedAt time.Time // 日付トークンがない場合のフォールバック開始時刻
}

// ExtractDraft は入力テキストから構造化イベントの抽出を試みる。
// 決定的で外部呼び出しを行わない純粋関数。
// 関連キーワードに一致しない場合や解析に失敗した場合はnilを返す。
// 日付・時刻トークンはUTCとして解釈する。
func ExtractDraft(in Input) (draft *model.EventDraft) {
	// 解析中の想定外の失敗は呼び出し元に致命傷を与えず「一致なし」に落とす
	defer func() {
		if recover() != nil {
			draft = nil
		}
	}()

	text := in.Subject + "\n" + in.Body

	// 1. 関連性判定
	lower := strings.ToLower(text)
	relevant := false
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			relevant = true
			break
		}
	}
	if !relevant {
		return nil
	}

	// 2-3. 日付・時刻トークンの解析。なければヘッダ日時、最後はnow。
	start, ok := parseStart(text)
	if !ok {
		return nil
	}
	if start.IsZero() {
		start = in.ReceivedAt
		if start.IsZero() {
			start = time.Now().UTC()
		}
	}

	// 4. 終了時刻は固定の既定値
	end := start.Add(defaultDuration)

	// 5. タイトル・説明・場所
	title := strings.TrimSpace(in.Subject)
	if title == "" {
		title = defaultTitle
	}

	description := truncateDescription(strings.TrimSpace(snippetPolicy.Sanitize(in.Body)))

	location := ""
	if m := locationRe.FindStringSubmatch(text); m != nil {
		location = strings.TrimSpace(m[1])
	}

	return &model.EventDraft{
		Summary:     title,
		Description: description,
		Start:       start,
		End:         end,
		Location:    location,
	}
}

// parseStart はテキスト中の日付・時刻トークンから開始時刻を求める。
// 戻り値は (開始時刻, 継続可否)。トークンがない場合はゼロ値とtrueを返し、
// トークンはあるが不正な場合はfalseを返す（抽出全体を「一致なし」にする）。
func parseStart(text string) (time.Time, bool) {
	m := dateTimeRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, true
	}

	var year, month, day int
	if m[1] != "" {
		// M/D/YYYY
		month = atoi(m[1])
		day = atoi(m[2])
		year = atoi(m[3])
	} else {
		// YYYY-MM-DD
		year = atoi(m[4])
		month = atoi(m[5])
		day = atoi(m[6])
	}

	hour, minute := defaultHour, defaultMinute
	if m[7] != "" {
		hour = atoi(m[7])
		minute = atoi(m[8])
		switch strings.ToLower(m[9]) {
		case "am":
			if hour == 12 {
				hour = 0
			}
		case "pm":
			if hour < 12 {
				hour += 12
			}
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Dateは 2/30 のような不正な日付を繰り上げるため、往復で検証する
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}

	return t, true
}

// truncateDescription は説明文をmaxDescriptionLenに収める。
// マルチバイト文字を分断しないよう、ルーン境界で末尾から切り詰める。
func truncateDescription(s string) string {
	for len(s) > maxDescriptionLen {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
