package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout はAPIで日付をやり取りする際のフォーマット。
const DateLayout = "2006-01-02"

// Date は時刻を持たない日付を表す。UTCの0時として保持する。
type Date struct {
	time.Time
}

// NewDate は年月日からDateを生成する。
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf は任意の時刻をUTCの日付に切り詰めたDateを返す。
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate は "YYYY-MM-DD" またはRFC 3339形式の文字列をDateに変換する。
// RFC 3339形式の場合はUTCに変換してから日付部分のみを使う。
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// String は "YYYY-MM-DD" 形式の文字列を返す。
func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

// MarshalJSON は "YYYY-MM-DD" 形式でエンコードする。
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON は "YYYY-MM-DD" またはRFC 3339形式の文字列をデコードする。
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
