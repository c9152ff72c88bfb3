package model

import (
	"fmt"
	"strings"
	"time"
)

// LocalTime 以 "YYYY-MM-DD HH:MM:SS" 格式序列化时间，用于状态接口。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "" || s == "null" {
		*t = LocalTime(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(timeFormat, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", s, err)
	}
	*t = LocalTime(parsed)
	return nil
}

// String 返回格式化后的时间字符串。
func (t LocalTime) String() string {
	return time.Time(t).Format(timeFormat)
}
