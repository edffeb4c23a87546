package models

import (
	"strings"
	"time"
)

// PointStatus 充电桩状态
type PointStatus string

const (
	StatusAvailable   PointStatus = "available"
	StatusCharging    PointStatus = "charging"
	StatusReserved    PointStatus = "reserved"
	StatusMalfunction PointStatus = "malfunction"
	StatusOffline     PointStatus = "offline"
)

// AllStatuses 全部合法状态（顺序即对外展示顺序）
var AllStatuses = []PointStatus{
	StatusAvailable,
	StatusCharging,
	StatusReserved,
	StatusMalfunction,
	StatusOffline,
}

// ParsePointStatus 从字符串构造状态，非法值返回 false
func ParsePointStatus(s string) (PointStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// NormalizePointStatus 导入数据用：大小写不敏感，未知或空值视为 available
func NormalizePointStatus(s string) PointStatus {
	if st, ok := ParsePointStatus(strings.ToLower(strings.TrimSpace(s))); ok {
		return st
	}
	return StatusAvailable
}

// Valid 是否为合法状态
func (s PointStatus) Valid() bool {
	_, ok := ParsePointStatus(string(s))
	return ok
}

func (s PointStatus) String() string {
	return string(s)
}

// AllowedStatusList 用于错误提示
func AllowedStatusList() string {
	names := make([]string, len(AllStatuses))
	for i, st := range AllStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

// StatusChange 状态变更记录 (status_history)
type StatusChange struct {
	ID       int64       `json:"id" db:"id"`
	PointID  int64       `json:"pointid" db:"pointid"`
	OldState PointStatus `json:"old_state" db:"old_state"`
	NewState PointStatus `json:"new_state" db:"new_state"`
	TimeRef  time.Time   `json:"timeref" db:"timeref"`
}
