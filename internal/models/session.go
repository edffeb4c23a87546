package models

import "time"

// ChargingSession 已完成的充电记录
type ChargingSession struct {
	ID        int64     `json:"session_id" db:"session_id"`
	PointID   int64     `json:"pointid" db:"pointid"`
	StartTime time.Time `json:"starttime" db:"starttime"`
	EndTime   time.Time `json:"endtime" db:"endtime"`
	StartSoc  float64   `json:"startsoc" db:"startsoc"`
	EndSoc    float64   `json:"endsoc" db:"endsoc"`
	TotalKwh  float64   `json:"totalkwh" db:"totalkwh"`
	KwhPrice  float64   `json:"kwhprice" db:"kwhprice"`
	Amount    float64   `json:"amount" db:"amount"`
}

// Overlaps 半开区间 [start, end) 是否相交，首尾相接不算重叠
func (s *ChargingSession) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}
