package models

import "time"

// Provider 运营商
type Provider struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"providerName" db:"provider_name"`
}

// ChargePoint 充电桩
type ChargePoint struct {
	PointID            int64       `json:"pointid" db:"pointid"`
	Name               string      `json:"name" db:"name"`
	Address            *string     `json:"address,omitempty" db:"address"`
	Longitude          float64     `json:"lon" db:"lon"`
	Latitude           float64     `json:"lat" db:"lat"`
	Status             PointStatus `json:"status" db:"status"`
	CapacityKW         float64     `json:"cap" db:"cap"` // kW
	KwhPrice           *float64    `json:"kwhprice" db:"kwhprice"`
	ReservationEndTime *time.Time  `json:"reservationendtime,omitempty" db:"reservationendtime"`
	ProviderID         int64       `json:"provider_id" db:"provider_id"`
	ProviderName       string      `json:"providerName,omitempty" db:"provider_name"`
}

// PointCounts 健康检查统计
type PointCounts struct {
	Total   int64
	Online  int64
	Offline int64
}
