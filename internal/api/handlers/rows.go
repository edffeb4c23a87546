package handlers

import (
	"time"

	"github.com/langchou/evpoints/internal/models"
)

// pointRow GET /points 的一行
type pointRow struct {
	ProviderName string  `json:"providerName"`
	PointID      int64   `json:"pointid"`
	Lon          float64 `json:"lon"`
	Lat          float64 `json:"lat"`
	Status       string  `json:"status"`
	Cap          float64 `json:"cap"`
}

func (r pointRow) Fields() []string {
	return []string{"providerName", "pointid", "lon", "lat", "status", "cap"}
}

func (r pointRow) Values() []any {
	return []any{r.ProviderName, r.PointID, r.Lon, r.Lat, r.Status, r.Cap}
}

func newPointRows(points []*models.ChargePoint) []pointRow {
	rows := make([]pointRow, len(points))
	for i, p := range points {
		rows[i] = pointRow{
			ProviderName: p.ProviderName,
			PointID:      p.PointID,
			Lon:          p.Longitude,
			Lat:          p.Latitude,
			Status:       string(p.Status),
			Cap:          p.CapacityKW,
		}
	}
	return rows
}

// pointDetail GET /point/:id
type pointDetail struct {
	PointID            int64    `json:"pointid"`
	Lon                float64  `json:"lon"`
	Lat                float64  `json:"lat"`
	Status             string   `json:"status"`
	Cap                float64  `json:"cap"`
	ReservationEndTime string   `json:"reservationendtime"`
	KwhPrice           *float64 `json:"kwhprice"`
}

func newPointDetail(p *models.ChargePoint, loc *time.Location) pointDetail {
	end := models.SentinelExpiry
	if p.ReservationEndTime != nil {
		end = models.FormatWire(*p.ReservationEndTime, loc)
	}
	return pointDetail{
		PointID:            p.PointID,
		Lon:                p.Longitude,
		Lat:                p.Latitude,
		Status:             string(p.Status),
		Cap:                p.CapacityKW,
		ReservationEndTime: end,
		KwhPrice:           p.KwhPrice,
	}
}

// reserveResponse POST /reserve
type reserveResponse struct {
	PointID            int64  `json:"pointid"`
	Status             string `json:"status"`
	ReservationEndTime string `json:"reservationendtime"`
}

// updatePointResponse POST /updpoint
type updatePointResponse struct {
	PointID  int64    `json:"pointid"`
	Status   string   `json:"status"`
	KwhPrice *float64 `json:"kwhprice"`
}

// sessionRow GET /sessions 的一行
type sessionRow struct {
	StartTime string  `json:"starttime"`
	EndTime   string  `json:"endtime"`
	StartSoc  float64 `json:"startsoc"`
	EndSoc    float64 `json:"endsoc"`
	TotalKwh  float64 `json:"totalkwh"`
	KwhPrice  float64 `json:"kwhprice"`
	Amount    float64 `json:"amount"`
}

func (r sessionRow) Fields() []string {
	return []string{"starttime", "endtime", "startsoc", "endsoc", "totalkwh", "kwhprice", "amount"}
}

func (r sessionRow) Values() []any {
	return []any{r.StartTime, r.EndTime, r.StartSoc, r.EndSoc, r.TotalKwh, r.KwhPrice, r.Amount}
}

func newSessionRows(sessions []*models.ChargingSession, loc *time.Location) []sessionRow {
	rows := make([]sessionRow, len(sessions))
	for i, s := range sessions {
		rows[i] = sessionRow{
			StartTime: models.FormatWire(s.StartTime, loc),
			EndTime:   models.FormatWire(s.EndTime, loc),
			StartSoc:  s.StartSoc,
			EndSoc:    s.EndSoc,
			TotalKwh:  s.TotalKwh,
			KwhPrice:  s.KwhPrice,
			Amount:    s.Amount,
		}
	}
	return rows
}

// statusRow GET /pointstatus 的一行
type statusRow struct {
	TimeRef  string `json:"timeref"`
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

func (r statusRow) Fields() []string {
	return []string{"timeref", "old_state", "new_state"}
}

func (r statusRow) Values() []any {
	return []any{r.TimeRef, r.OldState, r.NewState}
}

func newStatusRows(changes []*models.StatusChange, loc *time.Location) []statusRow {
	rows := make([]statusRow, len(changes))
	for i, ch := range changes {
		rows[i] = statusRow{
			TimeRef:  models.FormatWire(ch.TimeRef, loc),
			OldState: string(ch.OldState),
			NewState: string(ch.NewState),
		}
	}
	return rows
}

// healthResponse GET /admin/healthcheck
type healthResponse struct {
	Status               string `json:"status"`
	DBConnection         string `json:"dbconnection"`
	NChargePoints        int64  `json:"n_charge_points"`
	NChargePointsOnline  int64  `json:"n_charge_points_online"`
	NChargePointsOffline int64  `json:"n_charge_points_offline"`
}
