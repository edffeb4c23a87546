package models

// DatasetLocation resetpoints 数据集中的站点（location -> stations -> outlets）
type DatasetLocation struct {
	Name         string           `json:"name"`
	Address      *string          `json:"address"`
	Longitude    float64          `json:"longitude"`
	Latitude     float64          `json:"latitude"`
	ProviderID   *int64           `json:"provider_id"`
	ProviderName string           `json:"provider_name"`
	Stations     []DatasetStation `json:"stations"`
}

// DatasetStation 充电站
type DatasetStation struct {
	ID      int64           `json:"id"`
	Outlets []DatasetOutlet `json:"outlets"`
}

// DatasetOutlet 充电口，对应一个 ChargePoint
type DatasetOutlet struct {
	ID        int64    `json:"id"`
	Status    string   `json:"status"`
	Kilowatts *float64 `json:"kilowatts"`
	Power     *float64 `json:"power"`
}

// DefaultCapacityKW 数据集未给出功率时的默认值
const DefaultCapacityKW = 22
