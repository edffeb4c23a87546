package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/models"
)

// DefaultProvider 数据集未给出运营商时使用，也是 addpoints 导入的归属运营商
var DefaultProvider = models.Provider{ID: 1, Name: "Default Provider"}

// Health 健康检查结果
type Health struct {
	Driver string
	Counts models.PointCounts
}

// AdminService 管理接口：重置、批量导入、健康检查
type AdminService struct {
	store  Store
	logger *zap.Logger
	opts   Options
}

// NewAdminService 创建管理服务
func NewAdminService(store Store, logger *zap.Logger, opts Options) *AdminService {
	return &AdminService{store: store, logger: logger, opts: opts.withDefaults()}
}

// ResetPoints 清空全部数据并从固定数据集重新导入
func (s *AdminService) ResetPoints(ctx context.Context) error {
	data, err := os.ReadFile(s.opts.DatasetFile)
	if err != nil {
		return ErrResetFailed.Wrap(fmt.Errorf("read dataset: %w", err))
	}

	var locations []models.DatasetLocation
	if err := json.Unmarshal(data, &locations); err != nil {
		return ErrResetFailed.Wrap(fmt.Errorf("decode dataset: %w", err))
	}

	providers, points := s.flattenDataset(locations)
	if err := s.store.ReplaceAll(ctx, providers, points); err != nil {
		return ErrResetFailed.Wrap(err)
	}

	s.logger.Info("Points reset",
		zap.String("dataset", s.opts.DatasetFile),
		zap.Int("providers", len(providers)),
		zap.Int("points", len(points)),
	)
	return nil
}

// flattenDataset 展开 location -> stations -> outlets；重复的 outlet id 只保留第一个
func (s *AdminService) flattenDataset(locations []models.DatasetLocation) ([]*models.Provider, []*models.ChargePoint) {
	var providers []*models.Provider
	seenProviders := make(map[int64]bool)
	for _, loc := range locations {
		if loc.ProviderID == nil || seenProviders[*loc.ProviderID] {
			continue
		}
		name := loc.ProviderName
		if name == "" {
			name = loc.Name
		}
		if name == "" {
			name = DefaultProvider.Name
		}
		providers = append(providers, &models.Provider{ID: *loc.ProviderID, Name: name})
		seenProviders[*loc.ProviderID] = true
	}
	if len(providers) == 0 {
		p := DefaultProvider
		providers = append(providers, &p)
	}

	var points []*models.ChargePoint
	seenPoints := make(map[int64]bool)
	for _, loc := range locations {
		providerID := DefaultProvider.ID
		if loc.ProviderID != nil {
			providerID = *loc.ProviderID
		}
		for _, st := range loc.Stations {
			for _, out := range st.Outlets {
				if seenPoints[out.ID] {
					s.logger.Warn("Duplicate outlet in dataset", zap.Int64("pointid", out.ID))
					continue
				}
				seenPoints[out.ID] = true

				capacity := float64(models.DefaultCapacityKW)
				switch {
				case out.Power != nil && *out.Power > 0:
					capacity = *out.Power
				case out.Kilowatts != nil && *out.Kilowatts > 0:
					capacity = *out.Kilowatts
				}

				points = append(points, &models.ChargePoint{
					PointID:    out.ID,
					Name:       loc.Name,
					Address:    loc.Address,
					Longitude:  loc.Longitude,
					Latitude:   loc.Latitude,
					Status:     models.NormalizePointStatus(out.Status),
					CapacityKW: capacity,
					ProviderID: providerID,
				})
			}
		}
	}
	return providers, points
}

// CSV 列名别名，按顺序取第一个非空值
var (
	csvOutletID  = []string{"outlet_id", "outletId", "id", "outid"}
	csvName      = []string{"location_name", "locationName", "loc_name", "name"}
	csvAddress   = []string{"address"}
	csvLongitude = []string{"longitude", "lon"}
	csvLatitude  = []string{"latitude", "lat"}
	csvKilowatts = []string{"kilowatts", "power", "cap"}
	csvStatus    = []string{"status"}
)

// ImportCSV 增量导入 CSV，已存在的充电桩保持不变。返回插入条数
func (s *AdminService) ImportCSV(ctx context.Context, r io.Reader) (int64, error) {
	points, err := parsePointsCSV(r)
	if err != nil {
		return 0, ErrInvalidCSV.Wrap(err)
	}

	provider := DefaultProvider
	inserted, err := s.store.AddPoints(ctx, &provider, points)
	if err != nil {
		return 0, ErrAddPointsFailed.Wrap(err)
	}

	s.logger.Info("Points imported", zap.Int("rows", len(points)), zap.Int64("inserted", inserted))
	return inserted, nil
}

func parsePointsCSV(r io.Reader) ([]*models.ChargePoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	field := func(rec []string, aliases []string) string {
		for _, a := range aliases {
			if i, ok := columns[a]; ok && i < len(rec) {
				if v := strings.TrimSpace(rec[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	var points []*models.ChargePoint
	seen := make(map[int64]bool)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rawID := field(rec, csvOutletID)
		if rawID == "" {
			continue
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid outlet id %q", line, rawID)
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		lon, err := parseFloatField(field(rec, csvLongitude))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %w", line, err)
		}
		lat, err := parseFloatField(field(rec, csvLatitude))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %w", line, err)
		}

		capacity := float64(models.DefaultCapacityKW)
		if raw := field(rec, csvKilowatts); raw != "" {
			kw, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid kilowatts %q", line, raw)
			}
			if kw > 0 {
				capacity = kw
			}
		}

		var address *string
		if a := field(rec, csvAddress); a != "" {
			address = &a
		}

		points = append(points, &models.ChargePoint{
			PointID:    id,
			Name:       field(rec, csvName),
			Address:    address,
			Longitude:  lon,
			Latitude:   lat,
			Status:     models.NormalizePointStatus(field(rec, csvStatus)),
			CapacityKW: capacity,
			ProviderID: DefaultProvider.ID,
		})
	}
	return points, nil
}

func parseFloatField(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// Health 检查存储连通性并统计充电桩数量
func (s *AdminService) Health(ctx context.Context) (*Health, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	counts, err := s.store.CountPoints(ctx)
	if err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	return &Health{Driver: s.store.Driver(), Counts: *counts}, nil
}
