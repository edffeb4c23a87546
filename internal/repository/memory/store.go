// Package memory 进程内存储，用于本地开发 (STORE_DRIVER=memory) 与测试
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/service"
)

type data struct {
	providers map[int64]models.Provider
	points    map[int64]models.ChargePoint
	history   []models.StatusChange
	sessions  []models.ChargingSession

	nextHistoryID int64
	nextSessionID int64
}

func newData() *data {
	return &data{
		providers: make(map[int64]models.Provider),
		points:    make(map[int64]models.ChargePoint),
	}
}

func (d *data) clone() *data {
	c := &data{
		providers:     make(map[int64]models.Provider, len(d.providers)),
		points:        make(map[int64]models.ChargePoint, len(d.points)),
		history:       append([]models.StatusChange(nil), d.history...),
		sessions:      append([]models.ChargingSession(nil), d.sessions...),
		nextHistoryID: d.nextHistoryID,
		nextSessionID: d.nextSessionID,
	}
	for k, v := range d.providers {
		c.providers[k] = v
	}
	for k, v := range d.points {
		c.points[k] = v
	}
	return c
}

// Store 内存实现。事务串行执行，在副本上修改，成功后整体替换
type Store struct {
	mu      sync.RWMutex
	data    *data
	now     func() time.Time
	pingErr error
}

// Option 存储选项
type Option func(*Store)

// WithClock 替换写入 status_history 时使用的时钟
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore 创建空的内存存储
func NewStore(opts ...Option) *Store {
	s := &Store{data: newData(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPingError 模拟存储不可用，nil 恢复
func (s *Store) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// WithTx 独占执行 fn，返回错误时丢弃全部修改
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(&memTx{data: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// ListPoints 按 pointid 排序
func (s *Store) ListPoints(ctx context.Context, status *models.PointStatus) ([]*models.ChargePoint, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := make([]*models.ChargePoint, 0, len(s.data.points))
	for _, p := range s.data.points {
		if status != nil && p.Status != *status {
			continue
		}
		points = append(points, s.data.withProvider(p))
	}
	sort.Slice(points, func(i, j int) bool { return points[i].PointID < points[j].PointID })
	return points, nil
}

// GetPoint 不存在返回 nil
func (s *Store) GetPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data.points[pointID]
	if !ok {
		return nil, nil
	}
	return s.data.withProvider(p), nil
}

func (d *data) withProvider(p models.ChargePoint) *models.ChargePoint {
	if pr, ok := d.providers[p.ProviderID]; ok {
		p.ProviderName = pr.Name
	}
	return &p
}

// ListStatusChanges 闭区间，按时间倒序
func (s *Store) ListStatusChanges(ctx context.Context, pointID int64, from, to time.Time) ([]*models.StatusChange, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var changes []*models.StatusChange
	for _, c := range s.data.history {
		if c.PointID != pointID || c.TimeRef.Before(from) || c.TimeRef.After(to) {
			continue
		}
		c := c
		changes = append(changes, &c)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].TimeRef.Equal(changes[j].TimeRef) {
			return changes[i].ID > changes[j].ID
		}
		return changes[i].TimeRef.After(changes[j].TimeRef)
	})
	return changes, nil
}

// ListSessions starttime >= from 且 endtime <= to，按开始时间倒序
func (s *Store) ListSessions(ctx context.Context, pointID int64, from, to time.Time) ([]*models.ChargingSession, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*models.ChargingSession
	for _, cs := range s.data.sessions {
		if cs.PointID != pointID || cs.StartTime.Before(from) || cs.EndTime.After(to) {
			continue
		}
		cs := cs
		sessions = append(sessions, &cs)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

// Ping 返回 SetPingError 设置的错误
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pingErr
}

// CountPoints offline 之外都算在线
func (s *Store) CountPoints(ctx context.Context) (*models.PointCounts, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &models.PointCounts{}
	for _, p := range s.data.points {
		c.Total++
		if p.Status == models.StatusOffline {
			c.Offline++
		} else {
			c.Online++
		}
	}
	return c, nil
}

// Driver 存储名称
func (s *Store) Driver() string {
	return "memory"
}

// ReplaceAll 清空后写入
func (s *Store) ReplaceAll(ctx context.Context, providers []*models.Provider, points []*models.ChargePoint) error {
	_ = ctx
	d := newData()
	for _, p := range providers {
		d.providers[p.ID] = *p
	}
	for _, p := range points {
		cp := *p
		cp.ProviderName = ""
		d.points[p.PointID] = cp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
	return nil
}

// AddPoints 已存在的 pointid 跳过
func (s *Store) AddPoints(ctx context.Context, provider *models.Provider, points []*models.ChargePoint) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.providers[provider.ID]; !ok {
		s.data.providers[provider.ID] = *provider
	}

	var inserted int64
	for _, p := range points {
		if _, ok := s.data.points[p.PointID]; ok {
			continue
		}
		cp := *p
		cp.ProviderID = provider.ID
		cp.ProviderName = ""
		s.data.points[p.PointID] = cp
		inserted++
	}
	return inserted, nil
}

var _ service.Store = (*Store)(nil)
