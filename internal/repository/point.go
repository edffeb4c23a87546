package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/evpoints/internal/models"
)

const pointColumns = `
	p.pointid, p.name, p.address, p.lon, p.lat, p.status, p.cap, p.kwhprice,
	p.reservationendtime, p.provider_id, COALESCE(pr.provider_name, '')
`

func scanPoint(row pgx.Row) (*models.ChargePoint, error) {
	p := &models.ChargePoint{}
	err := row.Scan(
		&p.PointID,
		&p.Name,
		&p.Address,
		&p.Longitude,
		&p.Latitude,
		&p.Status,
		&p.CapacityKW,
		&p.KwhPrice,
		&p.ReservationEndTime,
		&p.ProviderID,
		&p.ProviderName,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPoints 充电桩列表，status 为空时不过滤
func (s *Store) ListPoints(ctx context.Context, status *models.PointStatus) ([]*models.ChargePoint, error) {
	query := `SELECT ` + pointColumns + `
		FROM point p LEFT JOIN provider pr ON pr.id = p.provider_id
		WHERE ($1::text IS NULL OR p.status = $1)
		ORDER BY p.pointid
	`
	var filter *string
	if status != nil {
		v := string(*status)
		filter = &v
	}

	rows, err := s.db.Pool.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var points []*models.ChargePoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetPoint 获取充电桩，不存在返回 nil
func (s *Store) GetPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error) {
	query := `SELECT ` + pointColumns + `
		FROM point p LEFT JOIN provider pr ON pr.id = p.provider_id
		WHERE p.pointid = $1
	`
	p, err := scanPoint(s.db.Pool.QueryRow(ctx, query, pointID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get point: %w", err)
	}
	return p, nil
}

// LockPoint SELECT ... FOR UPDATE 锁定充电桩行
func (t *pgTx) LockPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error) {
	query := `SELECT ` + pointColumns + `
		FROM point p LEFT JOIN provider pr ON pr.id = p.provider_id
		WHERE p.pointid = $1
		FOR UPDATE OF p
	`
	p, err := scanPoint(t.tx.QueryRow(ctx, query, pointID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock point: %w", err)
	}
	return p, nil
}

// UpdateStatus 只由状态引擎调用
func (t *pgTx) UpdateStatus(ctx context.Context, pointID int64, status models.PointStatus) error {
	if _, err := t.tx.Exec(ctx, `UPDATE point SET status = $1 WHERE pointid = $2`, string(status), pointID); err != nil {
		return fmt.Errorf("update point status: %w", err)
	}
	return nil
}

// SetReservationEnd 记录预约过期时间
func (t *pgTx) SetReservationEnd(ctx context.Context, pointID int64, end time.Time) error {
	if _, err := t.tx.Exec(ctx, `UPDATE point SET reservationendtime = $1 WHERE pointid = $2`, end, pointID); err != nil {
		return fmt.Errorf("set reservation end: %w", err)
	}
	return nil
}

// SetKwhPrice 更新电价
func (t *pgTx) SetKwhPrice(ctx context.Context, pointID int64, price float64) error {
	if _, err := t.tx.Exec(ctx, `UPDATE point SET kwhprice = $1 WHERE pointid = $2`, price, pointID); err != nil {
		return fmt.Errorf("set kwh price: %w", err)
	}
	return nil
}
