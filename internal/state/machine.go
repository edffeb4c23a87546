package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/langchou/evpoints/internal/models"
)

// 事件名：set_<目标状态>
const eventPrefix = "set_"

// ErrInvalidStatus 目标状态不在枚举内
var ErrInvalidStatus = errors.New("invalid point status")

// EventFor 返回切换到目标状态的事件名
func EventFor(to models.PointStatus) string {
	return eventPrefix + string(to)
}

// events 每个状态都可以从任意状态进入
func events() fsm.Events {
	src := make([]string, len(models.AllStatuses))
	for i, st := range models.AllStatuses {
		src[i] = string(st)
	}

	evs := make(fsm.Events, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		evs = append(evs, fsm.EventDesc{Name: EventFor(st), Src: src, Dst: string(st)})
	}
	return evs
}

// Machine 单个充电桩的状态机（每个请求临时创建，不在进程内共享）
type Machine struct {
	pointID  int64
	fsm      *fsm.FSM
	onChange func(pointID int64, from, to models.PointStatus)
}

// NewMachine 以当前数据库中的状态创建状态机
func NewMachine(pointID int64, current models.PointStatus, onChange func(pointID int64, from, to models.PointStatus)) *Machine {
	m := &Machine{
		pointID:  pointID,
		onChange: onChange,
	}

	m.fsm = fsm.NewFSM(
		string(current),
		events(),
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onChange != nil && e.Src != e.Dst {
					m.onChange(m.pointID, models.PointStatus(e.Src), models.PointStatus(e.Dst))
				}
			},
		},
	)

	return m
}

// Current 当前状态
func (m *Machine) Current() models.PointStatus {
	return models.PointStatus(m.fsm.Current())
}

// Transition 切换到目标状态。相同状态返回 changed=false，不视为错误
func (m *Machine) Transition(ctx context.Context, to models.PointStatus) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !m.Current().Valid() {
		return false, fmt.Errorf("%w: stored status %q", ErrInvalidStatus, m.Current())
	}

	if err := m.fsm.Event(ctx, EventFor(to)); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return false, nil
		}
		return false, fmt.Errorf("trigger event %s: %w", EventFor(to), err)
	}
	return true, nil
}

// Can 检查是否可以切换到目标状态
func (m *Machine) Can(to models.PointStatus) bool {
	return to.Valid() && m.fsm.Can(EventFor(to))
}
