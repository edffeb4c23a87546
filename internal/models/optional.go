package models

import (
	"bytes"
	"encoding/json"
)

// Optional 可选的 JSON 字段：区分缺失、null、类型错误与有效值
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
	Err   error
}

// Some 构造一个已赋值的字段
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON 从不返回错误，类型不匹配记录在 Err 中交给业务校验
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		o.Err = err
	}
	return nil
}

// MarshalJSON 未赋值或 null 时输出 null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ok 字段存在且值有效
func (o Optional[T]) Ok() bool {
	return o.Set && !o.Null && o.Err == nil
}
