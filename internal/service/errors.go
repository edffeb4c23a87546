package service

import (
	"fmt"

	"github.com/langchou/evpoints/internal/models"
)

// Kind 错误分类，决定 HTTP 返回码
type Kind int

const (
	KindValidation  Kind = iota + 1 // 400
	KindNotFound                    // 404
	KindConflict                    // 409
	KindInternal                    // 500
	KindUnavailable                 // 存储不可用，healthcheck 约定返回 400
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	cause   error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

// Is 按 Code 比较，WithDetail/Wrap 得到的副本与原哨兵错误相等
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail 返回替换了 Detail 的副本
func (e *Error) WithDetail(format string, args ...any) *Error {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

// Wrap 返回以 err 为原因的副本
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.cause = err
	if err != nil {
		c.Detail = err.Error()
	}
	return &c
}

var (
	ErrInvalidPointID = &Error{Kind: KindValidation, Code: "InvalidPointID", Message: "Invalid point id", Detail: "Point id must be numeric"}
	ErrInvalidMinutes = &Error{Kind: KindValidation, Code: "InvalidArgument", Message: "Invalid minutes parameter", Detail: "Minutes must be a positive number"}

	ErrPointNotFound       = &Error{Kind: KindNotFound, Code: "PointNotFound", Message: "Point not found"}
	ErrChargePointNotFound = &Error{Kind: KindNotFound, Code: "PointNotFound", Message: "Charge point not found"}

	ErrInvalidStatus       = &Error{Kind: KindValidation, Code: "InvalidStatus", Message: "Invalid status value", Detail: "Allowed values: " + models.AllowedStatusList()}
	ErrInvalidStatusFilter = &Error{Kind: KindValidation, Code: "InvalidStatus", Message: "Invalid status parameter", Detail: "Allowed values: " + models.AllowedStatusList()}
	ErrEmptyUpdate         = &Error{Kind: KindValidation, Code: "EmptyUpdate", Message: "Invalid request body", Detail: "At least one field (status or kwhprice) must be provided"}
	ErrInvalidKwhPrice     = &Error{Kind: KindValidation, Code: "InvalidKwhPrice", Message: "Invalid kwhprice value", Detail: "kwhprice must be a positive number"}

	ErrMissingField          = &Error{Kind: KindValidation, Code: "MissingField", Message: "Missing required fields", Detail: "All fields are mandatory"}
	ErrInvalidType           = &Error{Kind: KindValidation, Code: "InvalidType", Message: "Invalid data types", Detail: "Numeric fields must be numbers"}
	ErrInvalidDateTime       = &Error{Kind: KindValidation, Code: "InvalidDateTime", Message: "Invalid date/time", Detail: "starttime and endtime must be valid date-time strings (YYYY-MM-DD HH:MM)"}
	ErrInvalidTimeRange      = &Error{Kind: KindValidation, Code: "InvalidTimeRange", Message: "Invalid time range", Detail: "endtime must be after starttime"}
	ErrOverlappingSession    = &Error{Kind: KindConflict, Code: "OverlappingSession", Message: "Active session exists", Detail: "There is already an active session for this point in the given time range"}
	ErrInvalidSOC            = &Error{Kind: KindValidation, Code: "InvalidSOC", Message: "Invalid SOC values", Detail: "SOC must be between 0 and 100"}
	ErrInvalidSOCRange       = &Error{Kind: KindValidation, Code: "InvalidSOC", Message: "Invalid SOC range", Detail: "endsoc must be greater than or equal to startsoc"}
	ErrInvalidChargingValues = &Error{Kind: KindValidation, Code: "InvalidChargingValues", Message: "Invalid charging values", Detail: "Energy and price must be positive"}

	ErrInvalidDate      = &Error{Kind: KindValidation, Code: "InvalidDate", Message: "Invalid date value", Detail: "Dates must be valid calendar dates in YYYYMMDD format"}
	ErrInvalidDateRange = &Error{Kind: KindValidation, Code: "InvalidDateRange", Message: "Invalid date range", Detail: "from must be less than to"}

	ErrNoFile           = &Error{Kind: KindValidation, Code: "NoFile", Message: "No file uploaded", Detail: "CSV file is required"}
	ErrInvalidCSV       = &Error{Kind: KindValidation, Code: "InvalidCSV", Message: "Invalid CSV file"}
	ErrResetFailed      = &Error{Kind: KindInternal, Code: "ResetFailed", Message: "Reset points failed"}
	ErrAddPointsFailed  = &Error{Kind: KindInternal, Code: "AddPointsFailed", Message: "Add points failed"}
	ErrStoreUnavailable = &Error{Kind: KindUnavailable, Code: "StoreUnavailable", Message: "Database connection failed"}
)

// ErrorCode 用作指标标签
func (e *Error) ErrorCode() string {
	return e.Code
}
