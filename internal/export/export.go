// Package export 查询结果的 CSV / XLSX 输出
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// 输出格式
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Content-Type
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Record 可导出的一行，Fields 与 Values 顺序一致
type Record interface {
	Fields() []string
	Values() []any
}

// ParseFormat 大小写不敏感，空值和未知格式都按 json 处理
func ParseFormat(s string) string {
	switch f := strings.ToLower(s); f {
	case FormatCSV, FormatXLSX:
		return f
	}
	return FormatJSON
}

// CSV 首行为字段名，值直接用逗号拼接，不做转义；行之间用 \n 分隔
func CSV[T Record](rows []T) []byte {
	if len(rows) == 0 {
		return nil
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(rows[0].Fields(), ","))
	for _, r := range rows {
		values := r.Values()
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

// XLSX 单个工作表，表头与 CSV 相同
func XLSX[T Record](sheet string, rows []T) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if len(rows) == 0 {
		return write(f)
	}

	header := make([]any, 0, len(rows[0].Fields()))
	for _, name := range rows[0].Fields() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := r.Values()
		for j, v := range values {
			values[j] = xlsxValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return write(f)
}

func write(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// xlsxValue 数值保持数值类型，其余转成字符串
func xlsxValue(v any) any {
	switch x := v.(type) {
	case float64, int64, int:
		return x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	}
	return formatValue(v)
}
