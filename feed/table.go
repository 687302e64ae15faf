package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// table 一个GTFS文件的内容，列按表头名称访问
type table struct {
	name   string
	header []string
	rows   [][]string
}

// tableReader 读取指定名称的表，表不存在时返回nil, nil
type tableReader func(name string) (*table, error)

func readCSV(name string, r io.Reader) (*table, error) {
	csvr := csv.NewReader(r)
	// 部分数据源每行字段数不一致
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	rec, err := csvr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t := &table{name: name}
	if len(rec) == 0 {
		return t, nil
	}
	t.header = rec[0]
	if len(t.header) > 0 {
		t.header[0] = strings.TrimPrefix(t.header[0], "\ufeff")
	}
	t.rows = rec[1:]
	return t, nil
}

func (t *table) column(col string) int {
	for i, h := range t.header {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}

// require 返回各列下标，任一列缺失即报错
func (t *table) require(cols ...string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, col := range cols {
		idx[i] = t.column(col)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%s: %w: %s", t.name, ErrMissingColumn, col)
		}
	}
	return idx, nil
}

// value 取row中第col列，列不存在或越界时返回空串
func value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
