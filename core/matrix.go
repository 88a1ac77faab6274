package core

import "fmt"

// Matrix 是流水线的最终输出：固定宽度的数值特征矩阵，供下游分类器使用。
type Matrix struct {
	Columns []string    // 输出特征名，顺序固定
	Rows    [][]float64 // 行优先
}

// NewMatrix 创建 rows × len(columns) 的零矩阵
func NewMatrix(rows int, columns []string) *Matrix {
	m := &Matrix{
		Columns: columns,
		Rows:    make([][]float64, rows),
	}
	for i := range m.Rows {
		m.Rows[i] = make([]float64, len(columns))
	}
	return m
}

// Len 返回行数
func (m *Matrix) Len() int { return len(m.Rows) }

// Width 返回列数
func (m *Matrix) Width() int { return len(m.Columns) }

// Select 按列下标取子矩阵（深拷贝）。
func (m *Matrix) Select(indices []int) (*Matrix, error) {
	cols := make([]string, len(indices))
	for k, j := range indices {
		if j < 0 || j >= len(m.Columns) {
			return nil, fmt.Errorf("column index %d out of range [0,%d)", j, len(m.Columns))
		}
		cols[k] = m.Columns[j]
	}
	out := NewMatrix(len(m.Rows), cols)
	for i, row := range m.Rows {
		for k, j := range indices {
			out.Rows[i][k] = row[j]
		}
	}
	return out, nil
}

// HStack 按列拼接多个行数相同的矩阵。
func HStack(blocks ...*Matrix) (*Matrix, error) {
	if len(blocks) == 0 {
		return &Matrix{}, nil
	}
	rows := blocks[0].Len()
	var cols []string
	for _, b := range blocks {
		if b.Len() != rows {
			return nil, fmt.Errorf("hstack: block has %d rows, want %d", b.Len(), rows)
		}
		cols = append(cols, b.Columns...)
	}
	out := &Matrix{Columns: cols, Rows: make([][]float64, rows)}
	for i := 0; i < rows; i++ {
		row := make([]float64, 0, len(cols))
		for _, b := range blocks {
			row = append(row, b.Rows[i]...)
		}
		out.Rows[i] = row
	}
	return out, nil
}
