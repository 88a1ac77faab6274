package core

import (
	"fmt"
	"math"
)

// Frame 是一个批次（Batch）：N 条员工记录、按列存储。
//
// 数值列使用 []float64（NaN 表示缺失/未定义），类别列使用 []string。
// 列顺序按写入顺序记录。流水线的每一步都在副本上工作，不修改输入 Frame。
type Frame struct {
	n       int
	order   []Column
	numeric map[Column][]float64
	text    map[Column][]string
}

// NewFrame 创建一个 n 行的空批次
func NewFrame(n int) *Frame {
	return &Frame{
		n:       n,
		numeric: make(map[Column][]float64),
		text:    make(map[Column][]string),
	}
}

// Len 返回行数
func (f *Frame) Len() int { return f.n }

// Columns 返回列名（按写入顺序）
func (f *Frame) Columns() []Column {
	out := make([]Column, len(f.order))
	copy(out, f.order)
	return out
}

// Has 判断列是否存在
func (f *Frame) Has(c Column) bool {
	_, num := f.numeric[c]
	_, txt := f.text[c]
	return num || txt
}

// Kind 返回列类型
func (f *Frame) Kind(c Column) (ColumnKind, bool) {
	if _, ok := f.numeric[c]; ok {
		return KindNumeric, true
	}
	if _, ok := f.text[c]; ok {
		return KindCategorical, true
	}
	return "", false
}

// Float 返回数值列（只读视图，调用方不得修改）。
func (f *Frame) Float(c Column) ([]float64, bool) {
	v, ok := f.numeric[c]
	return v, ok
}

// String 返回类别列（只读视图，调用方不得修改）。
func (f *Frame) String(c Column) ([]string, bool) {
	v, ok := f.text[c]
	return v, ok
}

// SetFloat 写入数值列，同名列被替换。
func (f *Frame) SetFloat(c Column, values []float64) error {
	if len(values) != f.n {
		return fmt.Errorf("column %q: got %d values, frame has %d rows", c, len(values), f.n)
	}
	if !f.Has(c) {
		f.order = append(f.order, c)
	}
	delete(f.text, c)
	f.numeric[c] = values
	return nil
}

// SetString 写入类别列，同名列被替换。
func (f *Frame) SetString(c Column, values []string) error {
	if len(values) != f.n {
		return fmt.Errorf("column %q: got %d values, frame has %d rows", c, len(values), f.n)
	}
	if !f.Has(c) {
		f.order = append(f.order, c)
	}
	delete(f.numeric, c)
	f.text[c] = values
	return nil
}

// Drop 删除列，不存在的列被忽略。
func (f *Frame) Drop(cols ...Column) {
	for _, c := range cols {
		if !f.Has(c) {
			continue
		}
		delete(f.numeric, c)
		delete(f.text, c)
		for i, o := range f.order {
			if o == c {
				f.order = append(f.order[:i:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Clone 返回浅拷贝：列切片共享，列集合独立。
// 步骤只会整列替换（SetFloat/SetString），从不原地修改切片，所以共享是安全的。
func (f *Frame) Clone() *Frame {
	cp := &Frame{
		n:       f.n,
		order:   make([]Column, len(f.order)),
		numeric: make(map[Column][]float64, len(f.numeric)),
		text:    make(map[Column][]string, len(f.text)),
	}
	copy(cp.order, f.order)
	for k, v := range f.numeric {
		cp.numeric[k] = v
	}
	for k, v := range f.text {
		cp.text[k] = v
	}
	return cp
}

// Subset 按行下标取子批次（深拷贝）。
func (f *Frame) Subset(rows []int) *Frame {
	out := NewFrame(len(rows))
	for _, c := range f.order {
		if v, ok := f.numeric[c]; ok {
			vals := make([]float64, len(rows))
			for i, r := range rows {
				vals[i] = v[r]
			}
			_ = out.SetFloat(c, vals)
			continue
		}
		v := f.text[c]
		vals := make([]string, len(rows))
		for i, r := range rows {
			vals[i] = v[r]
		}
		_ = out.SetString(c, vals)
	}
	return out
}

// Record 返回第 i 行（数值为 float64，类别为 string），NaN 被转换为 nil。
func (f *Frame) Record(i int) map[string]any {
	rec := make(map[string]any, len(f.order))
	for _, c := range f.order {
		if v, ok := f.numeric[c]; ok {
			if math.IsNaN(v[i]) {
				rec[string(c)] = nil
			} else {
				rec[string(c)] = v[i]
			}
			continue
		}
		rec[string(c)] = f.text[c][i]
	}
	return rec
}

// RequireFloat 返回必需的数值列，缺失时返回 SchemaError。
func (f *Frame) RequireFloat(step string, c Column) ([]float64, error) {
	v, ok := f.numeric[c]
	if !ok {
		if _, isText := f.text[c]; isText {
			return nil, SchemaError(step, c, "expected a numeric column")
		}
		return nil, MissingColumnError(step, c)
	}
	return v, nil
}

// RequireString 返回必需的类别列，缺失时返回 SchemaError。
func (f *Frame) RequireString(step string, c Column) ([]string, error) {
	v, ok := f.text[c]
	if !ok {
		if _, isNum := f.numeric[c]; isNum {
			return nil, SchemaError(step, c, "expected a categorical column")
		}
		return nil, MissingColumnError(step, c)
	}
	return v, nil
}
