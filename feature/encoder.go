package feature

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/attrition/core"
)

// UnseenPolicy 决定 Transform 时遇到训练期未见类别的处理方式
type UnseenPolicy string

const (
	// UnseenIgnore 忽略：One-Hot 输出全 0，Label 输出 -1
	UnseenIgnore UnseenPolicy = "ignore"
	// UnseenError 报错：返回 UnseenCategoryError
	UnseenError UnseenPolicy = "error"
)

// UnseenLabel 是 Label 编码在 UnseenIgnore 策略下给未见类别的编码
const UnseenLabel = -1

// OneHotEncoder One-Hot 编码（独热编码）
// 将类别特征转换为二进制向量。类别表在 Fit 时从训练批次学习并排序，
// 丢弃每列的第一个类别以避免线性相关（drop first）。
type OneHotEncoder struct {
	Columns    []core.Column            `json:"columns"`
	Categories map[core.Column][]string `json:"categories"` // 每列的完整类别表（升序，含被丢弃的第一个）
	Unseen     UnseenPolicy             `json:"unseen"`
}

// NewOneHotEncoder 创建 One-Hot 编码器
func NewOneHotEncoder(columns []core.Column, unseen UnseenPolicy) *OneHotEncoder {
	if unseen == "" {
		unseen = UnseenIgnore
	}
	return &OneHotEncoder{
		Columns: columns,
		Unseen:  unseen,
	}
}

func (e *OneHotEncoder) Name() string { return "onehot" }

// Fitted 是否已拟合
func (e *OneHotEncoder) Fitted() bool { return e.Categories != nil }

// Fit 学习每列的类别表
func (e *OneHotEncoder) Fit(f *core.Frame) error {
	categories := make(map[core.Column][]string, len(e.Columns))
	for _, c := range e.Columns {
		values, err := f.RequireString(e.Name(), c)
		if err != nil {
			return err
		}
		categories[c] = distinctSorted(values)
	}
	e.Categories = categories
	return nil
}

// FeatureNames 返回输出列名：<列名>_<类别>，不含每列第一个类别。
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for _, c := range e.Columns {
		cats := e.Categories[c]
		for _, cat := range cats[min(1, len(cats)):] {
			names = append(names, fmt.Sprintf("%s_%s", c, cat))
		}
	}
	return names
}

// Transform 输出 One-Hot 块
func (e *OneHotEncoder) Transform(f *core.Frame) (*core.Matrix, error) {
	if !e.Fitted() {
		return nil, core.NotFittedError(e.Name())
	}
	out := core.NewMatrix(f.Len(), e.FeatureNames())
	offset := 0
	for _, c := range e.Columns {
		values, err := f.RequireString(e.Name(), c)
		if err != nil {
			return nil, err
		}
		cats := e.Categories[c]
		for i, v := range values {
			k := sort.SearchStrings(cats, v)
			if k >= len(cats) || cats[k] != v {
				if e.Unseen == UnseenError {
					return nil, core.UnseenCategoryError(e.Name(), c, v)
				}
				continue
			}
			if k == 0 {
				// 被丢弃的基准类别
				continue
			}
			out.Rows[i][offset+k-1] = 1
		}
		offset += max(len(cats)-1, 0)
	}
	return out, nil
}

// LabelEncoder Label 编码（标签编码）
// 将类别映射为整数（0, 1, 2, ...），编号为训练期类别表的升序下标。
// 编码表只在 Fit 时学习，Transform 不会按批次重新编号。
type LabelEncoder struct {
	Columns []core.Column            `json:"columns"`
	Classes map[core.Column][]string `json:"classes"` // 每列的类别表（升序）
	Unseen  UnseenPolicy             `json:"unseen"`
}

// NewLabelEncoder 创建 Label 编码器
func NewLabelEncoder(columns []core.Column, unseen UnseenPolicy) *LabelEncoder {
	if unseen == "" {
		unseen = UnseenError
	}
	return &LabelEncoder{
		Columns: columns,
		Unseen:  unseen,
	}
}

func (e *LabelEncoder) Name() string { return "label" }

// Fitted 是否已拟合
func (e *LabelEncoder) Fitted() bool { return e.Classes != nil }

// Fit 学习每列的类别表
func (e *LabelEncoder) Fit(f *core.Frame) error {
	classes := make(map[core.Column][]string, len(e.Columns))
	for _, c := range e.Columns {
		values, err := f.RequireString(e.Name(), c)
		if err != nil {
			return err
		}
		classes[c] = distinctSorted(values)
	}
	e.Classes = classes
	return nil
}

// EncodeValue 编码单个值
func (e *LabelEncoder) EncodeValue(c core.Column, value string) (int, error) {
	classes := e.Classes[c]
	k := sort.SearchStrings(classes, value)
	if k < len(classes) && classes[k] == value {
		return k, nil
	}
	if e.Unseen == UnseenIgnore {
		return UnseenLabel, nil
	}
	return 0, core.UnseenCategoryError(e.Name(), c, value)
}

// Transform 输出 Label 块（每列一个输出）
func (e *LabelEncoder) Transform(f *core.Frame) (*core.Matrix, error) {
	if !e.Fitted() {
		return nil, core.NotFittedError(e.Name())
	}
	names := make([]string, len(e.Columns))
	for j, c := range e.Columns {
		names[j] = string(c)
	}
	out := core.NewMatrix(f.Len(), names)
	for j, c := range e.Columns {
		values, err := f.RequireString(e.Name(), c)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			code, err := e.EncodeValue(c, v)
			if err != nil {
				return nil, err
			}
			out.Rows[i][j] = float64(code)
		}
	}
	return out, nil
}

// OrdinalEncoder 有序编码（Ordinal Encoding）
// 将有序类别映射为固定数值，保持顺序关系。映射是配置而非学习结果，
// 所以没有 Fit 状态。未映射的类别输出 NaN。
type OrdinalEncoder struct {
	Column  core.Column        `json:"column"`
	Mapping map[string]float64 `json:"mapping"`
}

// NewOrdinalEncoder 创建有序编码器
func NewOrdinalEncoder(column core.Column, mapping map[string]float64) *OrdinalEncoder {
	return &OrdinalEncoder{
		Column:  column,
		Mapping: mapping,
	}
}

// EncodeValue 编码单个值，未映射的类别返回 NaN
func (e *OrdinalEncoder) EncodeValue(value string) float64 {
	if v, ok := e.Mapping[value]; ok {
		return v
	}
	return math.NaN()
}

// EncodeColumn 编码整列
func (e *OrdinalEncoder) EncodeColumn(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = e.EncodeValue(v)
	}
	return out
}

// distinctSorted 返回去重后的升序类别表
func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
