package feature

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/rushteam/attrition/core"
)

// StandardScaler Z-score 标准化（Standardization）
// 公式: z = (x - μ) / σ
//
// μ 与 σ（总体标准差）在 Fit 时从训练批次学习，Transform 时原样使用。
// 计算时忽略 NaN；σ 为 0 的列按 1 处理（只做中心化）。NaN 输入原样输出。
type StandardScaler struct {
	Columns []core.Column `json:"columns"`
	Mean    []float64     `json:"mean"`
	Std     []float64     `json:"std"`
}

// NewStandardScaler 创建标准化器
func NewStandardScaler(columns []core.Column) *StandardScaler {
	return &StandardScaler{Columns: columns}
}

func (s *StandardScaler) Name() string { return "scaler" }

// Fitted 是否已拟合
func (s *StandardScaler) Fitted() bool {
	return s.Mean != nil && len(s.Mean) == len(s.Columns) && len(s.Std) == len(s.Columns)
}

// Fit 学习每列的均值与标准差
func (s *StandardScaler) Fit(f *core.Frame) error {
	mean := make([]float64, len(s.Columns))
	std := make([]float64, len(s.Columns))
	for j, c := range s.Columns {
		values, err := f.RequireFloat(s.Name(), c)
		if err != nil {
			return err
		}
		st := ComputeStatistics(values)
		mean[j] = st.Mean
		std[j] = st.Std
		if math.IsNaN(mean[j]) {
			mean[j] = 0
		}
		if std[j] == 0 || math.IsNaN(std[j]) {
			std[j] = 1
		}
	}
	s.Mean, s.Std = mean, std
	return nil
}

// Transform 输出标准化后的数值块
func (s *StandardScaler) Transform(f *core.Frame) (*core.Matrix, error) {
	if !s.Fitted() {
		return nil, core.NotFittedError(s.Name())
	}
	names := make([]string, len(s.Columns))
	for j, c := range s.Columns {
		names[j] = string(c)
	}
	out := core.NewMatrix(f.Len(), names)
	for j, c := range s.Columns {
		values, err := f.RequireFloat(s.Name(), c)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			out.Rows[i][j] = s.NormalizeValue(j, v)
		}
	}
	return out, nil
}

// NormalizeValue 标准化第 j 列的单个值
func (s *StandardScaler) NormalizeValue(j int, value float64) float64 {
	return (value - s.Mean[j]) / s.Std[j]
}

// FeatureStatistics 特征统计信息。Count 为非 NaN 样本数，Std 为总体标准差。
type FeatureStatistics struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
	P25     float64 `json:"p25"`
	P75     float64 `json:"p75"`
	P95     float64 `json:"p95"`
}

// ComputeStatistics 计算特征统计信息（忽略 NaN）。
// 全部缺失时各统计量为 NaN。
func ComputeStatistics(values []float64) *FeatureStatistics {
	data := dropNaN(values)
	st := &FeatureStatistics{
		Count:   len(data),
		Missing: len(values) - len(data),
	}
	if len(data) == 0 {
		nan := math.NaN()
		st.Mean, st.Std, st.Min, st.Max = nan, nan, nan, nan
		st.Median, st.P25, st.P75, st.P95 = nan, nan, nan, nan
		return st
	}

	st.Mean, _ = stats.Mean(data)
	st.Std, _ = stats.StandardDeviationPopulation(data)
	st.Min, _ = stats.Min(data)
	st.Max, _ = stats.Max(data)
	st.Median, _ = stats.Median(data)

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	st.P25 = computePercentile(sorted, 0.25)
	st.P75 = computePercentile(sorted, 0.75)
	st.P95 = computePercentile(sorted, 0.95)
	return st
}

// Median 返回忽略 NaN 的中位数，全部缺失时返回 NaN。
func Median(values []float64) float64 {
	data := dropNaN(values)
	if len(data) == 0 {
		return math.NaN()
	}
	m, err := stats.Median(data)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Quantile 返回忽略 NaN 的分位数，p ∈ [0,1]，相邻样本间线性插值。
func Quantile(values []float64, p float64) float64 {
	data := dropNaN(values)
	if len(data) == 0 {
		return math.NaN()
	}
	sort.Float64s(data)
	return computePercentile(data, p)
}

// computePercentile 计算分位数（sorted 必须升序）
func computePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// dropNaN 返回去掉 NaN 后的新切片
func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
