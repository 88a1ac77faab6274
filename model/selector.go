package model

import (
	"context"
	"math"

	"github.com/rushteam/attrition/core"
)

// DefaultThresholdFactor 特征保留阈值 = 0.85 × mean(|coef|)
const DefaultThresholdFactor = 0.85

// SelectFromModel 用一个逻辑回归的系数绝对值作为特征重要性，
// 保留重要性 >= factor × 平均重要性 的特征。
type SelectFromModel struct {
	ThresholdFactor float64  `json:"threshold_factor"`
	Threshold       float64  `json:"threshold"`
	Support         []int    `json:"support"`
	Features        []string `json:"features"`

	estimator *LogisticRegression
}

// NewSelectFromModel 创建特征选择器，estimator 只提供超参数
func NewSelectFromModel(estimator *LogisticRegression, factor float64) *SelectFromModel {
	if estimator == nil {
		estimator = NewLogisticRegression()
	}
	if factor <= 0 {
		factor = DefaultThresholdFactor
	}
	return &SelectFromModel{ThresholdFactor: factor, estimator: estimator}
}

func (s *SelectFromModel) Name() string { return "select_from_model" }

// Fitted 是否已拟合
func (s *SelectFromModel) Fitted() bool { return s.Support != nil }

// Fit 训练一个估计器并计算保留的列
func (s *SelectFromModel) Fit(ctx context.Context, X *core.Matrix, y []int) error {
	est := s.estimator.clone()
	if err := est.Fit(ctx, X, y); err != nil {
		return err
	}

	importance := make([]float64, len(est.Coef))
	sum := 0.0
	for j, c := range est.Coef {
		importance[j] = math.Abs(c)
		sum += importance[j]
	}
	threshold := s.ThresholdFactor * sum / float64(len(importance))

	support := make([]int, 0, len(importance))
	features := make([]string, 0, len(importance))
	for j, v := range importance {
		if v >= threshold {
			support = append(support, j)
			features = append(features, X.Columns[j])
		}
	}
	s.Threshold, s.Support, s.Features = threshold, support, features
	return nil
}

// Transform 只保留选中的列
func (s *SelectFromModel) Transform(X *core.Matrix) (*core.Matrix, error) {
	if !s.Fitted() {
		return nil, core.NotFittedError(s.Name())
	}
	return X.Select(s.Support)
}
