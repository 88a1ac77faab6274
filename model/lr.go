package model

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/attrition/core"
)

// ClassWeightBalanced 按类别频次反比加权：w_c = n / (2 * n_c)
const ClassWeightBalanced = "balanced"

// LogisticRegression 实现了带 L2 正则的二分类逻辑回归。
//
// 预测原理：
// 1. 线性加权求和: z = Intercept + sum(Coef_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 训练目标（截距不参与正则）：
//
//	min  1/2 * ||w||² + C * Σ s_i * logloss(y_i, P_i)
//
// s_i 为样本权重（class_weight=balanced 时按类别频次反比）。
// 求解使用全批量梯度下降，权重从 0 开始、步长由数据的 Lipschitz 上界决定，
// 因此同样的输入总是得到同样的系数。
type LogisticRegression struct {
	C           float64 `json:"c"`
	ClassWeight string  `json:"class_weight,omitempty"`
	MaxIter     int     `json:"max_iter"`
	Tol         float64 `json:"tol"`

	Coef       []float64 `json:"coef"`
	Intercept  float64   `json:"intercept"`
	Iterations int       `json:"iterations"`
}

// NewLogisticRegression 使用默认超参数（C=0.1, balanced, 1000 次迭代）创建模型
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:           0.1,
		ClassWeight: ClassWeightBalanced,
		MaxIter:     1000,
		Tol:         1e-6,
	}
}

func (m *LogisticRegression) Name() string { return "lr" }

// Fitted 是否已训练
func (m *LogisticRegression) Fitted() bool { return m.Coef != nil }

// Fit 在特征矩阵 X 与 0/1 标签 y 上训练。ctx 取消时提前返回。
func (m *LogisticRegression) Fit(ctx context.Context, X *core.Matrix, y []int) error {
	if err := validateTrainingSet(X, y); err != nil {
		return err
	}
	if m.C <= 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, fmt.Sprintf("C must be positive, got %v", m.C))
	}

	n, d := X.Len(), X.Width()
	weights, err := sampleWeights(y, m.ClassWeight)
	if err != nil {
		return err
	}

	// 目标函数整体除以 C*n，步长取 1/L
	lambda := 1 / (m.C * float64(n))
	maxWeight := 0.0
	normSum := 0.0
	for i, row := range X.Rows {
		maxWeight = math.Max(maxWeight, weights[i])
		sq := 1.0
		for _, v := range row {
			sq += v * v
		}
		normSum += sq
	}
	lipschitz := 0.25*maxWeight*normSum/float64(n) + lambda
	step := 1 / lipschitz

	coef := make([]float64, d)
	intercept := 0.0
	grad := make([]float64, d)
	iter := 0
	for iter < m.MaxIter {
		if err := ctx.Err(); err != nil {
			return err
		}
		iter++

		for j := range grad {
			grad[j] = lambda * coef[j]
		}
		gradB := 0.0
		for i, row := range X.Rows {
			r := weights[i] * (sigmoid(linear(coef, intercept, row)) - float64(y[i])) / float64(n)
			for j, v := range row {
				grad[j] += r * v
			}
			gradB += r
		}

		norm := gradB * gradB
		for j := range coef {
			coef[j] -= step * grad[j]
			norm += grad[j] * grad[j]
		}
		intercept -= step * gradB
		if math.Sqrt(norm) < m.Tol {
			break
		}
	}

	m.Coef, m.Intercept, m.Iterations = coef, intercept, iter
	return nil
}

// PredictProba 返回每行属于正类（离职）的概率
func (m *LogisticRegression) PredictProba(X *core.Matrix) ([]float64, error) {
	if !m.Fitted() {
		return nil, core.NotFittedError(m.Name())
	}
	if X.Width() != len(m.Coef) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("expected %d features, got %d", len(m.Coef), X.Width()))
	}
	// NaN/Inf 不进入 sigmoid
	if err := checkFinite(X); err != nil {
		return nil, err
	}
	out := make([]float64, X.Len())
	for i, row := range X.Rows {
		out[i] = sigmoid(linear(m.Coef, m.Intercept, row))
	}
	return out, nil
}

// Predict 以 0.5 为阈值输出 0/1 类别
func (m *LogisticRegression) Predict(X *core.Matrix) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return BinaryPredFromProba(proba, 0.5), nil
}

// clone 返回同超参数、未训练的模型
func (m *LogisticRegression) clone() *LogisticRegression {
	return &LogisticRegression{C: m.C, ClassWeight: m.ClassWeight, MaxIter: m.MaxIter, Tol: m.Tol}
}

func linear(coef []float64, intercept float64, row []float64) float64 {
	z := intercept
	for j, v := range row {
		z += coef[j] * v
	}
	return z
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func sampleWeights(y []int, classWeight string) ([]float64, error) {
	weights := make([]float64, len(y))
	switch classWeight {
	case "":
		for i := range weights {
			weights[i] = 1
		}
	case ClassWeightBalanced:
		var counts [2]int
		for _, label := range y {
			counts[label]++
		}
		for i, label := range y {
			weights[i] = float64(len(y)) / (2 * float64(counts[label]))
		}
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("unsupported class_weight %q", classWeight))
	}
	return weights, nil
}

// validateTrainingSet 要求两个类别都出现、标签为 0/1、矩阵不含 NaN/Inf
func validateTrainingSet(X *core.Matrix, y []int) error {
	if X == nil || X.Len() == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "empty training matrix")
	}
	if X.Len() != len(y) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("got %d labels for %d rows", len(y), X.Len()))
	}
	var seen [2]bool
	for i, label := range y {
		if label != 0 && label != 1 {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("row %d: label must be 0 or 1, got %d", i, label))
		}
		seen[label] = true
	}
	if !seen[0] || !seen[1] {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "training labels contain a single class")
	}
	return checkFinite(X)
}

// checkFinite 找到第一个 NaN/Inf 特征值，返回带行号与列名的 INVALID_INPUT
func checkFinite(X *core.Matrix) error {
	for i, row := range X.Rows {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				err := core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
					fmt.Sprintf("row %d: feature value %v is not finite", i, v))
				if j < len(X.Columns) {
					err.Column = X.Columns[j]
				}
				return err
			}
		}
	}
	return nil
}
