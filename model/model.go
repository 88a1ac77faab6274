package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/pipeline"
)

// Classifier 是分类阶段的最小抽象：输入特征矩阵，输出正类概率。
type Classifier interface {
	Name() string
	PredictProba(X *core.Matrix) ([]float64, error)
}

var _ Classifier = (*LogisticRegression)(nil)

var (
	trainRuns = promauto.With(pipeline.Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "attrition",
		Subsystem: "model",
		Name:      "train_runs_total",
		Help:      "Training runs by outcome.",
	}, []string{"status"})

	trainDuration = promauto.With(pipeline.Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "attrition",
		Subsystem: "model",
		Name:      "train_duration_seconds",
		Help:      "Wall time of a full training run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	predictions = promauto.With(pipeline.Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "attrition",
		Subsystem: "model",
		Name:      "predictions_total",
		Help:      "Scored records by predicted class.",
	}, []string{"class"})
)

// TrainParams 训练超参数
type TrainParams struct {
	Pipeline        *pipeline.Config
	C               float64
	ClassWeight     string
	MaxIter         int
	Tol             float64
	ThresholdFactor float64
}

// DefaultTrainParams 返回默认训练参数：默认流水线 + C=0.1、balanced、1000 次迭代、0.85×mean 阈值
func DefaultTrainParams() TrainParams {
	lr := NewLogisticRegression()
	return TrainParams{
		Pipeline:        pipeline.DefaultConfig(),
		C:               lr.C,
		ClassWeight:     lr.ClassWeight,
		MaxIter:         lr.MaxIter,
		Tol:             lr.Tol,
		ThresholdFactor: DefaultThresholdFactor,
	}
}

func (p TrainParams) estimator() *LogisticRegression {
	return &LogisticRegression{C: p.C, ClassWeight: p.ClassWeight, MaxIter: p.MaxIter, Tol: p.Tol}
}

// AttritionModel 是完整的离职预测模型：预处理 → 特征选择 → 逻辑回归。
// 训练完成后只读，可并发预测。
type AttritionModel struct {
	ID        string
	CreatedAt time.Time

	Preprocessor *pipeline.Preprocessor
	Selector     *SelectFromModel
	Classifier   *LogisticRegression

	logger *slog.Logger
}

// Option 模型配置选项
type Option func(*AttritionModel)

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(m *AttritionModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Train 在原始记录批次与 0/1 标签上训练完整模型。
func Train(ctx context.Context, batch *core.Frame, labels []int, params TrainParams, opts ...Option) (m *AttritionModel, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		trainRuns.WithLabelValues(status).Inc()
		trainDuration.Observe(time.Since(start).Seconds())
	}()

	m = &AttritionModel{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.Preprocessor, err = pipeline.NewPreprocessor(params.Pipeline, pipeline.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	X, err := m.Preprocessor.FitTransform(ctx, batch, labels)
	if err != nil {
		return nil, err
	}

	m.Selector = NewSelectFromModel(params.estimator(), params.ThresholdFactor)
	if err := m.Selector.Fit(ctx, X, labels); err != nil {
		return nil, err
	}
	selected, err := m.Selector.Transform(X)
	if err != nil {
		return nil, err
	}

	m.Classifier = params.estimator()
	if err := m.Classifier.Fit(ctx, selected, labels); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "model trained",
		"id", m.ID,
		"rows", batch.Len(),
		"features", X.Width(),
		"selected", selected.Width(),
		"iterations", m.Classifier.Iterations,
		"duration", time.Since(start))
	return m, nil
}

// PredictProba 返回每条记录的离职概率
func (m *AttritionModel) PredictProba(ctx context.Context, batch *core.Frame) ([]float64, error) {
	X, err := m.Preprocessor.Transform(ctx, batch)
	if err != nil {
		return nil, err
	}
	selected, err := m.Selector.Transform(X)
	if err != nil {
		return nil, err
	}
	proba, err := m.Classifier.PredictProba(selected)
	if err != nil {
		return nil, err
	}
	for _, p := range proba {
		if p >= 0.5 {
			predictions.WithLabelValues(DefaultClassNames[1]).Inc()
		} else {
			predictions.WithLabelValues(DefaultClassNames[0]).Inc()
		}
	}
	return proba, nil
}

// Predict 以 0.5 为阈值返回 0/1 类别
func (m *AttritionModel) Predict(ctx context.Context, batch *core.Frame) ([]int, error) {
	proba, err := m.PredictProba(ctx, batch)
	if err != nil {
		return nil, err
	}
	return BinaryPredFromProba(proba, 0.5), nil
}

// Evaluate 在带标签的批次上生成分类报告
func (m *AttritionModel) Evaluate(ctx context.Context, batch *core.Frame, labels []int) (*ClassificationReport, error) {
	pred, err := m.Predict(ctx, batch)
	if err != nil {
		return nil, err
	}
	return NewClassificationReport(labels, pred, DefaultClassNames)
}

// SelectedFeatures 返回分类器实际使用的特征名
func (m *AttritionModel) SelectedFeatures() []string {
	if m.Selector == nil {
		return nil
	}
	return m.Selector.Features
}
