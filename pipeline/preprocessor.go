package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/feature"
)

// Preprocessor 是预处理流水线的编排器：把特征派生、薪资比值、删列、
// 频率映射与最终列变换串成一个 fit/transform 对象，训练集与推理数据走同一条路径。
//
// 生命周期：
//   - Fit 只能成功调用一次，每一步在上一步 Transform 的输出上拟合
//   - Transform 按相同顺序应用已学到的参数；Fit 之前调用返回 NotFittedError
//   - 拟合完成后对象只读，可被多个 goroutine 并发 Transform
type Preprocessor struct {
	config  *Config
	factory *StepFactory
	logger  *slog.Logger

	steps  []Step
	final  *feature.ColumnTransformer
	fitted bool
}

// Option 预处理器配置选项
type Option func(*Preprocessor)

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preprocessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFactory 设置步骤工厂（默认 DefaultFactory）
func WithFactory(factory *StepFactory) Option {
	return func(p *Preprocessor) {
		if factory != nil {
			p.factory = factory
		}
	}
}

// NewPreprocessor 根据配置创建未拟合的预处理器，cfg 为 nil 时使用 DefaultConfig。
func NewPreprocessor(cfg *Config, opts ...Option) (*Preprocessor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Preprocessor{
		config:  cfg,
		factory: DefaultFactory(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := cfg.Validate(p.factory); err != nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, err.Error())
	}
	return p, nil
}

// Config 返回流水线配置
func (p *Preprocessor) Config() *Config { return p.config }

// Fitted 是否已拟合
func (p *Preprocessor) Fitted() bool { return p.fitted }

// Fit 在训练批次上依次拟合每个步骤。labels 只做长度校验（各步骤均为无监督拟合），可为 nil。
// 任一步骤失败则整体失败，预处理器保持未拟合状态。
func (p *Preprocessor) Fit(ctx context.Context, batch *core.Frame, labels []int) error {
	if p.fitted {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeAlreadyFitted, "pipeline is already fitted")
	}
	if batch == nil || batch.Len() == 0 {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "fit requires a non-empty batch")
	}
	if labels != nil && len(labels) != batch.Len() {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("got %d labels for %d records", len(labels), batch.Len()))
	}

	// 每次 Fit 都构建新的步骤，失败时不会留下半拟合的状态
	steps, final, err := p.config.BuildSteps(p.factory)
	if err != nil {
		return err
	}

	start := time.Now()
	cur := batch
	for _, step := range steps {
		if err := p.observe(ctx, step.Name(), phaseFit, func() error { return step.Fit(cur) }); err != nil {
			return err
		}
		err := p.observe(ctx, step.Name(), phaseTransform, func() error {
			next, err := step.Transform(cur)
			cur = next
			return err
		})
		if err != nil {
			return err
		}
	}
	if err := p.observe(ctx, final.Name(), phaseFit, func() error { return final.Fit(cur) }); err != nil {
		return err
	}

	p.steps, p.final, p.fitted = steps, final, true
	rowsProcessed.WithLabelValues(phaseFit).Add(float64(batch.Len()))
	p.logger.InfoContext(ctx, "preprocessing pipeline fitted",
		"rows", batch.Len(),
		"steps", len(steps)+1,
		"features", len(final.FeatureNames()),
		"duration", time.Since(start))
	return nil
}

// Transform 用已学到的参数变换批次，输出固定宽度的特征矩阵。不修改输入批次。
func (p *Preprocessor) Transform(ctx context.Context, batch *core.Frame) (*core.Matrix, error) {
	if !p.fitted {
		return nil, core.NotFittedError("pipeline")
	}
	if batch == nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "transform requires a batch")
	}

	cur := batch
	for _, step := range p.steps {
		err := p.observe(ctx, step.Name(), phaseTransform, func() error {
			next, err := step.Transform(cur)
			cur = next
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var out *core.Matrix
	err := p.observe(ctx, p.final.Name(), phaseTransform, func() error {
		m, err := p.final.Transform(cur)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	rowsProcessed.WithLabelValues(phaseTransform).Add(float64(batch.Len()))
	return out, nil
}

// FitTransform 拟合后立即变换同一批次
func (p *Preprocessor) FitTransform(ctx context.Context, batch *core.Frame, labels []int) (*core.Matrix, error) {
	if err := p.Fit(ctx, batch, labels); err != nil {
		return nil, err
	}
	return p.Transform(ctx, batch)
}

// FeatureNames 返回输出矩阵的列名（Fit 之后可用）
func (p *Preprocessor) FeatureNames() []string {
	if !p.fitted {
		return nil
	}
	return p.final.FeatureNames()
}

// Step 按名称返回已拟合的步骤
func (p *Preprocessor) Step(name string) (Step, bool) {
	for _, s := range p.steps {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// ColumnTransformer 返回已拟合的最终列变换
func (p *Preprocessor) ColumnTransformer() *feature.ColumnTransformer { return p.final }

// SalaryMedians 返回薪资比值编码器学到的两张中位数表
func (p *Preprocessor) SalaryMedians() (job, department map[string]float64, ok bool) {
	s, found := p.Step(feature.NewSalaryRatioEncoder().Name())
	if !found {
		return nil, nil, false
	}
	enc := s.(*feature.SalaryRatioEncoder)
	return enc.JobMedian, enc.DepartmentMedian, true
}

// observe 执行并记录单个步骤：耗时、错误码、日志；错误补充步骤名。
func (p *Preprocessor) observe(ctx context.Context, step, phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	stepDuration.WithLabelValues(step, phase).Observe(time.Since(start).Seconds())
	if err == nil {
		p.logger.DebugContext(ctx, "step done", "step", step, "phase", phase, "duration", time.Since(start))
		return nil
	}

	err = core.WithStep(err, step)
	code := "unknown"
	attrs := []any{"step", step, "phase", phase, "error", err}
	if domainErr := core.GetDomainError(err); domainErr != nil {
		code = domainErr.Code
		if domainErr.Column != "" {
			attrs = append(attrs, "column", domainErr.Column)
		}
	}
	stepErrors.WithLabelValues(step, phase, code).Inc()
	p.logger.ErrorContext(ctx, "step failed", attrs...)
	return err
}
