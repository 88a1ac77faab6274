package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/pipeline"
)

// ArtifactVersion 持久化格式版本
const ArtifactVersion = 1

// Artifact 是训练结果的持久化形式（JSON），可存入任意 core.Store。
type Artifact struct {
	ID           string                `json:"id"`
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	Preprocessor json.RawMessage       `json:"preprocessor"`
	Selector     *SelectFromModel      `json:"selector"`
	Classifier   *LogisticRegression   `json:"classifier"`
	Report       *ClassificationReport `json:"report,omitempty"`
}

// Artifact 导出模型，report 可为 nil
func (m *AttritionModel) Artifact(report *ClassificationReport) (*Artifact, error) {
	pre, err := m.Preprocessor.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return &Artifact{
		ID:           m.ID,
		Version:      ArtifactVersion,
		CreatedAt:    m.CreatedAt,
		Preprocessor: pre,
		Selector:     m.Selector,
		Classifier:   m.Classifier,
		Report:       report,
	}, nil
}

// Save 把模型写入 store 的 key 下
func (m *AttritionModel) Save(ctx context.Context, s core.Store, key string, report *ClassificationReport) error {
	art, err := m.Artifact(report)
	if err != nil {
		return err
	}
	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: save %s: %w", s.Name(), key, err)
	}
	m.logger.InfoContext(ctx, "model saved", "id", m.ID, "store", s.Name(), "key", key, "bytes", len(data))
	return nil
}

// LoadArtifact 从 store 读取原始 Artifact
func LoadArtifact(ctx context.Context, s core.Store, key string) (*Artifact, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound,
				fmt.Sprintf("no model under key %q in store %s", key, s.Name()))
		}
		return nil, err
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if art.Version != ArtifactVersion {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("artifact version %d is not supported", art.Version))
	}
	return &art, nil
}

// Load 从 store 恢复一个可直接预测的模型
func Load(ctx context.Context, s core.Store, key string, opts ...Option) (*AttritionModel, error) {
	art, err := LoadArtifact(ctx, s, key)
	if err != nil {
		return nil, err
	}
	return art.Model(opts...)
}

// Model 由 Artifact 重建模型
func (a *Artifact) Model(opts ...Option) (*AttritionModel, error) {
	m := &AttritionModel{ID: a.ID, CreatedAt: a.CreatedAt, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	pre, err := pipeline.LoadPreprocessor(a.Preprocessor, pipeline.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	if a.Selector == nil || !a.Selector.Fitted() {
		return nil, core.NotFittedError("select_from_model")
	}
	if a.Classifier == nil || !a.Classifier.Fitted() {
		return nil, core.NotFittedError("lr")
	}
	if len(a.Classifier.Coef) != len(a.Selector.Support) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("classifier has %d coefficients, selector keeps %d features", len(a.Classifier.Coef), len(a.Selector.Support)))
	}
	m.Preprocessor, m.Selector, m.Classifier = pre, a.Selector, a.Classifier
	return m, nil
}
