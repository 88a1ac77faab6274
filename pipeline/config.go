package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/feature"
)

// Config 是预处理流水线的配置结构（支持 YAML/JSON）。
// 拟合后的流水线会把 Config 一起序列化，加载时用它重建步骤。
type Config struct {
	Steps   []StepConfig  `yaml:"steps" json:"steps"`
	Columns ColumnsConfig `yaml:"columns" json:"columns"`
}

// StepConfig 是单个 Step 的配置。
type StepConfig struct {
	Type   string                 `yaml:"type" json:"type"`     // feature.derive / feature.salary_ratio / feature.drop 等
	Config map[string]interface{} `yaml:"config" json:"config"` // Step 特定配置
}

// ColumnsConfig 是最终列变换的路由配置。
type ColumnsConfig struct {
	Numeric      []string             `yaml:"numeric" json:"numeric"`
	OneHot       []string             `yaml:"onehot" json:"onehot"`
	Label        []string             `yaml:"label" json:"label"`
	OneHotUnseen feature.UnseenPolicy `yaml:"onehot_unseen" json:"onehot_unseen"`
	LabelUnseen  feature.UnseenPolicy `yaml:"label_unseen" json:"label_unseen"`
}

// DefaultConfig 返回固定顺序的默认流水线：
// 特征派生 → 薪资比值 → 删列 → 出差频率映射 → 最终列变换。
func DefaultConfig() *Config {
	return &Config{
		Steps: []StepConfig{
			{Type: StepDerive},
			{Type: StepSalaryRatio},
			{Type: StepDrop},
			{Type: StepMapFrequency},
		},
		Columns: ColumnsConfig{
			Numeric:      columnNames(feature.DefaultNumericColumns),
			OneHot:       columnNames(feature.DefaultOneHotColumns),
			Label:        columnNames(feature.DefaultLabelColumns),
			OneHotUnseen: feature.UnseenIgnore,
			LabelUnseen:  feature.UnseenError,
		},
	}
}

// LoadFromYAML 从 YAML 文件加载流水线配置，未给出的部分取默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return cfg.WithDefaults(), nil
}

// Validate 校验步骤类型均已注册、未知值策略合法。
func (c *Config) Validate(factory *StepFactory) error {
	known := make(map[string]bool)
	for _, t := range factory.Types() {
		known[t] = true
	}
	for _, sc := range c.Steps {
		if !known[sc.Type] {
			return fmt.Errorf("unsupported step type %q (supported: %v)", sc.Type, factory.Types())
		}
	}
	for _, p := range []feature.UnseenPolicy{c.Columns.OneHotUnseen, c.Columns.LabelUnseen} {
		if p != feature.UnseenIgnore && p != feature.UnseenError {
			return fmt.Errorf("unsupported unseen-category policy %q", p)
		}
	}
	if len(c.Columns.Numeric)+len(c.Columns.OneHot)+len(c.Columns.Label) == 0 {
		return fmt.Errorf("columns: at least one output column is required")
	}
	return nil
}

// WithDefaults 补齐未配置的部分（保持已配置部分不变）
func (c *Config) WithDefaults() *Config {
	def := DefaultConfig()
	if len(c.Steps) == 0 {
		c.Steps = def.Steps
	}
	if c.Columns.Numeric == nil && c.Columns.OneHot == nil && c.Columns.Label == nil {
		c.Columns.Numeric = def.Columns.Numeric
		c.Columns.OneHot = def.Columns.OneHot
		c.Columns.Label = def.Columns.Label
	}
	if c.Columns.OneHotUnseen == "" {
		c.Columns.OneHotUnseen = def.Columns.OneHotUnseen
	}
	if c.Columns.LabelUnseen == "" {
		c.Columns.LabelUnseen = def.Columns.LabelUnseen
	}
	return c
}

// BuildSteps 根据配置构建有序步骤与最终列变换。
func (c *Config) BuildSteps(factory *StepFactory) ([]Step, *feature.ColumnTransformer, error) {
	steps := make([]Step, 0, len(c.Steps))
	for _, sc := range c.Steps {
		step, err := factory.Build(sc.Type, sc.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("build step %s: %w", sc.Type, err)
		}
		steps = append(steps, step)
	}

	final := feature.NewColumnTransformer(
		core.Columns(c.Columns.Numeric...),
		core.Columns(c.Columns.OneHot...),
		core.Columns(c.Columns.Label...),
		c.Columns.OneHotUnseen,
		c.Columns.LabelUnseen,
	)
	return steps, final, nil
}

func columnNames(cols []core.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}
