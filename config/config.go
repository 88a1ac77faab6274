// Package config 是应用级配置：数据源、记录过滤、预处理流水线、训练参数、模型存储、Feast、日志。
// 支持 YAML，未给出的字段取 Default() 中的值。
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/attrition/dataset"
	"github.com/rushteam/attrition/feast"
	"github.com/rushteam/attrition/model"
	"github.com/rushteam/attrition/pipeline"
	"github.com/rushteam/attrition/pkg/dsl"
	"github.com/rushteam/attrition/store"
)

// 原始抽取文件的公开地址
const (
	DefaultSIRHURL   = "https://s3.eu-west-1.amazonaws.com/course.oc-static.com/projects/1047_Data+Scientist+ML/P4_DSML_1047/extrait_sirh.csv"
	DefaultEvalURL   = "https://s3.eu-west-1.amazonaws.com/course.oc-static.com/projects/1047_Data+Scientist+ML/P4_DSML_1047/extrait_eval.csv"
	DefaultSurveyURL = "https://s3.eu-west-1.amazonaws.com/course.oc-static.com/projects/1047_Data+Scientist+ML/P4_DSML_1047/extrait_sondage.csv"
)

// DefaultModelKey 模型在 store 中的默认 key
const DefaultModelKey = "attrition/model.json"

// Config 应用配置
type Config struct {
	Data        DataConfig       `yaml:"data"`
	Pipeline    *pipeline.Config `yaml:"pipeline"`
	Training    TrainingConfig   `yaml:"training"`
	Store       store.Config     `yaml:"store"`
	Feast       *feast.Config    `yaml:"feast" validate:"omitempty"`
	Log         LogConfig        `yaml:"log"`
	MetricsFile string           `yaml:"metrics_file"`
}

// DataConfig 数据源与过滤
type DataConfig struct {
	Sources     dataset.Paths `yaml:"sources"`
	Filter      string        `yaml:"filter" validate:"omitempty,celexpr"`
	HTTPTimeout time.Duration `yaml:"http_timeout" validate:"gte=0"`
}

// TrainingConfig 训练参数
type TrainingConfig struct {
	TestSize        float64 `yaml:"test_size" validate:"gt=0,lt=1"`
	Seed            int64   `yaml:"seed"`
	C               float64 `yaml:"c" validate:"gt=0"`
	ClassWeight     string  `yaml:"class_weight" validate:"omitempty,oneof=balanced"`
	MaxIter         int     `yaml:"max_iter" validate:"gt=0"`
	Tol             float64 `yaml:"tol" validate:"gte=0"`
	ThresholdFactor float64 `yaml:"threshold_factor" validate:"gt=0"`
	ModelKey        string  `yaml:"model_key" validate:"required"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// configValidate 是配置校验器，init 中注册自定义规则
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("celexpr", validateCELExpr)
}

// validateCELExpr 校验过滤表达式能被编译
func validateCELExpr(fl validator.FieldLevel) bool {
	_, err := dsl.NewRecordFilter(fl.Field().String())
	return err == nil
}

// Default 返回与原始训练脚本一致的配置
func Default() *Config {
	params := model.DefaultTrainParams()
	return &Config{
		Data: DataConfig{
			Sources: dataset.Paths{
				SIRH:   DefaultSIRHURL,
				Eval:   DefaultEvalURL,
				Survey: DefaultSurveyURL,
			},
			HTTPTimeout: 30 * time.Second,
		},
		Pipeline: pipeline.DefaultConfig(),
		Training: TrainingConfig{
			TestSize:        dataset.DefaultTestSize,
			Seed:            dataset.DefaultSeed,
			C:               params.C,
			ClassWeight:     params.ClassWeight,
			MaxIter:         params.MaxIter,
			Tol:             params.Tol,
			ThresholdFactor: params.ThresholdFactor,
			ModelKey:        DefaultModelKey,
		},
		Store: store.Config{Type: store.TypeFile, Dir: "models"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load 从 YAML 文件加载配置并校验；path 为空时返回 Default()
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		// pipeline 段整体替换，避免与默认步骤列表合并
		cfg.Pipeline = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if cfg.Pipeline == nil {
			cfg.Pipeline = pipeline.DefaultConfig()
		}
		cfg.Pipeline.WithDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验结构体约束与流水线步骤
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Pipeline == nil {
		return fmt.Errorf("invalid config: pipeline is required")
	}
	if err := c.Pipeline.Validate(pipeline.DefaultFactory()); err != nil {
		return fmt.Errorf("invalid config: pipeline: %w", err)
	}
	return nil
}

// TrainParams 转换为模型训练参数
func (c *Config) TrainParams() model.TrainParams {
	return model.TrainParams{
		Pipeline:        c.Pipeline,
		C:               c.Training.C,
		ClassWeight:     c.Training.ClassWeight,
		MaxIter:         c.Training.MaxIter,
		Tol:             c.Training.Tol,
		ThresholdFactor: c.Training.ThresholdFactor,
	}
}
