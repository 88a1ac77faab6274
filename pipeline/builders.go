package pipeline

import (
	"fmt"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/feature"
	"github.com/rushteam/attrition/pkg/conv"
)

// 内置步骤类型
const (
	StepDerive       = "feature.derive"
	StepSalaryRatio  = "feature.salary_ratio"
	StepDrop         = "feature.drop"
	StepMapFrequency = "feature.map_frequency"
)

func init() {
	Register(StepDerive, BuildDeriveStep)
	Register(StepSalaryRatio, BuildSalaryRatioStep)
	Register(StepDrop, BuildDropStep)
	Register(StepMapFrequency, BuildMapFrequencyStep)
}

func BuildDeriveStep(map[string]interface{}) (Step, error) {
	return feature.NewFeatureEngineer(), nil
}

func BuildSalaryRatioStep(map[string]interface{}) (Step, error) {
	return feature.NewSalaryRatioEncoder(), nil
}

// BuildDropStep 构建删列步骤；未配置 columns 时使用默认删列表
func BuildDropStep(cfg map[string]interface{}) (Step, error) {
	if cfg == nil || cfg["columns"] == nil {
		return feature.NewDropColumns(feature.DefaultDropColumns), nil
	}
	names := conv.SliceAnyToString(cfg["columns"])
	if names == nil {
		return nil, fmt.Errorf("%s: columns must be a list of column names", StepDrop)
	}
	return feature.NewDropColumns(core.Columns(names...)), nil
}

// BuildMapFrequencyStep 构建出差频率映射步骤；未配置 mapping 时使用默认映射
func BuildMapFrequencyStep(cfg map[string]interface{}) (Step, error) {
	raw, ok := conv.TypeAssert[map[string]any](cfg["mapping"])
	if !ok || len(raw) == 0 {
		return feature.NewFrequencyMapper(nil), nil
	}
	mapping := conv.MapToFloat64(raw)
	if len(mapping) != len(raw) {
		return nil, fmt.Errorf("%s: mapping values must be numbers", StepMapFrequency)
	}
	return feature.NewFrequencyMapper(mapping), nil
}
