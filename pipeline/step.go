package pipeline

import (
	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/feature"
)

// Step 是预处理流水线的最小单元：批次进、批次出。
// 有状态的步骤在 Fit 中学习参数，Transform 只读取已学到的参数；
// 无状态的步骤 Fit 只做 Schema 校验。
type Step interface {
	Name() string
	Fit(f *core.Frame) error
	Transform(f *core.Frame) (*core.Frame, error)
}

// 确保内置步骤实现了 Step 接口
var (
	_ Step = (*feature.FeatureEngineer)(nil)
	_ Step = (*feature.SalaryRatioEncoder)(nil)
	_ Step = (*feature.DropColumns)(nil)
	_ Step = (*feature.FrequencyMapper)(nil)
)
