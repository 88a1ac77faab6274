// Package attrition 是员工离职预测的特征流水线与分类器。
//
// 设计要点：
// - Fit/Transform 分离：所有从数据中学到的参数（分组中位数、标准化参数、类别表）只在 Fit 时确定
// - 同一路径：训练集与推理数据经过完全相同的步骤，输出列数与列序固定
// - 步骤可配置: 步骤按名称注册，通过 YAML 组合
package attrition

import (
	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/model"
	"github.com/rushteam/attrition/pipeline"
)

// 轻量 facade：便于用户直接 import "attrition" 使用核心抽象。
type (
	Frame        = core.Frame
	Matrix       = core.Matrix
	Preprocessor = pipeline.Preprocessor
	Step         = pipeline.Step
	Model        = model.AttritionModel
)

// NewPreprocessor 使用默认配置创建预处理流水线
func NewPreprocessor(opts ...pipeline.Option) (*Preprocessor, error) {
	return pipeline.NewPreprocessor(pipeline.DefaultConfig(), opts...)
}
