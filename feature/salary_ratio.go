package feature

import (
	"math"

	"github.com/rushteam/attrition/core"
)

// SalaryRatioEncoder 计算薪资相对于所在岗位/部门中位薪资的比值。
//
// Fit 从训练批次按 poste、departement 分组计算 revenu_mensuel 中位数；
// Transform 只查表，不会用变换批次重新计算中位数。
// 训练期未见过的分组、或中位数为 0 的分组，比值为 NaN。
type SalaryRatioEncoder struct {
	JobMedian        map[string]float64 `json:"poste_median"`
	DepartmentMedian map[string]float64 `json:"department_median"`
}

// NewSalaryRatioEncoder 创建薪资比值编码器
func NewSalaryRatioEncoder() *SalaryRatioEncoder { return &SalaryRatioEncoder{} }

func (e *SalaryRatioEncoder) Name() string { return "salary_ratio" }

// Fitted 是否已拟合
func (e *SalaryRatioEncoder) Fitted() bool {
	return e.JobMedian != nil && e.DepartmentMedian != nil
}

// Fit 学习两张分组中位数表
func (e *SalaryRatioEncoder) Fit(f *core.Frame) error {
	salary, err := f.RequireFloat(e.Name(), core.ColMonthlyIncome)
	if err != nil {
		return err
	}
	jobs, err := f.RequireString(e.Name(), core.ColJobTitle)
	if err != nil {
		return err
	}
	departments, err := f.RequireString(e.Name(), core.ColDepartment)
	if err != nil {
		return err
	}
	e.JobMedian = groupMedian(jobs, salary)
	e.DepartmentMedian = groupMedian(departments, salary)
	return nil
}

// Transform 返回追加了 salary_to_poste_median、salary_to_dept_median 的新批次
func (e *SalaryRatioEncoder) Transform(f *core.Frame) (*core.Frame, error) {
	if !e.Fitted() {
		return nil, core.NotFittedError(e.Name())
	}
	salary, err := f.RequireFloat(e.Name(), core.ColMonthlyIncome)
	if err != nil {
		return nil, err
	}
	jobs, err := f.RequireString(e.Name(), core.ColJobTitle)
	if err != nil {
		return nil, err
	}
	departments, err := f.RequireString(e.Name(), core.ColDepartment)
	if err != nil {
		return nil, err
	}

	out := f.Clone()
	if err := out.SetFloat(core.ColSalaryToJobMedian, ratioTo(e.JobMedian, jobs, salary)); err != nil {
		return nil, err
	}
	if err := out.SetFloat(core.ColSalaryToDeptMedian, ratioTo(e.DepartmentMedian, departments, salary)); err != nil {
		return nil, err
	}
	return out, nil
}

func groupMedian(keys []string, values []float64) map[string]float64 {
	groups := make(map[string][]float64)
	for i, k := range keys {
		groups[k] = append(groups[k], values[i])
	}
	medians := make(map[string]float64, len(groups))
	for k, vals := range groups {
		// 全部缺失的分组不入表，Transform 时按未见分组处理
		if m := Median(vals); !math.IsNaN(m) {
			medians[k] = m
		}
	}
	return medians
}

func ratioTo(medians map[string]float64, keys []string, salary []float64) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		median, ok := medians[k]
		if !ok || median == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = salary[i] / median
	}
	return out
}
