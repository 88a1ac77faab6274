package dataset

import (
	"fmt"
	"strings"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/pkg/conv"
)

// 标签取值
const (
	LabelStayed = "Non"
	LabelLeft   = "Oui"
)

// BuildFrame 按 core.Schema 为记录定型：数值列解析为 float64（空值为 NaN），类别列保留文本。
// Schema 中在所有记录里都不存在的列被跳过，由流水线在需要时报告缺列。
// 记录中带有 a_quitte_l_entreprise 时同时返回 0/1 标签，否则标签为 nil。
func BuildFrame(records []map[string]string) (*core.Frame, []int, error) {
	frame := core.NewFrame(len(records))
	for _, spec := range core.Schema {
		if !anyHas(records, spec.Name) {
			continue
		}
		switch spec.Kind {
		case core.KindNumeric:
			values, err := parseNumeric(records, spec.Name)
			if err != nil {
				return nil, nil, err
			}
			if err := frame.SetFloat(spec.Name, values); err != nil {
				return nil, nil, err
			}
		default:
			values := make([]string, len(records))
			for i, rec := range records {
				values[i] = strings.TrimSpace(rec[string(spec.Name)])
			}
			if err := frame.SetString(spec.Name, values); err != nil {
				return nil, nil, err
			}
		}
	}

	if len(records) == 0 || !anyHas(records, core.ColAttrition) {
		return frame, nil, nil
	}
	labels, err := ParseLabels(records)
	if err != nil {
		return nil, nil, err
	}
	return frame, labels, nil
}

// ParseLabels 把 Oui/Non 转为 1/0
func ParseLabels(records []map[string]string) ([]int, error) {
	labels := make([]int, len(records))
	for i, rec := range records {
		switch v := strings.TrimSpace(rec[string(core.ColAttrition)]); v {
		case LabelLeft:
			labels[i] = 1
		case LabelStayed:
			labels[i] = 0
		default:
			return nil, datasetError(core.ColAttrition, "row %d: unknown label %q", i, v)
		}
	}
	return labels, nil
}

func parseNumeric(records []map[string]string, c core.Column) ([]float64, error) {
	parse := conv.ParseFloat
	if c == core.ColPreviousSalaryIncreasePc {
		parse = conv.ParsePercent
	}
	values := make([]float64, len(records))
	for i, rec := range records {
		v, err := parse(rec[string(c)])
		if err != nil {
			return nil, datasetError(c, "row %d: %v", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func anyHas(records []map[string]string, c core.Column) bool {
	for _, rec := range records {
		if _, ok := rec[string(c)]; ok {
			return true
		}
	}
	return false
}

func datasetError(c core.Column, format string, args ...any) *core.DomainError {
	return &core.DomainError{
		Module:  core.ModuleDataset,
		Code:    core.ErrorCodeSchema,
		Column:  string(c),
		Message: fmt.Sprintf(format, args...),
	}
}
