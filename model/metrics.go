package model

import (
	"fmt"
	"strings"

	"github.com/rushteam/attrition/core"
)

// DefaultClassNames 对应标签 0（留任）与 1（离职）
var DefaultClassNames = []string{"Reste", "Part"}

// ClassMetrics 单个类别的指标
type ClassMetrics struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport 二分类评估报告
type ClassificationReport struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Confusion   [2][2]int      `json:"confusion"` // [真实][预测]
}

// NewClassificationReport 根据真实标签与预测标签计算报告。names 为空时使用 DefaultClassNames。
func NewClassificationReport(yTrue, yPred []int, names []string) (*ClassificationReport, error) {
	if len(yTrue) != len(yPred) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("got %d predictions for %d labels", len(yPred), len(yTrue)))
	}
	if len(yTrue) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "empty evaluation set")
	}
	if len(names) != 2 {
		names = DefaultClassNames
	}

	r := &ClassificationReport{}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] > 1 || yPred[i] < 0 || yPred[i] > 1 {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("row %d: labels must be 0 or 1", i))
		}
		r.Confusion[yTrue[i]][yPred[i]]++
	}

	total := len(yTrue)
	r.Accuracy = float64(r.Confusion[0][0]+r.Confusion[1][1]) / float64(total)
	r.MacroAvg.Name, r.WeightedAvg.Name = "macro avg", "weighted avg"
	for c := 0; c < 2; c++ {
		tp := r.Confusion[c][c]
		fp := r.Confusion[1-c][c]
		fn := r.Confusion[c][1-c]
		m := ClassMetrics{Name: names[c], Support: tp + fn}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision / 2
		r.MacroAvg.Recall += m.Recall / 2
		r.MacroAvg.F1 += m.F1 / 2
		w := float64(m.Support) / float64(total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support, r.WeightedAvg.Support = total, total
	return r, nil
}

// String 以表格形式输出报告
func (r *ClassificationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", c.Name, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	for _, c := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", c.Name, c.Precision, c.Recall, c.F1, c.Support)
	}
	return b.String()
}

// BinaryPredFromProba 按阈值把概率转为 0/1
func BinaryPredFromProba(proba []float64, threshold float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}
