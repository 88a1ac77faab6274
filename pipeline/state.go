package pipeline

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/feature"
)

// state 是拟合后流水线的持久化形式：配置 + 每个步骤学到的参数。
// 加载时先用配置重建步骤，再把参数回填进去。
type state struct {
	Config *Config                    `json:"config"`
	Steps  []stepState                `json:"steps"`
	Final  *feature.ColumnTransformer `json:"final"`
}

type stepState struct {
	Type  string          `json:"type"`
	Name  string          `json:"name"`
	State json.RawMessage `json:"state"`
}

// MarshalJSON 序列化已拟合的流水线；未拟合时返回 NotFittedError。
func (p *Preprocessor) MarshalJSON() ([]byte, error) {
	if !p.fitted {
		return nil, core.NotFittedError("pipeline")
	}
	st := state{Config: p.config, Final: p.final}
	for i, step := range p.steps {
		raw, err := json.Marshal(step)
		if err != nil {
			return nil, fmt.Errorf("marshal step %s: %w", step.Name(), err)
		}
		st.Steps = append(st.Steps, stepState{
			Type:  p.config.Steps[i].Type,
			Name:  step.Name(),
			State: raw,
		})
	}
	return json.Marshal(st)
}

// LoadPreprocessor 从 MarshalJSON 的输出恢复一个已拟合的预处理器。
func LoadPreprocessor(data []byte, opts ...Option) (*Preprocessor, error) {
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode pipeline state: %w", err)
	}
	if st.Config == nil || st.Final == nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "pipeline state is incomplete")
	}

	p, err := NewPreprocessor(st.Config, opts...)
	if err != nil {
		return nil, err
	}
	steps, _, err := st.Config.BuildSteps(p.factory)
	if err != nil {
		return nil, err
	}
	if len(steps) != len(st.Steps) {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("pipeline state has %d steps, config declares %d", len(st.Steps), len(steps)))
	}
	for i, step := range steps {
		saved := st.Steps[i]
		if saved.Type != st.Config.Steps[i].Type {
			return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("step %d: state type %q does not match config type %q", i, saved.Type, st.Config.Steps[i].Type))
		}
		if len(saved.State) > 0 {
			if err := json.Unmarshal(saved.State, step); err != nil {
				return nil, fmt.Errorf("decode step %s: %w", step.Name(), err)
			}
		}
	}
	if !st.Final.Complete() {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "pipeline state: final transform is incomplete")
	}
	if !st.Final.Fitted() {
		return nil, core.NotFittedError(st.Final.Name())
	}
	if err := checkFinalColumns(st.Final, st.Config.Columns); err != nil {
		return nil, err
	}

	p.steps, p.final, p.fitted = steps, st.Final, true
	return p, nil
}

// checkFinalColumns 要求最终列变换的三个列块与配置声明的一致
func checkFinalColumns(final *feature.ColumnTransformer, cols ColumnsConfig) error {
	blocks := []struct {
		name string
		got  []core.Column
		want []string
	}{
		{"numeric", final.Numeric.Columns, cols.Numeric},
		{"onehot", final.OneHot.Columns, cols.OneHot},
		{"label", final.Label.Columns, cols.Label},
	}
	for _, b := range blocks {
		if !slices.Equal(columnNames(b.got), b.want) {
			return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("pipeline state: %s columns %v do not match config %v", b.name, b.got, b.want))
		}
	}
	return nil
}
