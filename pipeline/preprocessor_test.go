package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/dataset/datasettest"
	"github.com/rushteam/attrition/feature"
)

func fitted(t *testing.T, n int) (*Preprocessor, *core.Frame) {
	t.Helper()
	ds := datasettest.Dataset(n, 7)
	p, err := NewPreprocessor(nil)
	require.NoError(t, err)
	require.NoError(t, p.Fit(context.Background(), ds.Frame, ds.Labels))
	return p, ds.Frame
}

func TestPreprocessor_Lifecycle(t *testing.T) {
	ctx := context.Background()
	ds := datasettest.Dataset(60, 7)

	p, err := NewPreprocessor(nil)
	require.NoError(t, err)
	assert.False(t, p.Fitted())
	assert.Nil(t, p.FeatureNames())

	_, err = p.Transform(ctx, ds.Frame)
	require.Error(t, err)
	assert.True(t, core.IsNotFitted(err))

	require.NoError(t, p.Fit(ctx, ds.Frame, ds.Labels))
	assert.True(t, p.Fitted())

	err = p.Fit(ctx, ds.Frame, ds.Labels)
	require.Error(t, err)
	assert.True(t, core.IsAlreadyFitted(err))

	out, err := p.Transform(ctx, ds.Frame)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), out.Len())
	assert.Equal(t, p.FeatureNames(), out.Columns)
}

func TestPreprocessor_FitRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	ds := datasettest.Dataset(10, 1)

	tests := []struct {
		name   string
		batch  *core.Frame
		labels []int
	}{
		{"nil batch", nil, nil},
		{"empty batch", core.NewFrame(0), nil},
		{"label count mismatch", ds.Frame, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPreprocessor(nil)
			require.NoError(t, err)
			err = p.Fit(ctx, tt.batch, tt.labels)
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
			assert.False(t, p.Fitted())
		})
	}
}

func TestPreprocessor_FailedFitLeavesUnfitted(t *testing.T) {
	ctx := context.Background()
	ds := datasettest.Dataset(10, 1)
	broken := ds.Frame.Clone()
	broken.Drop(core.ColCommuteDistance)

	p, err := NewPreprocessor(nil)
	require.NoError(t, err)
	err = p.Fit(ctx, broken, nil)
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
	assert.Equal(t, "feature_engineer", core.GetDomainError(err).Step)
	assert.False(t, p.Fitted())

	// 失败后仍可在正确的数据上拟合
	require.NoError(t, p.Fit(ctx, ds.Frame, nil))
}

func TestPreprocessor_OutputLayout(t *testing.T) {
	p, frame := fitted(t, 60)
	names := p.FeatureNames()

	// 数值块在前，顺序与配置一致
	for j, c := range feature.DefaultNumericColumns {
		assert.Equal(t, string(c), names[j])
	}
	// Label 块在最后
	assert.Equal(t, []string{"poste", "domaine_etude"}, names[len(names)-2:])
	// 被删除的列不出现
	for _, c := range feature.DefaultDropColumns {
		assert.NotContains(t, names, string(c))
	}
	assert.Contains(t, names, "heure_supplementaires_Oui")

	out, err := p.Transform(context.Background(), frame)
	require.NoError(t, err)
	for i, row := range out.Rows {
		require.Len(t, row, len(names), "row %d", i)
	}
}

func TestPreprocessor_Deterministic(t *testing.T) {
	p, frame := fitted(t, 40)
	a, err := p.Transform(context.Background(), frame)
	require.NoError(t, err)
	b, err := p.Transform(context.Background(), frame.Clone())
	require.NoError(t, err)
	require.Equal(t, a.Len(), b.Len())
	for i := range b.Rows {
		require.Len(t, b.Rows[i], len(a.Rows[i]))
		for j := range b.Rows[i] {
			assert.Equal(t, math.Float64bits(a.Rows[i][j]), math.Float64bits(b.Rows[i][j]), "row %d col %d", i, j)
		}
	}
}

func TestPreprocessor_MediansFrozenAfterFit(t *testing.T) {
	p, frame := fitted(t, 40)
	job, dept, ok := p.SalaryMedians()
	require.True(t, ok)
	jobBefore := copyMap(job)
	deptBefore := copyMap(dept)

	// 变换一个薪资全部翻倍的批次
	doubled := frame.Clone()
	salary, _ := frame.Float(core.ColMonthlyIncome)
	scaled := make([]float64, len(salary))
	for i, v := range salary {
		scaled[i] = v * 2
	}
	require.NoError(t, doubled.SetFloat(core.ColMonthlyIncome, scaled))
	_, err := p.Transform(context.Background(), doubled)
	require.NoError(t, err)

	job, dept, _ = p.SalaryMedians()
	assert.Equal(t, jobBefore, job)
	assert.Equal(t, deptBefore, dept)
}

func TestPreprocessor_UnseenJobTitle(t *testing.T) {
	p, frame := fitted(t, 20)
	batch := frame.Subset([]int{0})
	require.NoError(t, batch.SetString(core.ColJobTitle, []string{"Astronaute"}))

	_, err := p.Transform(context.Background(), batch)
	require.Error(t, err)
	assert.True(t, core.IsUnseenCategory(err))
	assert.Equal(t, string(core.ColJobTitle), core.GetDomainError(err).Column)
}

func TestPreprocessor_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, frame := fitted(t, 50)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	loaded, err := LoadPreprocessor(data)
	require.NoError(t, err)
	assert.True(t, loaded.Fitted())
	assert.Equal(t, p.FeatureNames(), loaded.FeatureNames())

	want, err := p.Transform(ctx, frame)
	require.NoError(t, err)
	got, err := loaded.Transform(ctx, frame)
	require.NoError(t, err)
	for i := range want.Rows {
		assertRowsEqual(t, want.Rows[i], got.Rows[i])
	}

	err = loaded.Fit(ctx, frame, nil)
	assert.True(t, core.IsAlreadyFitted(err))
}

func TestPreprocessor_MarshalUnfitted(t *testing.T) {
	p, err := NewPreprocessor(nil)
	require.NoError(t, err)
	_, err = json.Marshal(p)
	require.Error(t, err)
	assert.True(t, core.IsNotFitted(err))
}

func TestLoadPreprocessor_Invalid(t *testing.T) {
	_, err := LoadPreprocessor([]byte(`{`))
	require.Error(t, err)

	_, err = LoadPreprocessor([]byte(`{"steps": []}`))
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadPreprocessor_CorruptState(t *testing.T) {
	p, _ := fitted(t, 30)
	data, err := json.Marshal(p)
	require.NoError(t, err)

	final := func(st map[string]any) map[string]any { return st["final"].(map[string]any) }
	tests := []struct {
		name   string
		mutate func(st map[string]any)
		code   string
	}{
		{"empty final", func(st map[string]any) { st["final"] = map[string]any{} }, core.ErrorCodeInvalidInput},
		{"final without label block", func(st map[string]any) { delete(final(st), "label") }, core.ErrorCodeInvalidInput},
		{"scaler without std", func(st map[string]any) {
			final(st)["numeric"].(map[string]any)["std"] = nil
		}, core.ErrorCodeNotFitted},
		{"config columns differ", func(st map[string]any) {
			cols := st["config"].(map[string]any)["columns"].(map[string]any)
			cols["numeric"] = cols["numeric"].([]any)[1:]
		}, core.ErrorCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st map[string]any
			require.NoError(t, json.Unmarshal(data, &st))
			tt.mutate(st)
			raw, err := json.Marshal(st)
			require.NoError(t, err)

			require.NotPanics(t, func() { _, err = LoadPreprocessor(raw) })
			require.Error(t, err)
			require.NotNil(t, core.GetDomainError(err))
			assert.Equal(t, tt.code, core.GetDomainError(err).Code)
		})
	}
}

func TestNewPreprocessor_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = append(cfg.Steps, StepConfig{Type: "feature.unknown"})
	_, err := NewPreprocessor(cfg)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestConfig_LoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
steps:
  - type: feature.derive
  - type: feature.drop
    config:
      columns: [id_employee]
columns:
  numeric: [age, family_conflict]
  onehot: [genre]
  label: []
`), 0o644))

	cfg, err := LoadFromYAML(path)
	require.NoError(t, err)
	require.Len(t, cfg.Steps, 2)
	assert.Equal(t, StepDrop, cfg.Steps[1].Type)
	assert.Equal(t, []string{"age", "family_conflict"}, cfg.Columns.Numeric)
	assert.Equal(t, feature.UnseenIgnore, cfg.Columns.OneHotUnseen)
	assert.Equal(t, feature.UnseenError, cfg.Columns.LabelUnseen)
	require.NoError(t, cfg.Validate(DefaultFactory()))

	ds := datasettest.Dataset(20, 3)
	p, err := NewPreprocessor(cfg)
	require.NoError(t, err)
	out, err := p.FitTransform(context.Background(), ds.Frame, ds.Labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "family_conflict", "genre_M"}, out.Columns)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown step", func(c *Config) { c.Steps[0].Type = "nope" }},
		{"bad unseen policy", func(c *Config) { c.Columns.LabelUnseen = "drop" }},
		{"no output columns", func(c *Config) { c.Columns = ColumnsConfig{OneHotUnseen: "ignore", LabelUnseen: "error"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate(DefaultFactory()))
		})
	}
}

func TestBuildSteps_CustomConfig(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		config  map[string]interface{}
		wantErr bool
	}{
		{"drop default", StepDrop, nil, false},
		{"drop columns", StepDrop, map[string]interface{}{"columns": []interface{}{"age"}}, false},
		{"drop bad columns", StepDrop, map[string]interface{}{"columns": 3}, true},
		{"frequency mapping", StepMapFrequency, map[string]interface{}{"mapping": map[string]interface{}{"Aucun": 0, "Frequent": 1}}, false},
		{"frequency bad mapping", StepMapFrequency, map[string]interface{}{"mapping": map[string]interface{}{"Aucun": "zero"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultFactory().Build(tt.typ, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func assertRowsEqual(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for j := range want {
		if math.IsNaN(want[j]) {
			assert.True(t, math.IsNaN(got[j]), "col %d", j)
			continue
		}
		assert.InDelta(t, want[j], got[j], 1e-12, "col %d", j)
	}
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
