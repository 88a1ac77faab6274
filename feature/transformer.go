package feature

import (
	"github.com/rushteam/attrition/core"
)

// DefaultDropColumns 是已知冗余或有泄漏风险的列
var DefaultDropColumns = []core.Column{
	core.ColEmployeeID,
	core.ColHasChildren,
	core.ColWorkingHours,
	core.ColDirectReports,
	core.ColSalaryToDeptMedian,
	core.ColYearsAtCompany,
	core.ColJobLevel,
}

// DefaultTravelFrequency 是 frequence_deplacement 的有序映射
var DefaultTravelFrequency = map[string]float64{
	"Aucun":       0,
	"Occasionnel": 1,
	"Frequent":    2,
}

// DefaultNumericColumns 是数值块的输入列：原始数值列在前，派生列在后
var DefaultNumericColumns = []core.Column{
	core.ColAge,
	core.ColMonthlyIncome,
	core.ColPreviousCompanies,
	core.ColTotalExperienceYears,
	core.ColYearsInCurrentRole,
	core.ColEnvironmentSatisfaction,
	core.ColPreviousEvaluation,
	core.ColWorkNatureSatisfaction,
	core.ColTeamSatisfaction,
	core.ColWorkLifeSatisfaction,
	core.ColCurrentEvaluation,
	core.ColPreviousSalaryIncreasePc,
	core.ColSavingsPlanParticipation,
	core.ColTrainingsCompleted,
	core.ColCommuteDistance,
	core.ColEducationLevel,
	core.ColYearsSincePromotion,
	core.ColYearsWithManager,

	core.ColSatisfactionAverage,
	core.ColTimeInRoleRatio,
	core.ColFamilyConflict,
	core.ColTrainingRatePerYear,
	core.ColRecentChangeFlag,
	core.ColRelativePromoDelay,
}

// DefaultOneHotColumns 是低基数类别列
var DefaultOneHotColumns = []core.Column{
	core.ColGender,
	core.ColMaritalStatus,
	core.ColDepartment,
	core.ColOvertime,
}

// DefaultLabelColumns 是高基数类别列
var DefaultLabelColumns = []core.Column{
	core.ColJobTitle,
	core.ColFieldOfStudy,
}

// DropColumns 删除固定列表中的列，不存在的列被忽略。无状态。
type DropColumns struct {
	Columns []core.Column
}

// NewDropColumns 创建删列步骤
func NewDropColumns(columns []core.Column) *DropColumns {
	return &DropColumns{Columns: columns}
}

func (d *DropColumns) Name() string { return "drop_columns" }

func (d *DropColumns) Fit(*core.Frame) error { return nil }

func (d *DropColumns) Transform(f *core.Frame) (*core.Frame, error) {
	out := f.Clone()
	out.Drop(d.Columns...)
	return out, nil
}

// FrequencyMapper 把出差频率类别替换为有序数值。无状态，未映射的类别为 NaN。
type FrequencyMapper struct {
	encoder *OrdinalEncoder
}

// NewFrequencyMapper 创建出差频率映射步骤，mapping 为空时使用 DefaultTravelFrequency
func NewFrequencyMapper(mapping map[string]float64) *FrequencyMapper {
	if len(mapping) == 0 {
		mapping = DefaultTravelFrequency
	}
	return &FrequencyMapper{encoder: NewOrdinalEncoder(core.ColTravelFrequency, mapping)}
}

func (m *FrequencyMapper) Name() string { return "map_frequency" }

func (m *FrequencyMapper) Fit(f *core.Frame) error {
	_, err := f.RequireString(m.Name(), m.encoder.Column)
	return err
}

func (m *FrequencyMapper) Transform(f *core.Frame) (*core.Frame, error) {
	values, err := f.RequireString(m.Name(), m.encoder.Column)
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	if err := out.SetFloat(m.encoder.Column, m.encoder.EncodeColumn(values)); err != nil {
		return nil, err
	}
	return out, nil
}

// ColumnTransformer 把剩余列分发给三个并行编码器，按固定顺序拼接输出：
// 数值块（StandardScaler）、One-Hot 块、Label 块。未列出的列被丢弃。
type ColumnTransformer struct {
	Numeric *StandardScaler `json:"numeric"`
	OneHot  *OneHotEncoder  `json:"onehot"`
	Label   *LabelEncoder   `json:"label"`
}

// NewColumnTransformer 创建最终列变换
func NewColumnTransformer(numeric, onehot, label []core.Column, onehotUnseen, labelUnseen UnseenPolicy) *ColumnTransformer {
	return &ColumnTransformer{
		Numeric: NewStandardScaler(numeric),
		OneHot:  NewOneHotEncoder(onehot, onehotUnseen),
		Label:   NewLabelEncoder(label, labelUnseen),
	}
}

func (t *ColumnTransformer) Name() string { return "column_transformer" }

// Fitted 三个编码器是否都存在且已拟合
func (t *ColumnTransformer) Fitted() bool {
	return t.Complete() && t.Numeric.Fitted() && t.OneHot.Fitted() && t.Label.Fitted()
}

// Complete 三个编码器是否齐全（反序列化残缺的状态时可能缺块）
func (t *ColumnTransformer) Complete() bool {
	return t != nil && t.Numeric != nil && t.OneHot != nil && t.Label != nil
}

// Fit 依次拟合三个编码器（彼此独立，都看同一个输入批次）
func (t *ColumnTransformer) Fit(f *core.Frame) error {
	if err := t.Numeric.Fit(f); err != nil {
		return err
	}
	if err := t.OneHot.Fit(f); err != nil {
		return err
	}
	return t.Label.Fit(f)
}

// FeatureNames 返回输出矩阵的列名
func (t *ColumnTransformer) FeatureNames() []string {
	var names []string
	for _, c := range t.Numeric.Columns {
		names = append(names, string(c))
	}
	names = append(names, t.OneHot.FeatureNames()...)
	for _, c := range t.Label.Columns {
		names = append(names, string(c))
	}
	return names
}

// Transform 输出拼接后的特征矩阵
func (t *ColumnTransformer) Transform(f *core.Frame) (*core.Matrix, error) {
	if !t.Fitted() {
		return nil, core.NotFittedError(t.Name())
	}
	numeric, err := t.Numeric.Transform(f)
	if err != nil {
		return nil, err
	}
	onehot, err := t.OneHot.Transform(f)
	if err != nil {
		return nil, err
	}
	label, err := t.Label.Transform(f)
	if err != nil {
		return nil, err
	}
	return core.HStack(numeric, onehot, label)
}
