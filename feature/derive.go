package feature

import (
	"math"

	"github.com/rushteam/attrition/core"
)

// family_conflict 子项权重
const (
	salaryDeficitWeight = 3.0
	overtimeWeight      = 2.0
	commuteWeight       = 2.0
	familyConflictMax   = 10.0
	commuteQuantile     = 0.95
)

var (
	// overtimeScores 加班（heure_supplementaires）取值到子项得分
	overtimeScores = map[string]float64{"Non": 0, "Oui": overtimeWeight}

	// maritalScores 婚姻状况的有序得分
	maritalScores = map[string]float64{"Célibataire": 0, "Marié(e)": 0.5, "Divorcé(e)": 1}

	satisfactionColumns = []core.Column{
		core.ColEnvironmentSatisfaction,
		core.ColWorkNatureSatisfaction,
		core.ColTeamSatisfaction,
		core.ColWorkLifeSatisfaction,
	}
)

// FeatureEngineer 从原始列派生 6 个数值特征。
//
// 它是无状态的：Fit 只做 Schema 校验。family_conflict 用到的公司薪资中位数
// 和通勤距离 95 分位数取自当前被变换的批次。
//
// 派生列：
//   - satisfaction_moyenne：四项满意度均值
//   - time_in_current_role_ratio：现任主管下年数 / max(司龄, 1)
//   - training_rate_per_year：培训次数 / max(司龄, 1)
//   - relative_promo_delay：距上次晋升年数 / max(司龄, 1)
//   - family_conflict：加权冲突分，[0, 10]
//   - recent_change_flag：近一年晋升且评分下降为 1，否则为 0
type FeatureEngineer struct{}

// NewFeatureEngineer 创建特征派生步骤
func NewFeatureEngineer() *FeatureEngineer { return &FeatureEngineer{} }

func (e *FeatureEngineer) Name() string { return "feature_engineer" }

// RequiredColumns 返回派生公式引用的全部原始列
func (e *FeatureEngineer) RequiredColumns() []core.Column {
	cols := append([]core.Column{}, satisfactionColumns...)
	return append(cols,
		core.ColYearsWithManager,
		core.ColYearsAtCompany,
		core.ColTrainingsCompleted,
		core.ColYearsSincePromotion,
		core.ColMonthlyIncome,
		core.ColOvertime,
		core.ColCommuteDistance,
		core.ColMaritalStatus,
		core.ColCurrentEvaluation,
		core.ColPreviousEvaluation,
	)
}

// Fit 只校验 Schema
func (e *FeatureEngineer) Fit(f *core.Frame) error {
	for _, c := range e.RequiredColumns() {
		if !f.Has(c) {
			return core.MissingColumnError(e.Name(), c)
		}
	}
	return nil
}

// Transform 返回追加了派生列的新批次
func (e *FeatureEngineer) Transform(f *core.Frame) (*core.Frame, error) {
	out := f.Clone()

	derived := []struct {
		col     core.Column
		compute func(*core.Frame) ([]float64, error)
	}{
		{core.ColSatisfactionAverage, e.satisfactionAverage},
		{core.ColTimeInRoleRatio, e.perYearOfTenure(core.ColYearsWithManager)},
		{core.ColFamilyConflict, e.familyConflict},
		{core.ColTrainingRatePerYear, e.perYearOfTenure(core.ColTrainingsCompleted)},
		{core.ColRecentChangeFlag, e.recentChangeFlag},
		{core.ColRelativePromoDelay, e.perYearOfTenure(core.ColYearsSincePromotion)},
	}
	for _, d := range derived {
		values, err := d.compute(f)
		if err != nil {
			return nil, err
		}
		if err := out.SetFloat(d.col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *FeatureEngineer) satisfactionAverage(f *core.Frame) ([]float64, error) {
	cols := make([][]float64, len(satisfactionColumns))
	for k, c := range satisfactionColumns {
		values, err := f.RequireFloat(e.Name(), c)
		if err != nil {
			return nil, err
		}
		cols[k] = values
	}
	out := make([]float64, f.Len())
	for i := range out {
		sum, n := 0.0, 0
		for _, values := range cols {
			if math.IsNaN(values[i]) {
				continue
			}
			sum += values[i]
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out, nil
}

// perYearOfTenure 返回 numerator / max(司龄, 1) 的计算函数
func (e *FeatureEngineer) perYearOfTenure(numerator core.Column) func(*core.Frame) ([]float64, error) {
	return func(f *core.Frame) ([]float64, error) {
		num, err := f.RequireFloat(e.Name(), numerator)
		if err != nil {
			return nil, err
		}
		tenure, err := f.RequireFloat(e.Name(), core.ColYearsAtCompany)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(num))
		for i := range num {
			out[i] = num[i] / math.Max(tenure[i], 1)
		}
		return out, nil
	}
}

func (e *FeatureEngineer) familyConflict(f *core.Frame) ([]float64, error) {
	salary, err := f.RequireFloat(e.Name(), core.ColMonthlyIncome)
	if err != nil {
		return nil, err
	}
	overtime, err := f.RequireString(e.Name(), core.ColOvertime)
	if err != nil {
		return nil, err
	}
	distance, err := f.RequireFloat(e.Name(), core.ColCommuteDistance)
	if err != nil {
		return nil, err
	}
	marital, err := f.RequireString(e.Name(), core.ColMaritalStatus)
	if err != nil {
		return nil, err
	}

	salaryMedian := Median(salary)
	distanceMax := Quantile(distance, commuteQuantile)

	out := make([]float64, f.Len())
	for i := range out {
		overtimeScore, ok := overtimeScores[overtime[i]]
		if !ok {
			return nil, core.SchemaError(e.Name(), core.ColOvertime, "unknown value %q at row %d", overtime[i], i)
		}
		maritalScore, ok := maritalScores[marital[i]]
		if !ok {
			return nil, core.SchemaError(e.Name(), core.ColMaritalStatus, "unknown value %q at row %d", marital[i], i)
		}

		// 中位数或分位数不可用（全缺失 / 为 0）时对应子项记 0
		salaryScore := 0.0
		if salaryMedian > 0 && !math.IsNaN(salary[i]) {
			salaryScore = math.Max((salaryMedian-salary[i])/salaryMedian, 0) * salaryDeficitWeight
		}
		distanceScore := 0.0
		if distanceMax > 0 && !math.IsNaN(distance[i]) {
			distanceScore = clip(distance[i]/distanceMax, 0, 1) * commuteWeight
		}

		out[i] = clip(salaryScore+overtimeScore+distanceScore+maritalScore, 0, familyConflictMax)
	}
	return out, nil
}

func (e *FeatureEngineer) recentChangeFlag(f *core.Frame) ([]float64, error) {
	sincePromo, err := f.RequireFloat(e.Name(), core.ColYearsSincePromotion)
	if err != nil {
		return nil, err
	}
	current, err := f.RequireFloat(e.Name(), core.ColCurrentEvaluation)
	if err != nil {
		return nil, err
	}
	previous, err := f.RequireFloat(e.Name(), core.ColPreviousEvaluation)
	if err != nil {
		return nil, err
	}
	out := make([]float64, f.Len())
	for i := range out {
		// NaN 比较恒为 false，缺失值自然得到 0
		if sincePromo[i] <= 1 && current[i]-previous[i] < 0 {
			out[i] = 1
		}
	}
	return out, nil
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
