package core

// Column 是列标识符。原始列名与数据源 CSV 表头保持一致（法语字段名），
// 所有代码都通过这里的常量访问列，避免散落的字符串。
type Column string

// ColumnKind 标记列的取值类型
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"     // float64，NaN 表示缺失
	KindCategorical ColumnKind = "categorical" // string
)

// Table 标记原始列来自哪个数据源
type Table string

const (
	TableSIRH   Table = "sirh"    // 人事主档
	TableEval   Table = "eval"    // 绩效评估
	TableSurvey Table = "sondage" // 员工调查
)

// 人事主档（sirh）
const (
	ColEmployeeID           Column = "id_employee"
	ColAge                  Column = "age"
	ColGender               Column = "genre"
	ColMonthlyIncome        Column = "revenu_mensuel"
	ColMaritalStatus        Column = "statut_marital"
	ColDepartment           Column = "departement"
	ColJobTitle             Column = "poste"
	ColPreviousCompanies    Column = "nombre_experiences_precedentes"
	ColWorkingHours         Column = "nombre_heures_travailless"
	ColTotalExperienceYears Column = "annee_experience_totale"
	ColYearsAtCompany       Column = "annees_dans_l_entreprise"
	ColYearsInCurrentRole   Column = "annees_dans_le_poste_actuel"
)

// 绩效评估（eval）
const (
	ColEvalNumber               Column = "eval_number"
	ColEnvironmentSatisfaction  Column = "satisfaction_employee_environnement"
	ColPreviousEvaluation       Column = "note_evaluation_precedente"
	ColJobLevel                 Column = "niveau_hierarchique_poste"
	ColWorkNatureSatisfaction   Column = "satisfaction_employee_nature_travail"
	ColTeamSatisfaction         Column = "satisfaction_employee_equipe"
	ColWorkLifeSatisfaction     Column = "satisfaction_employee_equilibre_pro_perso"
	ColCurrentEvaluation        Column = "note_evaluation_actuelle"
	ColOvertime                 Column = "heure_supplementaires"
	ColPreviousSalaryIncreasePc Column = "augementation_salaire_precedente"
)

// 员工调查（sondage）
const (
	ColSurveyCode               Column = "code_sondage"
	ColAttrition                Column = "a_quitte_l_entreprise"
	ColSavingsPlanParticipation Column = "nombre_participation_pee"
	ColTrainingsCompleted       Column = "nb_formations_suivies"
	ColDirectReports            Column = "nombre_employee_sous_responsabilite"
	ColCommuteDistance          Column = "distance_domicile_travail"
	ColEducationLevel           Column = "niveau_education"
	ColFieldOfStudy             Column = "domaine_etude"
	ColHasChildren              Column = "ayant_enfants"
	ColTravelFrequency          Column = "frequence_deplacement"
	ColYearsSincePromotion      Column = "annees_depuis_la_derniere_promotion"
	ColYearsWithManager         Column = "annes_sous_responsable_actuel"
)

// 派生列
const (
	ColSatisfactionAverage Column = "satisfaction_moyenne"
	ColTimeInRoleRatio     Column = "time_in_current_role_ratio"
	ColFamilyConflict      Column = "family_conflict"
	ColTrainingRatePerYear Column = "training_rate_per_year"
	ColRecentChangeFlag    Column = "recent_change_flag"
	ColRelativePromoDelay  Column = "relative_promo_delay"
	ColSalaryToJobMedian   Column = "salary_to_poste_median"
	ColSalaryToDeptMedian  Column = "salary_to_dept_median"
)

// ColumnSpec 描述一个原始列
type ColumnSpec struct {
	Name  Column
	Kind  ColumnKind
	Table Table
}

// Schema 是合并后原始批次的固定列集合（不含 eval_number / code_sondage 这两个连接键）。
var Schema = []ColumnSpec{
	{ColEmployeeID, KindNumeric, TableSIRH},
	{ColAge, KindNumeric, TableSIRH},
	{ColGender, KindCategorical, TableSIRH},
	{ColMonthlyIncome, KindNumeric, TableSIRH},
	{ColMaritalStatus, KindCategorical, TableSIRH},
	{ColDepartment, KindCategorical, TableSIRH},
	{ColJobTitle, KindCategorical, TableSIRH},
	{ColPreviousCompanies, KindNumeric, TableSIRH},
	{ColWorkingHours, KindNumeric, TableSIRH},
	{ColTotalExperienceYears, KindNumeric, TableSIRH},
	{ColYearsAtCompany, KindNumeric, TableSIRH},
	{ColYearsInCurrentRole, KindNumeric, TableSIRH},

	{ColEnvironmentSatisfaction, KindNumeric, TableEval},
	{ColPreviousEvaluation, KindNumeric, TableEval},
	{ColJobLevel, KindNumeric, TableEval},
	{ColWorkNatureSatisfaction, KindNumeric, TableEval},
	{ColTeamSatisfaction, KindNumeric, TableEval},
	{ColWorkLifeSatisfaction, KindNumeric, TableEval},
	{ColCurrentEvaluation, KindNumeric, TableEval},
	{ColOvertime, KindCategorical, TableEval},
	{ColPreviousSalaryIncreasePc, KindNumeric, TableEval},

	{ColSavingsPlanParticipation, KindNumeric, TableSurvey},
	{ColTrainingsCompleted, KindNumeric, TableSurvey},
	{ColDirectReports, KindNumeric, TableSurvey},
	{ColCommuteDistance, KindNumeric, TableSurvey},
	{ColEducationLevel, KindNumeric, TableSurvey},
	{ColFieldOfStudy, KindCategorical, TableSurvey},
	{ColHasChildren, KindCategorical, TableSurvey},
	{ColTravelFrequency, KindCategorical, TableSurvey},
	{ColYearsSincePromotion, KindNumeric, TableSurvey},
	{ColYearsWithManager, KindNumeric, TableSurvey},
}

// LookupColumn 返回原始列的描述
func LookupColumn(name Column) (ColumnSpec, bool) {
	for _, spec := range Schema {
		if spec.Name == name {
			return spec, true
		}
	}
	return ColumnSpec{}, false
}

// Columns 把字符串列表转换为 Column 列表（配置文件中的列名）。
func Columns(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column(n)
	}
	return out
}
