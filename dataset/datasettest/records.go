// Package datasettest 生成确定性的合成员工记录，覆盖 core.Schema 的全部列，供各包测试使用。
package datasettest

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/dataset"
)

var (
	Jobs        = []string{"Cadre Commercial", "Consultant", "Manager", "Représentant Commercial", "Ressources Humaines"}
	Departments = []string{"Commercial", "Consulting", "Ressources Humaines"}
	Marital     = []string{"Célibataire", "Marié(e)", "Divorcé(e)"}
	Fields      = []string{"Entrepreunariat", "Infra & Cloud", "Marketing", "Transformation Digitale"}
	Travel      = []string{"Aucun", "Occasionnel", "Frequent"}
	Genders     = []string{"F", "M"}
)

var baseSalary = map[string]float64{
	"Cadre Commercial":        6500,
	"Consultant":              3200,
	"Manager":                 15000,
	"Représentant Commercial": 2600,
	"Ressources Humaines":     4200,
}

// Records 生成 n 条已合并的原始记录（含标签列）。类别按行号轮转，前几行即覆盖全部类别。
// 离职标签与加班、薪资、满意度相关，逻辑回归可以学到。
func Records(n int, seed int64) []map[string]string {
	rng := rand.New(rand.NewSource(seed))
	out := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		job := Jobs[i%len(Jobs)]
		overtime := "Non"
		if rng.Float64() < 0.35 {
			overtime = "Oui"
		}
		tenure := rng.Intn(15)
		salary := baseSalary[job] * (0.8 + 0.4*rng.Float64())
		satisfaction := 1 + rng.Intn(4)
		previous := 1 + rng.Intn(4)
		current := 1 + rng.Intn(4)

		score := -1.0
		if overtime == "Oui" {
			score += 1.5
		}
		if satisfaction <= 2 {
			score += 1
		}
		if salary < 3500 {
			score += 0.8
		}
		left := score+rng.NormFloat64()*0.5 > 0.6

		out[i] = map[string]string{
			string(core.ColEmployeeID):           strconv.Itoa(i + 1),
			string(core.ColAge):                  strconv.Itoa(22 + rng.Intn(38)),
			string(core.ColGender):               Genders[i%len(Genders)],
			string(core.ColMonthlyIncome):        strconv.FormatFloat(salary, 'f', 0, 64),
			string(core.ColMaritalStatus):        Marital[i%len(Marital)],
			string(core.ColDepartment):           Departments[i%len(Departments)],
			string(core.ColJobTitle):             job,
			string(core.ColPreviousCompanies):    strconv.Itoa(rng.Intn(9)),
			string(core.ColWorkingHours):         "80",
			string(core.ColTotalExperienceYears): strconv.Itoa(tenure + rng.Intn(10)),
			string(core.ColYearsAtCompany):       strconv.Itoa(tenure),
			string(core.ColYearsInCurrentRole):   strconv.Itoa(rng.Intn(tenure + 1)),

			string(core.ColEnvironmentSatisfaction):  strconv.Itoa(satisfaction),
			string(core.ColPreviousEvaluation):       strconv.Itoa(previous),
			string(core.ColJobLevel):                 strconv.Itoa(1 + rng.Intn(5)),
			string(core.ColWorkNatureSatisfaction):   strconv.Itoa(1 + rng.Intn(4)),
			string(core.ColTeamSatisfaction):         strconv.Itoa(1 + rng.Intn(4)),
			string(core.ColWorkLifeSatisfaction):     strconv.Itoa(1 + rng.Intn(4)),
			string(core.ColCurrentEvaluation):        strconv.Itoa(current),
			string(core.ColOvertime):                 overtime,
			string(core.ColPreviousSalaryIncreasePc): fmt.Sprintf("%d %%", 11+rng.Intn(15)),

			string(core.ColAttrition):                label(left),
			string(core.ColSavingsPlanParticipation): strconv.Itoa(rng.Intn(4)),
			string(core.ColTrainingsCompleted):       strconv.Itoa(rng.Intn(7)),
			string(core.ColDirectReports):            "1",
			string(core.ColCommuteDistance):          strconv.Itoa(1 + rng.Intn(29)),
			string(core.ColEducationLevel):           strconv.Itoa(1 + rng.Intn(5)),
			string(core.ColFieldOfStudy):             Fields[i%len(Fields)],
			string(core.ColHasChildren):              "Y",
			string(core.ColTravelFrequency):          Travel[i%len(Travel)],
			string(core.ColYearsSincePromotion):      strconv.Itoa(rng.Intn(tenure + 1)),
			string(core.ColYearsWithManager):         strconv.Itoa(rng.Intn(tenure + 1)),
		}
	}
	// 保证两类都存在
	if n >= 2 {
		out[0][string(core.ColAttrition)] = dataset.LabelLeft
		out[1][string(core.ColAttrition)] = dataset.LabelStayed
	}
	return out
}

// Dataset 生成 n 条记录并定型，失败时 panic（只在测试中使用）。
func Dataset(n int, seed int64) *dataset.Dataset {
	frame, labels, err := dataset.BuildFrame(Records(n, seed))
	if err != nil {
		panic(err)
	}
	return &dataset.Dataset{Frame: frame, Labels: labels}
}

// Split 把记录拆回 sirh / eval / sondage 三张原始表（带连接键），用于测试合并逻辑。
func Split(records []map[string]string) (sirh, eval, survey []map[string]string) {
	for _, rec := range records {
		s := map[string]string{}
		e := map[string]string{string(core.ColEvalNumber): dataset.EvalNumberPrefix + rec[string(core.ColEmployeeID)]}
		v := map[string]string{string(core.ColSurveyCode): rec[string(core.ColEmployeeID)]}
		for k, val := range rec {
			spec, ok := core.LookupColumn(core.Column(k))
			switch {
			case k == string(core.ColAttrition):
				v[k] = val
			case !ok:
			case spec.Table == core.TableSIRH:
				s[k] = val
			case spec.Table == core.TableEval:
				e[k] = val
			default:
				v[k] = val
			}
		}
		sirh = append(sirh, s)
		eval = append(eval, e)
		survey = append(survey, v)
	}
	return sirh, eval, survey
}

func label(left bool) string {
	if left {
		return dataset.LabelLeft
	}
	return dataset.LabelStayed
}
