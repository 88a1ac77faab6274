package dataset_test

import (
	"context"
	"encoding/csv"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/dataset"
	"github.com/rushteam/attrition/dataset/datasettest"
	"github.com/rushteam/attrition/pkg/dsl"
)

// encodeCSV 按排序后的表头把记录编码为 CSV 文本
func encodeCSV(t *testing.T, rows []map[string]string) string {
	t.Helper()
	var header []string
	for k := range rows[0] {
		header = append(header, k)
	}
	sort.Strings(header)

	var b strings.Builder
	w := csv.NewWriter(&b)
	require.NoError(t, w.Write(header))
	for _, row := range rows {
		rec := make([]string, len(header))
		for i, h := range header {
			rec[i] = row[h]
		}
		require.NoError(t, w.Write(rec))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return b.String()
}

func writeSources(t *testing.T, records []map[string]string) dataset.Paths {
	t.Helper()
	dir := t.TempDir()
	sirh, eval, survey := datasettest.Split(records)
	paths := dataset.Paths{
		SIRH:   filepath.Join(dir, "extrait_sirh.csv"),
		Eval:   filepath.Join(dir, "extrait_eval.csv"),
		Survey: filepath.Join(dir, "extrait_sondage.csv"),
	}
	require.NoError(t, os.WriteFile(paths.SIRH, []byte(encodeCSV(t, sirh)), 0o644))
	require.NoError(t, os.WriteFile(paths.Eval, []byte(encodeCSV(t, eval)), 0o644))
	require.NoError(t, os.WriteFile(paths.Survey, []byte(encodeCSV(t, survey)), 0o644))
	return paths
}

func TestMerge(t *testing.T) {
	sirh := []map[string]string{
		{"id_employee": "1", "age": "41"},
		{"id_employee": "2", "age": "49"},
		{"id_employee": "3", "age": "37"},
	}
	eval := []map[string]string{
		{"eval_number": "E_2", "heure_supplementaires": "Non"},
		{"eval_number": "E_1", "heure_supplementaires": "Oui"},
	}
	survey := []map[string]string{
		{"code_sondage": "1", "a_quitte_l_entreprise": "Oui"},
		{"code_sondage": "2", "a_quitte_l_entreprise": "Non"},
		{"code_sondage": "3", "a_quitte_l_entreprise": "Non"},
	}

	got, err := dataset.Merge(sirh, eval, survey)
	require.NoError(t, err)
	require.Len(t, got, 2, "employee 3 has no evaluation")

	assert.Equal(t, "1", got[0]["id_employee"])
	assert.Equal(t, "Oui", got[0]["heure_supplementaires"])
	assert.Equal(t, "Oui", got[0]["a_quitte_l_entreprise"])
	assert.Equal(t, "2", got[1]["id_employee"])
	for _, rec := range got {
		assert.NotContains(t, rec, "eval_number")
		assert.NotContains(t, rec, "code_sondage")
	}
}

func TestMerge_BadKey(t *testing.T) {
	_, err := dataset.Merge(
		[]map[string]string{{"id_employee": "1"}},
		[]map[string]string{{"eval_number": "X-1"}},
		nil,
	)
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
	assert.Equal(t, "eval_number", core.GetDomainError(err).Column)
}

func TestBuildFrame(t *testing.T) {
	records := []map[string]string{
		{"age": "41", "augementation_salaire_precedente": "11 %", "genre": " F ", "a_quitte_l_entreprise": "Oui"},
		{"age": "", "augementation_salaire_precedente": "23 %", "genre": "M", "a_quitte_l_entreprise": "Non"},
	}
	frame, labels, err := dataset.BuildFrame(records)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, labels)

	age, ok := frame.Float(core.ColAge)
	require.True(t, ok)
	assert.Equal(t, 41.0, age[0])
	assert.True(t, math.IsNaN(age[1]))

	pct, _ := frame.Float(core.ColPreviousSalaryIncreasePc)
	assert.Equal(t, []float64{11, 23}, pct)

	gender, _ := frame.String(core.ColGender)
	assert.Equal(t, []string{"F", "M"}, gender)

	assert.False(t, frame.Has(core.ColMonthlyIncome), "absent columns are skipped")
	assert.False(t, frame.Has(core.ColAttrition), "label is not a feature column")
}

func TestBuildFrame_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]string
		column core.Column
	}{
		{"bad number", map[string]string{"age": "forty"}, core.ColAge},
		{"bad label", map[string]string{"a_quitte_l_entreprise": "Peut-être"}, core.ColAttrition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := dataset.BuildFrame([]map[string]string{tt.record})
			require.Error(t, err)
			assert.True(t, core.IsSchemaError(err))
			assert.Equal(t, string(tt.column), core.GetDomainError(err).Column)
		})
	}
}

func TestBuildFrame_NoLabels(t *testing.T) {
	_, labels, err := dataset.BuildFrame([]map[string]string{{"age": "30"}})
	require.NoError(t, err)
	assert.Nil(t, labels)
}

func TestLoader_Local(t *testing.T) {
	records := datasettest.Records(25, 3)
	paths := writeSources(t, records)

	ds, err := dataset.NewLoader(paths).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, ds.Len())
	require.Len(t, ds.Labels, 25)

	want, err := dataset.ParseLabels(records)
	require.NoError(t, err)
	assert.Equal(t, want, ds.Labels)

	ids, _ := ds.Frame.Float(core.ColEmployeeID)
	for i, id := range ids {
		assert.Equal(t, float64(i+1), id, "sirh order is preserved")
	}
	for _, spec := range core.Schema {
		assert.True(t, ds.Frame.Has(spec.Name), spec.Name)
	}
}

func TestLoader_Filter(t *testing.T) {
	paths := writeSources(t, datasettest.Records(30, 3))
	filter, err := dsl.NewRecordFilter(`record.departement == "Commercial"`)
	require.NoError(t, err)

	ds, err := dataset.NewLoader(paths, dataset.WithFilter(filter)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, ds.Len())
	assert.Len(t, ds.Labels, 10)
	depts, _ := ds.Frame.String(core.ColDepartment)
	for _, d := range depts {
		assert.Equal(t, "Commercial", d)
	}
}

func TestLoader_HTTP(t *testing.T) {
	records := datasettest.Records(12, 9)
	sirh, eval, survey := datasettest.Split(records)
	files := map[string]string{
		"/sirh.csv":    encodeCSV(t, sirh),
		"/eval.csv":    encodeCSV(t, eval),
		"/sondage.csv": encodeCSV(t, survey),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	loader := dataset.NewLoader(dataset.Paths{
		SIRH:   srv.URL + "/sirh.csv",
		Eval:   srv.URL + "/eval.csv",
		Survey: srv.URL + "/sondage.csv",
	}, dataset.WithHTTPFetcher(dataset.NewHTTPFetcherWithClient(srv.Client())))
	ds, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, ds.Len())

	_, err = dataset.NewLoader(dataset.Paths{
		SIRH:   srv.URL + "/missing.csv",
		Eval:   srv.URL + "/eval.csv",
		Survey: srv.URL + "/sondage.csv",
	}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := dataset.NewLoader(dataset.Paths{SIRH: "nope.csv", Eval: "nope.csv", Survey: "nope.csv"}).
		Load(context.Background())
	assert.Error(t, err)
}

func TestStratifiedSplit(t *testing.T) {
	labels := make([]int, 100)
	for i := 0; i < 16; i++ {
		labels[i*6] = 1
	}

	train, test, err := dataset.StratifiedSplit(labels, 0.2, dataset.DefaultSeed)
	require.NoError(t, err)
	assert.Len(t, test, 20)
	assert.Len(t, train, 80)
	assert.True(t, sort.IntsAreSorted(train))
	assert.True(t, sort.IntsAreSorted(test))

	positives := 0
	for _, i := range test {
		positives += labels[i]
	}
	// 20 × 16/100 = 3.2
	assert.Equal(t, 3, positives)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)

	train2, test2, err := dataset.StratifiedSplit(labels, 0.2, dataset.DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestStratifiedSplit_Rounding(t *testing.T) {
	// n=7, 测试集 ceil(1.4)=2，两类各按比例 1.14 / 0.86 → 各 1
	labels := []int{0, 0, 0, 0, 1, 1, 1}
	_, test, err := dataset.StratifiedSplit(labels, 0.2, 1)
	require.NoError(t, err)
	require.Len(t, test, 2)
	assert.Equal(t, 1, labels[test[0]]+labels[test[1]])
}

func TestStratifiedSplit_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		labels   []int
		testSize float64
	}{
		{"zero test size", []int{0, 1, 0, 1}, 0},
		{"whole set", []int{0, 1, 0, 1}, 1},
		{"too few records", []int{0}, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := dataset.StratifiedSplit(tt.labels, tt.testSize, 42)
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
		})
	}
}

func TestDataset_Split(t *testing.T) {
	ds := datasettest.Dataset(50, 2)
	train, test, err := ds.Split(dataset.DefaultTestSize, dataset.DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 40, train.Len())
	assert.Equal(t, 10, test.Len())
	assert.Len(t, test.Labels, 10)

	unlabeled := &dataset.Dataset{Frame: ds.Frame}
	_, _, err = unlabeled.Split(0.2, 42)
	assert.True(t, core.IsInvalidInput(err))
}
