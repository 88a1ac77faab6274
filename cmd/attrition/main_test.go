package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/attrition/dataset/datasettest"
)

func writeCSV(t *testing.T, path string, rows []map[string]string) {
	t.Helper()
	var header []string
	for k := range rows[0] {
		header = append(header, k)
	}
	sort.Strings(header)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
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
}

// setup 写出三个抽取文件与配置文件，返回配置路径与工作目录
func setup(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	sirh, eval, survey := datasettest.Split(datasettest.Records(150, 21))
	writeCSV(t, filepath.Join(dir, "sirh.csv"), sirh)
	writeCSV(t, filepath.Join(dir, "eval.csv"), eval)
	writeCSV(t, filepath.Join(dir, "sondage.csv"), survey)

	cfg := fmt.Sprintf(`
data:
  sources:
    sirh: %[1]s/sirh.csv
    eval: %[1]s/eval.csv
    survey: %[1]s/sondage.csv
store:
  type: file
  dir: %[1]s/models
log:
  level: warn
`, dir)
	path := filepath.Join(dir, "attrition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrainPredictInspect(t *testing.T) {
	cfgPath, dir := setup(t)
	metrics := filepath.Join(dir, "metrics.prom")

	out, err := run(t, "train", "-c", cfgPath, "--metrics-file", metrics)
	require.NoError(t, err)
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "Reste")
	assert.Contains(t, out, "Part")
	assert.Contains(t, out, "saved to file:attrition/model.json")
	assert.FileExists(t, filepath.Join(dir, "models", "attrition", "model.json"))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "attrition_model_train_runs_total")
	assert.Contains(t, string(prom), "attrition_pipeline_step_duration_seconds")

	out, err = run(t, "predict", "-c", cfgPath)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 151)
	assert.Equal(t, []string{"id_employee", "probability", "prediction"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	for _, row := range rows[1:] {
		assert.Contains(t, []string{"Reste", "Part"}, row[2])
	}

	out, err = run(t, "inspect", "-c", cfgPath)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got["id"])
	assert.NotEmpty(t, got["selected"])
	assert.Contains(t, got, "poste_median_salary")
	assert.Contains(t, got, "coefficients")
}

func TestTrain_WithFilter(t *testing.T) {
	cfgPath, dir := setup(t)
	out, err := run(t, "train", "-c", cfgPath,
		"--filter", `record.departement != "Ressources Humaines"`,
		"--model-key", "filtered.json")
	require.NoError(t, err)
	assert.Contains(t, out, "file:filtered.json")
	assert.FileExists(t, filepath.Join(dir, "models", "filtered.json"))
}

func TestPredict_IgnoresTrainingFilter(t *testing.T) {
	cfgPath, _ := setup(t)
	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	withFilter := strings.Replace(string(raw), "data:\n",
		"data:\n  filter: 'record.departement == \"Commercial\"'\n", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(withFilter), 0o644))

	_, err = run(t, "train", "-c", cfgPath)
	require.NoError(t, err)

	out, err := run(t, "predict", "-c", cfgPath)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 151, "every employee is scored, not only the training department")
}

func TestPredict_NoModel(t *testing.T) {
	cfgPath, _ := setup(t)
	_, err := run(t, "predict", "-c", cfgPath, "--model-key", "absent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.json")
}

func TestPredict_FeastRequiresConfig(t *testing.T) {
	cfgPath, _ := setup(t)
	_, err := run(t, "train", "-c", cfgPath)
	require.NoError(t, err)
	_, err = run(t, "predict", "-c", cfgPath, "--feast-ids", "1,2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feast")
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "inspect", "-c", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPredict_HelpWarnsAboutBatchStatistics(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"predict"})
	require.NoError(t, err)
	assert.Contains(t, cmd.Long, "95th-percentile distance of the scored batch")
	assert.Contains(t, cmd.Long, "data.filter only applies to training")
}
