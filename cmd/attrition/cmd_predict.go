package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/dataset"
	"github.com/rushteam/attrition/feast"
	"github.com/rushteam/attrition/model"
	"github.com/rushteam/attrition/store"
)

// predictionRow 是 predict 的 CSV 输出行
type predictionRow struct {
	EmployeeID  string  `csv:"id_employee"`
	Probability float64 `csv:"probability"`
	Prediction  string  `csv:"prediction"`
}

func newPredictCmd(a *app) *cobra.Command {
	var (
		paths    dataset.Paths
		feastIDs string
		modelKey string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score employees with a saved model (from CSV extracts or a Feast online store) and print CSV",
		Long: `Score employees with a saved model and print id_employee,probability,prediction as CSV.

Every employee in the extracts is scored; data.filter only applies to training.

Note: family_conflict compares each salary and commute distance with the median salary
and 95th-percentile distance of the scored batch itself. Scoring a single employee
(for example one --feast-ids entry) yields a salary term of 0 and, for any non-zero
distance, the full distance term, so score batches rather than individual records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if modelKey == "" {
				modelKey = cfg.Training.ModelKey
			}

			s, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()
			m, err := model.Load(ctx, s, modelKey, model.WithLogger(a.logger))
			if err != nil {
				return err
			}

			var ds *dataset.Dataset
			if feastIDs != "" {
				ds, err = fetchFromFeast(cmd, a, feastIDs)
			} else {
				overridePaths(&cfg.Data.Sources, paths)
				// data.filter 只圈定训练数据，打分覆盖全部员工
				ds, err = loadDataset(cmd, a, cfg.Data.Sources, "")
			}
			if err != nil {
				return err
			}

			proba, err := m.PredictProba(ctx, ds.Frame)
			if err != nil {
				return err
			}
			ids, _ := ds.Frame.Float(core.ColEmployeeID)
			rows := make([]*predictionRow, len(proba))
			for i, p := range proba {
				row := &predictionRow{Probability: p, Prediction: model.DefaultClassNames[0]}
				if p >= 0.5 {
					row.Prediction = model.DefaultClassNames[1]
				}
				if ids != nil && !math.IsNaN(ids[i]) {
					row.EmployeeID = strconv.FormatFloat(ids[i], 'f', -1, 64)
				}
				rows[i] = row
			}
			return gocsv.Marshal(&rows, cmd.OutOrStdout())
		},
	}
	addPathFlags(cmd, &paths)
	cmd.Flags().StringVar(&feastIDs, "feast-ids", "", "comma-separated employee ids to fetch from the Feast online store")
	cmd.Flags().StringVar(&modelKey, "model-key", "", "store key of the model to use")
	return cmd
}

func fetchFromFeast(cmd *cobra.Command, a *app, rawIDs string) (*dataset.Dataset, error) {
	if a.cfg.Feast == nil {
		return nil, fmt.Errorf("--feast-ids requires a feast section in the config")
	}
	var ids []int64
	for _, part := range strings.Split(rawIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid employee id %q", part)
		}
		ids = append(ids, id)
	}
	source, client, err := feast.NewRecordSourceFromConfig(*a.cfg.Feast)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return source.Fetch(cmd.Context(), ids)
}
