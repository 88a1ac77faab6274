package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/attrition/dataset"
	"github.com/rushteam/attrition/model"
	"github.com/rushteam/attrition/pkg/dsl"
	"github.com/rushteam/attrition/store"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		paths    dataset.Paths
		filter   string
		modelKey string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Load the three extracts, fit the pipeline and classifier, report on the held-out split and save the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			overridePaths(&cfg.Data.Sources, paths)
			if filter != "" {
				cfg.Data.Filter = filter
			}
			if modelKey != "" {
				cfg.Training.ModelKey = modelKey
			}

			ds, err := loadDataset(cmd, a, cfg.Data.Sources, cfg.Data.Filter)
			if err != nil {
				return err
			}
			train, test, err := ds.Split(cfg.Training.TestSize, cfg.Training.Seed)
			if err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "split dataset", "train", train.Len(), "test", test.Len())

			m, err := model.Train(ctx, train.Frame, train.Labels, cfg.TrainParams(), model.WithLogger(a.logger))
			if err != nil {
				return err
			}
			report, err := m.Evaluate(ctx, test.Frame, test.Labels)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.String())

			s, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := m.Save(ctx, s, cfg.Training.ModelKey, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nmodel %s saved to %s:%s\n", m.ID, s.Name(), cfg.Training.ModelKey)
			return nil
		},
	}
	addPathFlags(cmd, &paths)
	cmd.Flags().StringVar(&filter, "filter", "", `CEL expression selecting training records, e.g. 'record.departement == "Commercial"'`)
	cmd.Flags().StringVar(&modelKey, "model-key", "", "store key for the saved model")
	return cmd
}

func addPathFlags(cmd *cobra.Command, paths *dataset.Paths) {
	cmd.Flags().StringVar(&paths.SIRH, "sirh", "", "path or URL of extrait_sirh.csv")
	cmd.Flags().StringVar(&paths.Eval, "eval", "", "path or URL of extrait_eval.csv")
	cmd.Flags().StringVar(&paths.Survey, "survey", "", "path or URL of extrait_sondage.csv")
}

func overridePaths(dst *dataset.Paths, src dataset.Paths) {
	if src.SIRH != "" {
		dst.SIRH = src.SIRH
	}
	if src.Eval != "" {
		dst.Eval = src.Eval
	}
	if src.Survey != "" {
		dst.Survey = src.Survey
	}
}

// loadDataset 加载三个抽取文件；filterExpr 为空时保留全部记录
func loadDataset(cmd *cobra.Command, a *app, paths dataset.Paths, filterExpr string) (*dataset.Dataset, error) {
	filter, err := dsl.NewRecordFilter(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	loader := dataset.NewLoader(paths,
		dataset.WithLoaderLogger(a.logger),
		dataset.WithHTTPFetcher(dataset.NewHTTPFetcher(a.cfg.Data.HTTPTimeout)),
		dataset.WithFilter(filter),
	)
	return loader.Load(cmd.Context())
}
