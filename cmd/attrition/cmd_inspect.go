package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/attrition/model"
	"github.com/rushteam/attrition/pipeline"
	"github.com/rushteam/attrition/store"
)

// inspection 是 inspect 输出的 YAML 结构
type inspection struct {
	ID               string                      `yaml:"id"`
	CreatedAt        string                      `yaml:"created_at"`
	Features         []string                    `yaml:"features"`
	Selected         []string                    `yaml:"selected"`
	Threshold        float64                     `yaml:"selection_threshold"`
	JobMedian        map[string]float64          `yaml:"poste_median_salary"`
	DepartmentMedian map[string]float64          `yaml:"department_median_salary"`
	OneHot           map[string][]string         `yaml:"onehot_categories"`
	Label            map[string][]string         `yaml:"label_classes"`
	Coefficients     map[string]float64          `yaml:"coefficients"`
	Intercept        float64                     `yaml:"intercept"`
	Report           *model.ClassificationReport `yaml:"report,omitempty"`
	Pipeline         *pipeline.Config            `yaml:"pipeline"`
}

func newInspectCmd(a *app) *cobra.Command {
	var modelKey string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print what a saved model learned: medians, vocabularies, selected features, coefficients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if modelKey == "" {
				modelKey = a.cfg.Training.ModelKey
			}
			s, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()

			art, err := model.LoadArtifact(ctx, s, modelKey)
			if err != nil {
				return err
			}
			m, err := art.Model(model.WithLogger(a.logger))
			if err != nil {
				return err
			}

			out := inspection{
				ID:           m.ID,
				CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				Features:     m.Preprocessor.FeatureNames(),
				Selected:     m.SelectedFeatures(),
				Threshold:    m.Selector.Threshold,
				OneHot:       map[string][]string{},
				Label:        map[string][]string{},
				Coefficients: map[string]float64{},
				Intercept:    m.Classifier.Intercept,
				Report:       art.Report,
				Pipeline:     m.Preprocessor.Config(),
			}
			out.JobMedian, out.DepartmentMedian, _ = m.Preprocessor.SalaryMedians()
			ct := m.Preprocessor.ColumnTransformer()
			for c, cats := range ct.OneHot.Categories {
				out.OneHot[string(c)] = cats
			}
			for c, classes := range ct.Label.Classes {
				out.Label[string(c)] = classes
			}
			for j, name := range m.SelectedFeatures() {
				out.Coefficients[name] = m.Classifier.Coef[j]
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&modelKey, "model-key", "", "store key of the model to inspect")
	return cmd
}
