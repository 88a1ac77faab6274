package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/pkg/conv"
	"github.com/rushteam/attrition/pkg/dsl"
)

// EvalNumberPrefix 是 eval_number 的前缀，例如 "E_12" 对应 id_employee 12
const EvalNumberPrefix = "E_"

// Paths 三个原始数据源的位置（本地路径或 HTTP(S) URL）
type Paths struct {
	SIRH   string `yaml:"sirh" json:"sirh" validate:"required"`
	Eval   string `yaml:"eval" json:"eval" validate:"required"`
	Survey string `yaml:"survey" json:"survey" validate:"required"`
}

// Dataset 是合并、定型后的批次及其标签（推理数据没有标签）
type Dataset struct {
	Frame  *core.Frame
	Labels []int
}

// Len 返回记录数
func (d *Dataset) Len() int { return d.Frame.Len() }

// Subset 按行下标取子集
func (d *Dataset) Subset(rows []int) *Dataset {
	out := &Dataset{Frame: d.Frame.Subset(rows)}
	if d.Labels != nil {
		out.Labels = make([]int, len(rows))
		for i, r := range rows {
			out.Labels[i] = d.Labels[r]
		}
	}
	return out
}

// Loader 读取 sirh / eval / sondage 三个抽取文件并合并为一个批次：
//
//	sirh.id_employee = int(eval.eval_number 去掉 "E_") = sondage.code_sondage
//
// 三个数据源并发读取；合并为内连接，保持 sirh 的行序。
type Loader struct {
	paths  Paths
	local  Fetcher
	remote Fetcher
	filter *dsl.RecordFilter
	logger *slog.Logger
}

// LoaderOption 加载器配置选项
type LoaderOption func(*Loader)

// WithLoaderLogger 设置日志
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithHTTPFetcher 设置 HTTP(S) 数据源的读取方式
func WithHTTPFetcher(f Fetcher) LoaderOption {
	return func(l *Loader) {
		if f != nil {
			l.remote = f
		}
	}
}

// WithFilter 只保留满足过滤表达式的记录
func WithFilter(filter *dsl.RecordFilter) LoaderOption {
	return func(l *Loader) {
		l.filter = filter
	}
}

// NewLoader 创建加载器
func NewLoader(paths Paths, opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:  paths,
		local:  FileFetcher{},
		remote: NewHTTPFetcher(0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load 读取、合并、定型并过滤数据
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	start := time.Now()

	var sirh, eval, survey []map[string]string
	eg, egCtx := errgroup.WithContext(ctx)
	for _, src := range []struct {
		location string
		out      *[]map[string]string
	}{
		{l.paths.SIRH, &sirh},
		{l.paths.Eval, &eval},
		{l.paths.Survey, &survey},
	} {
		src := src
		eg.Go(func() error {
			rows, err := l.read(egCtx, src.location)
			if err != nil {
				return err
			}
			*src.out = rows
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	records, err := Merge(sirh, eval, survey)
	if err != nil {
		return nil, err
	}
	frame, labels, err := BuildFrame(records)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Frame: frame, Labels: labels}

	if l.filter != nil && l.filter.Expr() != "" {
		ds, err = Filter(ds, l.filter)
		if err != nil {
			return nil, err
		}
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		"sirh", len(sirh),
		"eval", len(eval),
		"survey", len(survey),
		"merged", len(records),
		"rows", ds.Len(),
		"columns", len(ds.Frame.Columns()),
		"duration", time.Since(start))
	return ds, nil
}

func (l *Loader) read(ctx context.Context, location string) ([]map[string]string, error) {
	fetcher := l.local
	if isRemote(location) {
		fetcher = l.remote
	}
	rc, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	rows, err := ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return rows, nil
}

// Merge 内连接三张表并去掉连接键 eval_number、code_sondage。
// 键重复时与关系型内连接一致，产生所有组合。
func Merge(sirh, eval, survey []map[string]string) ([]map[string]string, error) {
	evalIndex, err := indexBy(eval, core.ColEvalNumber, EvalNumberPrefix)
	if err != nil {
		return nil, err
	}
	surveyIndex, err := indexBy(survey, core.ColSurveyCode, "")
	if err != nil {
		return nil, err
	}

	var out []map[string]string
	for i, emp := range sirh {
		id, err := conv.ParsePrefixedInt(emp[string(core.ColEmployeeID)], "")
		if err != nil {
			return nil, datasetError(core.ColEmployeeID, "sirh row %d: %v", i, err)
		}
		for _, ev := range evalIndex[id] {
			for _, sv := range surveyIndex[id] {
				rec := make(map[string]string, len(emp)+len(ev)+len(sv))
				for _, part := range []map[string]string{emp, ev, sv} {
					for k, v := range part {
						rec[k] = v
					}
				}
				delete(rec, string(core.ColEvalNumber))
				delete(rec, string(core.ColSurveyCode))
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func indexBy(rows []map[string]string, key core.Column, prefix string) (map[int64][]map[string]string, error) {
	index := make(map[int64][]map[string]string, len(rows))
	for i, row := range rows {
		id, err := conv.ParsePrefixedInt(row[string(key)], prefix)
		if err != nil {
			return nil, datasetError(key, "row %d: %v", i, err)
		}
		index[id] = append(index[id], row)
	}
	return index, nil
}

// Filter 返回满足过滤表达式的子集
func Filter(ds *Dataset, filter *dsl.RecordFilter) (*Dataset, error) {
	rows := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		ok, err := filter.Match(ds.Frame.Record(i))
		if err != nil {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("filter %q on row %d: %v", filter.Expr(), i, err))
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return ds.Subset(rows), nil
}
