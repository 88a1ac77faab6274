package feast

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/attrition/core"
	"github.com/rushteam/attrition/dataset"
)

// RecordSource 从 Feast 在线存储按员工 ID 读取原始属性，产出与 CSV 加载结果相同形状的批次。
// 每个原始列对应特征视图中同名的特征：<FeatureView>:<列名>。
type RecordSource struct {
	client      Client
	featureView string
	entityKey   string
	columns     []core.Column
}

// NewRecordSource 创建在线记录源，columns 为空时读取 core.Schema 中除 id_employee 外的所有列
func NewRecordSource(client Client, featureView, entityKey string, columns []core.Column) *RecordSource {
	if entityKey == "" {
		entityKey = string(core.ColEmployeeID)
	}
	if len(columns) == 0 {
		for _, spec := range core.Schema {
			if spec.Name != core.ColEmployeeID {
				columns = append(columns, spec.Name)
			}
		}
	}
	return &RecordSource{client: client, featureView: featureView, entityKey: entityKey, columns: columns}
}

// Features 返回请求的特征引用
func (s *RecordSource) Features() []string {
	refs := make([]string, len(s.columns))
	for i, c := range s.columns {
		refs[i] = s.featureView + ":" + string(c)
	}
	return refs
}

// Fetch 读取一组员工的原始记录。在线存储中缺失的特征按缺失值处理。
func (s *RecordSource) Fetch(ctx context.Context, ids []int64) (*dataset.Dataset, error) {
	if len(ids) == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "no entity ids to fetch")
	}
	rows := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		rows[i] = map[string]interface{}{s.entityKey: id}
	}
	resp, err := s.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   s.Features(),
		EntityRows: rows,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) != len(ids) {
		return nil, fmt.Errorf("feast returned %d rows for %d entities", len(resp.FeatureVectors), len(ids))
	}

	records := make([]map[string]string, len(ids))
	for i, fv := range resp.FeatureVectors {
		rec := map[string]string{string(core.ColEmployeeID): strconv.FormatInt(ids[i], 10)}
		for ref, v := range fv.Values {
			rec[strings.TrimPrefix(ref, s.featureView+":")] = formatValue(v)
		}
		// 请求了但未返回的列按缺失值处理，保证列集合固定
		for _, c := range s.columns {
			if _, ok := rec[string(c)]; !ok {
				rec[string(c)] = ""
			}
		}
		records[i] = rec
	}

	frame, labels, err := dataset.BuildFrame(records)
	if err != nil {
		return nil, err
	}
	return &dataset.Dataset{Frame: frame, Labels: labels}, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
