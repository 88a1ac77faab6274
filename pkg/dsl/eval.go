package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境：一个 record 变量，字段为原始列名
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// RecordFilter 是记录过滤器，使用 CEL (Common Expression Language) 表达式。
// 表达式在创建时编译一次，之后可被多个 goroutine 并发调用 Match。
//
// 表达式语法（CEL 标准语法），record 的字段即原始列名，数值列为 double，缺失值为 null：
//   - 类别：record.departement == "Commercial"
//   - 数值：record.age >= 30 && record.revenu_mensuel < 5000
//   - 缺失：record.distance_domicile_travail != null
//   - 包含：record.poste.contains("Manager") / record.genre in ["F", "M"]
type RecordFilter struct {
	expr string
	prg  cel.Program
}

// NewRecordFilter 编译表达式。空表达式匹配所有记录。
func NewRecordFilter(expr string) (*RecordFilter, error) {
	f := &RecordFilter{expr: expr}
	if expr == "" {
		return f, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return boolean, got %v", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	f.prg = prg
	return f, nil
}

// Expr 返回原始表达式
func (f *RecordFilter) Expr() string { return f.expr }

// Match 判断记录是否满足表达式。
// 访问不存在的字段会返回错误；用 has(record.key) 检查存在性。
func (f *RecordFilter) Match(record map[string]any) (bool, error) {
	if f.prg == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(map[string]any{"record": record})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}
