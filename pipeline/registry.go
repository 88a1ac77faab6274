package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// StepBuilder 根据 config 构建 Step。
// 各步骤在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type StepBuilder func(config map[string]interface{}) (Step, error)

var (
	defaultBuilders   = make(map[string]StepBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Step 的构建逻辑，供 DefaultFactory 与配置驱动使用。
func Register(typeName string, builder StepBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// StepFactory 用于根据配置构建 Step 实例。
type StepFactory struct {
	builders map[string]StepBuilder
}

func NewStepFactory() *StepFactory {
	return &StepFactory{
		builders: make(map[string]StepBuilder),
	}
}

// DefaultFactory 返回基于当前注册表构建的 StepFactory。
func DefaultFactory() *StepFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := NewStepFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// Register 注册 Step 构建器。
func (f *StepFactory) Register(stepType string, builder StepBuilder) {
	f.builders[stepType] = builder
}

// Build 根据类型和配置构建 Step。
func (f *StepFactory) Build(stepType string, config map[string]interface{}) (Step, error) {
	builder, ok := f.builders[stepType]
	if !ok {
		return nil, fmt.Errorf("unknown step type %q (supported: %v)", stepType, f.Types())
	}
	return builder(config)
}

// Types 返回工厂中已注册的类型（排序）
func (f *StepFactory) Types() []string {
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
