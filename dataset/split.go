package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rushteam/attrition/core"
)

// 默认切分参数
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// StratifiedSplit 按标签分层切分下标：测试集大小为 ceil(testSize*n)，
// 每个类别在测试集中的比例与整体一致（余数按小数部分从大到小分配）。
// 同样的 labels、testSize、seed 总是得到同样的结果；返回的下标升序。
func StratifiedSplit(labels []int, testSize float64, seed int64) (train, test []int, err error) {
	n := len(labels)
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("test size must be in (0,1), got %v", testSize))
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest == 0 || nTest >= n {
		return nil, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("cannot split %d records with test size %v", n, testSize))
	}

	byClass := make(map[int][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	// 先按比例向下取整，再把剩余名额分给小数部分最大的类别
	quota := make(map[int]int, len(classes))
	frac := make(map[int]float64, len(classes))
	assigned := 0
	for _, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		quota[c] = int(math.Floor(exact))
		frac[c] = exact - float64(quota[c])
		assigned += quota[c]
	}
	order := append([]int(nil), classes...)
	sort.SliceStable(order, func(i, j int) bool { return frac[order[i]] > frac[order[j]] })
	for k := 0; assigned < nTest; k = (k + 1) % len(order) {
		c := order[k]
		if quota[c] < len(byClass[c]) {
			quota[c]++
			assigned++
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		test = append(test, idx[:quota[c]]...)
		train = append(train, idx[quota[c]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// Split 分层切分数据集，数据集必须带标签
func (d *Dataset) Split(testSize float64, seed int64) (train, test *Dataset, err error) {
	if d.Labels == nil {
		return nil, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset has no labels to stratify on")
	}
	trainIdx, testIdx, err := StratifiedSplit(d.Labels, testSize, seed)
	if err != nil {
		return nil, nil, err
	}
	return d.Subset(trainIdx), d.Subset(testIdx), nil
}
