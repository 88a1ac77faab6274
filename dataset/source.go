package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// Fetcher 按位置打开一个 CSV 数据源
type Fetcher interface {
	Fetch(ctx context.Context, location string) (io.ReadCloser, error)
}

// FileFetcher 本地文件数据源
type FileFetcher struct{}

// Fetch 打开本地文件
func (FileFetcher) Fetch(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return f, nil
}

// HTTPFetcher HTTP(S) 数据源
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 创建 HTTP 数据源
//
// 用法：
//
//	fetcher := dataset.NewHTTPFetcher(30 * time.Second)
//	rc, err := fetcher.Fetch(ctx, "https://example.com/extrait_sirh.csv")
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// NewHTTPFetcherWithClient 使用自定义 HTTP 客户端
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch 发起 GET 请求，非 200 响应返回错误
func (h *HTTPFetcher) Fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", location, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status=%d, body=%s", location, resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// isRemote 判断位置是否为 HTTP(S) URL
func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// ReadCSV 把带表头的 CSV 解析为逐行的 列名→文本 映射
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}
