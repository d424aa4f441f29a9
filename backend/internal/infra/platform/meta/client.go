/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-08 14:20:31
 * @FilePath: \adops-engine\backend\internal\infra\platform\meta\client.go
 * @LastEditTime: 2026-09-09 11:02:47
 */
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://graph.facebook.com"
	defaultVersion = "v19.0"
	defaultTimeout = 30 * time.Second
	// maxPages 防止 paging.next 异常时无限翻页。
	maxPages = 50
)

var insightFields = []string{
	"ad_id", "ad_name", "adset_id", "impressions", "clicks", "spend",
	"ctr", "cpc", "cpm", "actions", "date_start", "date_stop",
}

// conversionActions 计入转化数的 action_type。
var conversionActions = map[string]struct{}{
	"purchase":              {},
	"lead":                  {},
	"complete_registration": {},
}

// Client 调用 Meta Marketing API 的 insights 接口。
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
}

// Option 用于自定义 Client 行为。
type Option func(*Client)

// WithBaseURL 覆盖 Graph API 地址，测试时指向 httptest。
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithVersion 指定 Graph API 版本，例如 v19.0。
func WithVersion(version string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(version); trimmed != "" {
			c.version = trimmed
		}
	}
}

// WithHTTPClient 允许传入自定义 http.Client。
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient 构造客户端，默认 30 秒超时。
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchAdInsights 拉取广告账户在 datePreset 时间范围内按广告维度的表现数据，自动跟随 paging.next。
func (c *Client) FetchAdInsights(ctx context.Context, accessToken, adAccountID, datePreset string) ([]InsightRow, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("meta access token is empty")
	}
	adAccountID = strings.TrimPrefix(strings.TrimSpace(adAccountID), "act_")
	if adAccountID == "" {
		return nil, fmt.Errorf("ad account id is empty")
	}
	if datePreset == "" {
		datePreset = "last_30d"
	}

	query := url.Values{}
	query.Set("level", "ad")
	query.Set("date_preset", datePreset)
	query.Set("time_increment", "1")
	query.Set("fields", strings.Join(insightFields, ","))
	query.Set("limit", "500")
	query.Set("access_token", accessToken)
	next := fmt.Sprintf("%s/%s/act_%s/insights?%s", c.baseURL, c.version, adAccountID, query.Encode())

	var rows []InsightRow
	for page := 0; next != "" && page < maxPages; page++ {
		decoded, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, raw := range decoded.Data {
			var row InsightRow
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, fmt.Errorf("decode insight row: %w", err)
			}
			row.Raw = raw
			rows = append(rows, row)
		}
		next = decoded.Paging.Next
	}
	return rows, nil
}

func (c *Client) getPage(ctx context.Context, endpoint string) (insightsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return insightsPage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return insightsPage{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return insightsPage{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return insightsPage{}, parseAPIError(resp.StatusCode, body)
	}

	var page insightsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return insightsPage{}, fmt.Errorf("decode response: %w", err)
	}
	return page, nil
}

func parseAPIError(status int, payload []byte) error {
	var env struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Error.Message == "" {
		return &APIError{StatusCode: status, Message: fmt.Sprintf("meta graph api error: status %d", status)}
	}
	env.Error.StatusCode = status
	return &env.Error
}

// Conversions 汇总 actions 中计入转化的数量，无法解析的值按 0 处理。
func (r InsightRow) Conversions() int64 {
	var total int64
	for _, action := range r.Actions {
		if _, ok := conversionActions[action.ActionType]; !ok {
			continue
		}
		if n, err := strconv.ParseFloat(action.Value, 64); err == nil {
			total += int64(n)
		}
	}
	return total
}
