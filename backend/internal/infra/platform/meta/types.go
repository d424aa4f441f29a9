package meta

import "encoding/json"

// InsightRow 是 /insights 接口 level=ad 返回的一行数据，数值字段均为字符串。
type InsightRow struct {
	AdID        string          `json:"ad_id"`
	AdName      string          `json:"ad_name"`
	AdSetID     string          `json:"adset_id"`
	Impressions string          `json:"impressions"`
	Clicks      string          `json:"clicks"`
	Spend       string          `json:"spend"`
	CTR         string          `json:"ctr"`
	CPC         string          `json:"cpc"`
	CPM         string          `json:"cpm"`
	DateStart   string          `json:"date_start"`
	DateStop    string          `json:"date_stop"`
	Actions     []ActionValue   `json:"actions,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// ActionValue 对应 actions 数组中的 {action_type, value}。
type ActionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type insightsPage struct {
	Data   []json.RawMessage `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// APIError Graph API 的错误包裹。
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	TraceID    string `json:"fbtrace_id"`
}

// Error 实现 error 接口。
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Type != "" {
		return e.Message + " [" + e.Type + "]"
	}
	return e.Message
}
