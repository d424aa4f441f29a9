package creative

import (
	"fmt"
	"strings"

	domain "adops-engine/backend/internal/domain/creative"
)

const (
	explorationTemperature  = 0.9
	optimizationTemperature = 0.7
)

// ProductContext 生成提示词时可选的商品与品牌信息。
type ProductContext struct {
	ProductName string `json:"productName"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Objective   string `json:"objective"`
	Audience    string `json:"audience"`
	BrandVoice  string `json:"brandVoice"`
}

// temperatureFor 探索模式更发散。
func temperatureFor(mode string) float64 {
	if mode == domain.ModeOptimization {
		return optimizationTemperature
	}
	return explorationTemperature
}

// BuildPrompt 按模式拼装提示词，优化模式会嵌入来源创意的名称与得分。
func BuildPrompt(adSetID, mode string, perf *domain.PerformanceContext, product ProductContext) string {
	var b strings.Builder

	if mode == domain.ModeOptimization {
		b.WriteString("Improve on this proven performer. Keep what works and sharpen the message.\n")
		if perf != nil {
			fmt.Fprintf(&b, "Best performing ad: %q (composite score %.2f).\n", perf.AdName, perf.Score)
		}
	} else {
		b.WriteString("Try something new. Propose a fresh creative angle that has not been tested yet.\n")
	}
	fmt.Fprintf(&b, "Ad set: %s\n", adSetID)

	product.writeTo(&b)

	b.WriteString("\nRespond with exactly these labelled lines:\n")
	b.WriteString("Headline: <max 40 characters>\n")
	b.WriteString("Ad Copy: <max 125 characters>\n")
	b.WriteString("Call to Action: <short button text>\n")
	b.WriteString("Visual Direction: <one sentence>\n")
	b.WriteString("Target Audience: <one sentence>\n")
	b.WriteString("Test Hypothesis: <what this variation should prove>\n")
	return b.String()
}

func (p ProductContext) writeTo(b *strings.Builder) {
	lines := []struct{ label, value string }{
		{"Product", p.ProductName},
		{"Description", p.Description},
		{"Price", p.Price},
		{"Campaign objective", p.Objective},
		{"Intended audience", p.Audience},
		{"Brand voice", p.BrandVoice},
	}
	wrote := false
	for _, line := range lines {
		value := strings.TrimSpace(line.value)
		if value == "" {
			continue
		}
		if !wrote {
			b.WriteString("\nProduct context:\n")
			wrote = true
		}
		fmt.Fprintf(b, "- %s: %s\n", line.label, value)
	}
}
