package creative

import "strings"

// Fields 是从生成文本中抽取出的创意字段，未命中的字段保持空字符串。
type Fields struct {
	Headline        string `json:"headline"`
	AdCopy          string `json:"adCopy"`
	CallToAction    string `json:"callToAction"`
	VisualDirection string `json:"visualDirection"`
	TargetAudience  string `json:"targetAudience"`
	Hypothesis      string `json:"hypothesis"`
}

// ResponseParser 把模型返回的自由文本转换为结构化字段。实现不得返回错误，无法识别时留空。
type ResponseParser interface {
	Parse(text string) Fields
}

type section int

const (
	sectionNone section = iota
	sectionHeadline
	sectionCopy
	sectionCTA
	sectionVisual
	sectionAudience
	sectionHypothesis
)

// sectionKeywords 按固定顺序匹配，一行命中多个关键字时取第一个。
var sectionKeywords = []struct {
	section  section
	keywords []string
}{
	{sectionHeadline, []string{"headline"}},
	{sectionCopy, []string{"copy", "description"}},
	{sectionCTA, []string{"call", "cta"}},
	{sectionVisual, []string{"visual", "image"}},
	{sectionAudience, []string{"target", "audience"}},
	{sectionHypothesis, []string{"hypothesis", "test"}},
}

// KeywordParser 逐行扫描，按关键字切换当前字段，后续普通行以空格拼接到当前字段。
type KeywordParser struct{}

// Parse 实现 ResponseParser。
func (KeywordParser) Parse(text string) Fields {
	var fields Fields
	active := sectionNone

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if matched := matchSection(line); matched != sectionNone {
			active = matched
			value := ""
			if idx := strings.Index(line, ":"); idx >= 0 {
				value = cleanValue(line[idx+1:])
			}
			fields.set(active, value)
			continue
		}

		if active != sectionNone {
			fields.append(active, cleanValue(line))
		}
	}
	return fields
}

func matchSection(line string) section {
	lower := strings.ToLower(line)
	for _, candidate := range sectionKeywords {
		for _, kw := range candidate.keywords {
			if strings.Contains(lower, kw) {
				return candidate.section
			}
		}
	}
	return sectionNone
}

// cleanValue 去掉首尾空白以及 markdown 残留的 * 与 #。
func cleanValue(value string) string {
	return strings.Trim(value, " \t*#")
}

func (f *Fields) field(s section) *string {
	switch s {
	case sectionHeadline:
		return &f.Headline
	case sectionCopy:
		return &f.AdCopy
	case sectionCTA:
		return &f.CallToAction
	case sectionVisual:
		return &f.VisualDirection
	case sectionAudience:
		return &f.TargetAudience
	case sectionHypothesis:
		return &f.Hypothesis
	}
	return nil
}

func (f *Fields) set(s section, value string) {
	if target := f.field(s); target != nil {
		*target = value
	}
}

func (f *Fields) append(s section, value string) {
	target := f.field(s)
	if target == nil || value == "" {
		return
	}
	if *target == "" {
		*target = value
		return
	}
	*target += " " + value
}
