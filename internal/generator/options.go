// Package generator はリポジトリ解析レコードからREADME文書を合成する。
package generator

import "fmt"

// Length はREADMEの長さオプション
type Length string

const (
	LengthShort    Length = "short"
	LengthMedium   Length = "medium"
	LengthDetailed Length = "detailed"
)

// Style はドキュメントのスタイルオプション
type Style string

const (
	StyleTechnical        Style = "technical"
	StyleBeginnerFriendly Style = "beginner_friendly"
	StyleComprehensive    Style = "comprehensive"
)

// Section はREADMEに含めるセクションのタグ
type Section string

const (
	SectionOverview         Section = "overview"
	SectionFeatures         Section = "features"
	SectionInstallation     Section = "installation"
	SectionConfiguration    Section = "configuration"
	SectionAPIDocumentation Section = "api_documentation"
	SectionUsageExamples    Section = "usage_examples"
	SectionArchitecture     Section = "architecture"
	SectionContributing     Section = "contributing"
	SectionLicense          Section = "license"
	SectionTroubleshooting  Section = "troubleshooting"
	SectionFAQ              Section = "faq"
)

// DefaultSections はセクション未指定時のデフォルト
func DefaultSections() []Section {
	return []Section{
		SectionOverview,
		SectionInstallation,
		SectionAPIDocumentation,
		SectionUsageExamples,
	}
}

// Options はREADME生成のリクエストオプション
type Options struct {
	Length             Length    `json:"length"`
	Sections           []Section `json:"sections"`
	IncludeExamples    bool      `json:"includeExamples"`
	Style              Style     `json:"style"`
	CustomInstructions string    `json:"customInstructions,omitempty"`
}

// Validate はオプションの構造的妥当性を検査し、省略値を補完する
func (o *Options) Validate() error {
	switch o.Length {
	case "":
		o.Length = LengthMedium
	case LengthShort, LengthMedium, LengthDetailed:
	default:
		return fmt.Errorf("unknown length: %q", o.Length)
	}

	switch o.Style {
	case "":
		o.Style = StyleTechnical
	case StyleTechnical, StyleBeginnerFriendly, StyleComprehensive:
	default:
		return fmt.Errorf("unknown style: %q", o.Style)
	}

	if len(o.Sections) == 0 {
		o.Sections = DefaultSections()
	}

	return nil
}

// HasSection は指定セクションが含まれるかを返す
func (o *Options) HasSection(s Section) bool {
	for _, section := range o.Sections {
		if section == s {
			return true
		}
	}
	return false
}
