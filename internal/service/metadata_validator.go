package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/melodist-next/internal/constants"
)

// MetadataRule 单字段元数据校验规则
type MetadataRule struct {
	Field          string
	Required       bool
	MinLen         *int
	MaxLen         *int
	Regex          string
	Options        []string
	ForbiddenChars string
	Min            *float64
	Max            *float64
	MinDaysAhead   *int
	Warn           bool
}

// MetadataRuleSet 按实体类型组织的规则表，平台覆盖规则在基础规则之上叠加
type MetadataRuleSet struct {
	Base             map[string][]MetadataRule
	PlatformOverlays map[string]map[string][]MetadataRule
	OptionalFields   map[string][]string
}

// ValidationIssue 单条校验问题
type ValidationIssue struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Platform string `json:"platform,omitempty"`
}

// ValidationResult 元数据校验结果
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
	Score    int               `json:"score"`
}

// UniquenessChecker 编码唯一性检查
type UniquenessChecker interface {
	UPCExists(upc string, excludeReleaseID uint) (bool, error)
	ISRCExists(isrc string, excludeTrackID uint) (bool, error)
}

// MetadataValidator 元数据校验器，规则表在构造时注入且不可变
type MetadataValidator struct {
	rules   MetadataRuleSet
	checker UniquenessChecker
}

// NewMetadataValidator 创建元数据校验器
func NewMetadataValidator(rules MetadataRuleSet, checker UniquenessChecker) *MetadataValidator {
	return &MetadataValidator{
		rules:   rules,
		checker: checker,
	}
}

const (
	scoreErrorPenalty   = 10
	scoreWarningPenalty = 5
	scoreOptionalBonus  = 2
)

// Validate 校验实体字段并计算评分。平台覆盖规则的问题在基础规则之上累加。
func (v *MetadataValidator) Validate(entityType string, entityID uint, fields map[string]interface{}, platforms []string) (*ValidationResult, error) {
	entityType = strings.ToLower(strings.TrimSpace(entityType))
	result := &ValidationResult{
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
	}

	baseRules, ok := v.rules.Base[entityType]
	if !ok {
		return nil, fmt.Errorf("unknown validation entity type: %s", entityType)
	}
	for _, rule := range baseRules {
		if err := v.applyRule(result, rule, fields, ""); err != nil {
			return nil, err
		}
	}

	for _, platform := range platforms {
		platform = strings.ToLower(strings.TrimSpace(platform))
		overlays, ok := v.rules.PlatformOverlays[platform]
		if !ok {
			continue
		}
		for _, rule := range overlays[entityType] {
			if err := v.applyRule(result, rule, fields, platform); err != nil {
				return nil, err
			}
		}
	}

	if err := v.checkUniqueness(result, entityType, entityID, fields); err != nil {
		return nil, err
	}

	result.Score = v.computeScore(entityType, fields, len(result.Errors), len(result.Warnings))
	result.Valid = len(result.Errors) == 0
	return result, nil
}

func (v *MetadataValidator) applyRule(result *ValidationResult, rule MetadataRule, fields map[string]interface{}, platform string) error {
	value, exists := fields[rule.Field]
	text, isText := value.(string)
	if isText {
		text = strings.TrimSpace(text)
	}

	empty := !exists || value == nil || (isText && text == "")
	if empty {
		if rule.Required {
			v.report(result, rule, platform, "required", fmt.Sprintf("field %s is required", rule.Field))
		}
		return nil
	}

	if isText {
		runeCount := utf8.RuneCountInString(text)
		if rule.MinLen != nil && runeCount < *rule.MinLen {
			v.report(result, rule, platform, "min_len", fmt.Sprintf("field %s shorter than %d characters", rule.Field, *rule.MinLen))
		}
		if rule.MaxLen != nil && runeCount > *rule.MaxLen {
			v.report(result, rule, platform, "max_len", fmt.Sprintf("field %s longer than %d characters", rule.Field, *rule.MaxLen))
		}
		if rule.ForbiddenChars != "" && strings.ContainsAny(text, rule.ForbiddenChars) {
			v.report(result, rule, platform, "forbidden_chars", fmt.Sprintf("field %s contains forbidden characters", rule.Field))
		}
		if rule.Regex != "" {
			compiled, err := compileMetadataRegex(rule.Regex)
			if err != nil {
				// 规则表配置错误不能降级为跳过，否则该字段悄悄失去校验
				return fmt.Errorf("%w: field %s pattern %q: %v", ErrMetadataRuleInvalid, rule.Field, rule.Regex, err)
			}
			if !compiled.MatchString(text) {
				v.report(result, rule, platform, "pattern", fmt.Sprintf("field %s does not match expected pattern", rule.Field))
			}
		}
		if len(rule.Options) > 0 && !containsOption(rule.Options, text) {
			v.report(result, rule, platform, "option", fmt.Sprintf("field %s has unsupported value", rule.Field))
		}
		return nil
	}

	if number, ok := parseMetadataNumber(value); ok {
		if rule.Min != nil && number < *rule.Min {
			v.report(result, rule, platform, "min", fmt.Sprintf("field %s below minimum %v", rule.Field, *rule.Min))
		}
		if rule.Max != nil && number > *rule.Max {
			v.report(result, rule, platform, "max", fmt.Sprintf("field %s above maximum %v", rule.Field, *rule.Max))
		}
		return nil
	}

	if ts, ok := parseMetadataTime(value); ok {
		if rule.MinDaysAhead != nil {
			earliest := time.Now().AddDate(0, 0, *rule.MinDaysAhead)
			if ts.Before(earliest) {
				v.report(result, rule, platform, "date_too_soon", fmt.Sprintf("field %s must be at least %d days ahead", rule.Field, *rule.MinDaysAhead))
			}
		}
	}
	return nil
}

func (v *MetadataValidator) report(result *ValidationResult, rule MetadataRule, platform, code, message string) {
	issue := ValidationIssue{
		Field:    rule.Field,
		Code:     code,
		Message:  message,
		Platform: platform,
	}
	if rule.Warn {
		issue.Severity = constants.ValidationSeverityWarning
		result.Warnings = append(result.Warnings, issue)
		return
	}
	issue.Severity = constants.ValidationSeverityError
	result.Errors = append(result.Errors, issue)
}

func (v *MetadataValidator) checkUniqueness(result *ValidationResult, entityType string, entityID uint, fields map[string]interface{}) error {
	if v.checker == nil {
		return nil
	}
	switch entityType {
	case constants.ValidationEntityRelease:
		upc, _ := fields["upc"].(string)
		upc = strings.TrimSpace(upc)
		if upc == "" {
			return nil
		}
		exists, err := v.checker.UPCExists(upc, entityID)
		if err != nil {
			return err
		}
		if exists {
			result.Errors = append(result.Errors, ValidationIssue{
				Field:    "upc",
				Code:     "duplicate",
				Message:  "upc already registered",
				Severity: constants.ValidationSeverityError,
			})
		}
	case constants.ValidationEntityTrack:
		isrc, _ := fields["isrc"].(string)
		isrc = strings.TrimSpace(isrc)
		if isrc == "" {
			return nil
		}
		exists, err := v.checker.ISRCExists(isrc, entityID)
		if err != nil {
			return err
		}
		if exists {
			result.Errors = append(result.Errors, ValidationIssue{
				Field:    "isrc",
				Code:     "duplicate",
				Message:  "isrc already registered",
				Severity: constants.ValidationSeverityError,
			})
		}
	}
	return nil
}

func (v *MetadataValidator) computeScore(entityType string, fields map[string]interface{}, errorCount, warningCount int) int {
	score := 100 - errorCount*scoreErrorPenalty - warningCount*scoreWarningPenalty
	for _, field := range v.rules.OptionalFields[entityType] {
		value, exists := fields[field]
		if !exists || value == nil {
			continue
		}
		if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
			continue
		}
		score += scoreOptionalBonus
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func compileMetadataRegex(raw string) (*regexp.Regexp, error) {
	raw = strings.TrimSpace(raw)
	pattern, flags, isLiteral := parseRegexLiteral(raw)
	if isLiteral {
		goPattern, err := convertRegexLiteralToGo(pattern, flags)
		if err != nil {
			return nil, err
		}
		return regexp.Compile(goPattern)
	}
	return regexp.Compile(raw)
}

func parseRegexLiteral(raw string) (string, string, bool) {
	if len(raw) < 2 || raw[0] != '/' {
		return "", "", false
	}
	idx := lastUnescapedSlash(raw)
	if idx <= 0 {
		return "", "", false
	}
	return raw[1:idx], raw[idx+1:], true
}

func lastUnescapedSlash(raw string) int {
	for i := len(raw) - 1; i > 0; i-- {
		if raw[i] != '/' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && raw[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

func convertRegexLiteralToGo(pattern string, flags string) (string, error) {
	prefix := ""
	for _, flag := range flags {
		switch flag {
		case 'i':
			prefix += "(?i)"
		case 'm':
			prefix += "(?m)"
		case 's':
			prefix += "(?s)"
		case 'g', 'u', 'y':
			// Go 不支持 g/u/y 修饰符，校验场景可忽略其行为
		default:
			return "", fmt.Errorf("unsupported regex flag: %c", flag)
		}
	}
	return prefix + pattern, nil
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if strings.EqualFold(option, value) {
			return true
		}
	}
	return false
}

func parseMetadataNumber(raw interface{}) (float64, bool) {
	switch value := raw.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint:
		return float64(value), true
	case uint32:
		return float64(value), true
	case uint64:
		return float64(value), true
	default:
		return 0, false
	}
}

func parseMetadataTime(raw interface{}) (time.Time, bool) {
	switch value := raw.(type) {
	case time.Time:
		return value, true
	case *time.Time:
		if value == nil {
			return time.Time{}, false
		}
		return *value, true
	default:
		return time.Time{}, false
	}
}
