package service

import (
	"github.com/melodist-next/internal/constants"
)

// 发行物与曲目标题中不允许出现的控制类字符
const metadataForbiddenChars = "<>{}|\\\x00"

// DefaultMetadataRuleSet 默认元数据规则表。
// 基础规则对所有平台生效，平台覆盖规则在其上叠加更严格的约束。
func DefaultMetadataRuleSet() MetadataRuleSet {
	return MetadataRuleSet{
		Base: map[string][]MetadataRule{
			constants.ValidationEntityRelease: {
				{Field: "title", Required: true, MinLen: intPtr(1), MaxLen: intPtr(255), ForbiddenChars: metadataForbiddenChars},
				{Field: "primary_artist", Required: true, MinLen: intPtr(1), MaxLen: intPtr(255), ForbiddenChars: metadataForbiddenChars},
				{Field: "release_type", Required: true, Options: []string{
					constants.ReleaseTypeSingle,
					constants.ReleaseTypeEP,
					constants.ReleaseTypeAlbum,
					constants.ReleaseTypeCompilation,
				}},
				{Field: "upc", Regex: `^[0-9]{12,13}$`},
				{Field: "release_date", Required: true, MinDaysAhead: intPtr(0)},
				{Field: "genre", Warn: true, Required: true},
				{Field: "language", Warn: true, Required: true},
				{Field: "artwork_url", Warn: true, Required: true},
			},
			constants.ValidationEntityTrack: {
				{Field: "title", Required: true, MinLen: intPtr(1), MaxLen: intPtr(255), ForbiddenChars: metadataForbiddenChars},
				{Field: "isrc", Regex: `^[A-Z]{2}[A-Z0-9]{3}[0-9]{7}$`},
				{Field: "duration_seconds", Required: true, Min: floatPtr(1), Max: floatPtr(36000)},
				{Field: "track_number", Required: true, Min: floatPtr(1), Max: floatPtr(500)},
				{Field: "language", Warn: true, Required: true},
				{Field: "audio_url", Warn: true, Required: true},
			},
		},
		PlatformOverlays: map[string]map[string][]MetadataRule{
			constants.PlatformSpotify: {
				constants.ValidationEntityRelease: {
					{Field: "title", MaxLen: intPtr(100)},
					{Field: "release_date", MinDaysAhead: intPtr(7)},
					{Field: "artwork_width", Required: true, Min: floatPtr(640)},
					{Field: "artwork_height", Required: true, Min: floatPtr(640)},
					{Field: "artwork_format", Required: true, Options: []string{"jpg", "jpeg", "png"}},
				},
				constants.ValidationEntityTrack: {
					{Field: "isrc", Required: true, Regex: `^[A-Z]{2}[A-Z0-9]{3}[0-9]{7}$`},
				},
			},
			constants.PlatformAppleMusic: {
				constants.ValidationEntityRelease: {
					{Field: "upc", Required: true, Regex: `^[0-9]{12,13}$`},
					{Field: "artwork_width", Required: true, Min: floatPtr(3000)},
					{Field: "artwork_height", Required: true, Min: floatPtr(3000)},
					{Field: "artwork_format", Required: true, Options: []string{"jpg", "jpeg", "png"}},
					{Field: "genre", Required: true},
				},
				constants.ValidationEntityTrack: {
					{Field: "isrc", Required: true, Regex: `^[A-Z]{2}[A-Z0-9]{3}[0-9]{7}$`},
					{Field: "language", Required: true},
				},
			},
			constants.PlatformYoutube: {
				constants.ValidationEntityRelease: {
					{Field: "title", MaxLen: intPtr(100)},
				},
			},
		},
		OptionalFields: map[string][]string{
			constants.ValidationEntityRelease: {"label_name", "genre", "language", "upc", "artwork_url"},
			constants.ValidationEntityTrack:   {"isrc", "language", "lyrics_url", "audio_url"},
		},
	}
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
