package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/repository"
	"github.com/melodist-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ReleaseRequest 创建/更新发行物请求
type ReleaseRequest struct {
	Title         string `json:"title" binding:"required"`
	ReleaseType   string `json:"release_type"`
	PrimaryArtist string `json:"primary_artist" binding:"required"`
	LabelName     string `json:"label_name"`
	UPC           string `json:"upc"`
	Genre         string `json:"genre"`
	Language      string `json:"language"`
	ReleaseDate   string `json:"release_date"`
	ArtworkURL    string `json:"artwork_url"`
	ArtworkWidth  int    `json:"artwork_width"`
	ArtworkHeight int    `json:"artwork_height"`
	ArtworkFormat string `json:"artwork_format"`
}

func (r ReleaseRequest) toInput() (service.ReleaseInput, error) {
	input := service.ReleaseInput{
		Title:         r.Title,
		ReleaseType:   r.ReleaseType,
		PrimaryArtist: r.PrimaryArtist,
		LabelName:     r.LabelName,
		UPC:           r.UPC,
		Genre:         r.Genre,
		Language:      r.Language,
		ArtworkURL:    r.ArtworkURL,
		ArtworkWidth:  r.ArtworkWidth,
		ArtworkHeight: r.ArtworkHeight,
		ArtworkFormat: r.ArtworkFormat,
	}
	if trimmed := strings.TrimSpace(r.ReleaseDate); trimmed != "" {
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			return input, err
		}
		input.ReleaseDate = &parsed
	}
	return input, nil
}

// CreateRelease 创建发行物（草稿）
func (h *Handler) CreateRelease(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "发行日期格式无效", nil)
		return
	}

	release, err := h.CatalogService.CreateRelease(userID, input)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "创建发行物失败")
		return
	}
	response.Success(c, release)
}

// UpdateRelease 更新发行物元数据
func (h *Handler) UpdateRelease(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "发行日期格式无效", nil)
		return
	}

	release, err := h.CatalogService.UpdateRelease(id, userID, input)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "更新发行物失败")
		return
	}
	response.Success(c, release)
}

// GetRelease 获取发行物详情（含曲目）
func (h *Handler) GetRelease(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	release, err := h.CatalogService.GetRelease(id, userID)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "获取发行物失败")
		return
	}
	response.Success(c, release)
}

// ListReleases 分页获取发行物列表
func (h *Handler) ListReleases(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	releases, total, err := h.CatalogService.ListReleases(repository.ReleaseListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      c.Query("status"),
		ReleaseType: c.Query("release_type"),
		Search:      c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取发行物列表失败", err)
		return
	}
	response.SuccessWithPage(c, releases, response.BuildPagination(page, pageSize, total))
}

// ValidateReleaseRequest 元数据校验请求
type ValidateReleaseRequest struct {
	Platforms []string `json:"platforms"`
}

// ValidateRelease 校验发行物及曲目元数据
func (h *Handler) ValidateRelease(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ValidateReleaseRequest
	// 请求体可为空，平台列表缺省时按基础规则校验
	_ = c.ShouldBindJSON(&req)

	report, err := h.CatalogService.ValidateRelease(id, userID, req.Platforms)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "校验元数据失败")
		return
	}
	response.Success(c, report)
}

// SubmitRelease 提交发行物送审
func (h *Handler) SubmitRelease(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ValidateReleaseRequest
	// 请求体可为空，平台列表缺省时按基础规则校验
	_ = c.ShouldBindJSON(&req)

	release, report, err := h.CatalogService.SubmitRelease(id, userID, req.Platforms)
	if err != nil {
		if errors.Is(err, service.ErrMetadataInvalid) {
			response.ErrorWithData(c, response.CodeBadRequest, "元数据校验未通过", gin.H{"report": report})
			return
		}
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "提交发行物失败")
		return
	}
	response.Success(c, gin.H{"release": release, "report": report})
}

// TrackRequest 创建/更新曲目请求
type TrackRequest struct {
	Title           string `json:"title" binding:"required"`
	ISRC            string `json:"isrc"`
	TrackNumber     int    `json:"track_number"`
	DurationSeconds int    `json:"duration_seconds"`
	Explicit        bool   `json:"explicit"`
	Language        string `json:"language"`
	AudioURL        string `json:"audio_url"`
	LyricsURL       string `json:"lyrics_url"`
}

func (r TrackRequest) toInput() service.TrackInput {
	return service.TrackInput{
		Title:           r.Title,
		ISRC:            r.ISRC,
		TrackNumber:     r.TrackNumber,
		DurationSeconds: r.DurationSeconds,
		Explicit:        r.Explicit,
		Language:        r.Language,
		AudioURL:        r.AudioURL,
		LyricsURL:       r.LyricsURL,
	}
}

// AddTrack 向发行物添加曲目
func (h *Handler) AddTrack(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	releaseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	track, err := h.CatalogService.AddTrack(releaseID, userID, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "添加曲目失败")
		return
	}
	response.Success(c, track)
}

// UpdateTrack 更新曲目元数据
func (h *Handler) UpdateTrack(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	track, err := h.CatalogService.UpdateTrack(id, userID, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "更新曲目失败")
		return
	}
	response.Success(c, track)
}

// DeleteTrack 删除曲目
func (h *Handler) DeleteTrack(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.CatalogService.DeleteTrack(id, userID); err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "删除曲目失败")
		return
	}
	response.Success(c, nil)
}

// ListTracks 获取发行物曲目列表
func (h *Handler) ListTracks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	releaseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	page, pageSize = normalizePagination(page, pageSize)

	tracks, total, err := h.CatalogService.ListTracks(repository.TrackListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    userID,
		ReleaseID: releaseID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取曲目列表失败", err)
		return
	}
	response.SuccessWithPage(c, tracks, response.BuildPagination(page, pageSize, total))
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "ID 参数无效", nil)
		return 0, false
	}
	return uint(id), true
}
