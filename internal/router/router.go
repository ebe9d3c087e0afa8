package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/melodist-next/internal/authz"
	"github.com/melodist-next/internal/cache"
	"github.com/melodist-next/internal/config"
	adminhandlers "github.com/melodist-next/internal/http/handlers/admin"
	publichandlers "github.com/melodist-next/internal/http/handlers/public"
	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/logger"
	"github.com/melodist-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "mld"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "登录尝试过于频繁",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "登录尝试过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 艺人认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 艺人接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)

			// 曲库管理
			user.POST("/releases", publicHandler.CreateRelease)
			user.GET("/releases", publicHandler.ListReleases)
			user.GET("/releases/:id", publicHandler.GetRelease)
			user.PUT("/releases/:id", publicHandler.UpdateRelease)
			user.POST("/releases/:id/tracks", publicHandler.AddTrack)
			user.GET("/releases/:id/tracks", publicHandler.ListTracks)
			user.POST("/releases/:id/validate", publicHandler.ValidateRelease)
			user.POST("/releases/:id/submit", publicHandler.SubmitRelease)
			user.PUT("/tracks/:id", publicHandler.UpdateTrack)
			user.DELETE("/tracks/:id", publicHandler.DeleteTrack)

			// 协作者分成
			user.POST("/splits", publicHandler.AddSplit)
			user.GET("/splits", publicHandler.ListSplits)
			user.GET("/splits/allocation", publicHandler.GetSplitAllocation)
			user.DELETE("/splits/:id", publicHandler.RemoveSplit)

			// 余额、结算单与提现
			user.GET("/balance", publicHandler.GetMyBalance)
			user.GET("/statements", publicHandler.ListMyStatements)
			user.GET("/statements/:id", publicHandler.GetMyStatement)
			user.POST("/payouts", publicHandler.RequestPayout)
			user.GET("/payouts", publicHandler.ListMyPayouts)
			user.GET("/payouts/:id", publicHandler.GetMyPayout)
			user.POST("/payouts/:id/cancel", publicHandler.CancelPayout)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)

				// 结算单管理
				authorized.POST("/statements", adminHandler.AdminCreateStatement)
				authorized.GET("/statements", adminHandler.AdminListStatements)
				authorized.GET("/statements/:id", adminHandler.AdminGetStatement)
				authorized.POST("/statements/:id/generate", adminHandler.AdminMarkStatementGenerated)
				authorized.POST("/statements/:id/finalize", adminHandler.AdminFinalizeStatement)
				authorized.POST("/statements/:id/mark-paid", adminHandler.AdminMarkStatementPaid)

				// 提现管理
				authorized.GET("/payouts", adminHandler.AdminListPayouts)
				authorized.GET("/payouts/:id", adminHandler.AdminGetPayout)
				authorized.POST("/payouts/:id/process", adminHandler.AdminProcessPayout)
				authorized.POST("/payouts/:id/complete", adminHandler.AdminCompletePayout)
				authorized.POST("/payouts/:id/fail", adminHandler.AdminFailPayout)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.GET("/users/:id/balance", adminHandler.GetAdminUserBalance)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
