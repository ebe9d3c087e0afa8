package provider

import (
	"github.com/melodist-next/internal/authz"
	"github.com/melodist-next/internal/cache"
	"github.com/melodist-next/internal/config"
	"github.com/melodist-next/internal/logger"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/queue"
	"github.com/melodist-next/internal/repository"
	"github.com/melodist-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo     repository.AdminRepository
	UserRepo      repository.UserRepository
	ReleaseRepo   repository.ReleaseRepository
	TrackRepo     repository.TrackRepository
	SplitRepo     repository.SplitRepository
	StatementRepo repository.StatementRepository
	PayoutRepo    repository.PayoutRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	UserAuthService   *service.UserAuthService
	MetadataValidator *service.MetadataValidator
	CatalogService    *service.CatalogService
	SplitService      *service.SplitService
	BalanceService    *service.BalanceService
	StatementService  *service.StatementService
	PayoutService     *service.PayoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ReleaseRepo = repository.NewReleaseRepository(db)
	c.TrackRepo = repository.NewTrackRepository(db)
	c.SplitRepo = repository.NewSplitRepository(db)
	c.StatementRepo = repository.NewStatementRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.MetadataValidator = service.NewMetadataValidator(
		service.DefaultMetadataRuleSet(),
		service.NewCatalogUniquenessChecker(c.ReleaseRepo, c.TrackRepo),
	)
	c.CatalogService = service.NewCatalogService(c.ReleaseRepo, c.TrackRepo, c.MetadataValidator)
	c.SplitService = service.NewSplitService(c.SplitRepo, c.ReleaseRepo, c.TrackRepo)
	c.BalanceService = service.NewBalanceService(c.StatementRepo, c.PayoutRepo)
	c.StatementService = service.NewStatementService(c.Config, c.StatementRepo, c.UserRepo)
	c.PayoutService = service.NewPayoutService(c.Config, c.UserRepo, c.PayoutRepo, c.StatementRepo, c.BalanceService, c.QueueClient)
}
