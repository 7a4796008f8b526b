package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	pkgAuth "github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/lifecycle"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/middleware"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/router"
	authCtrl "github.com/goadmin/services/console/internal/auth"
	"github.com/goadmin/services/console/internal/dept"
	"github.com/goadmin/services/console/internal/menu"
	"github.com/goadmin/services/console/internal/model"
	"github.com/goadmin/services/console/internal/rbac"
	"github.com/goadmin/services/console/internal/user"
	"go.uber.org/zap"
)

const serviceName = "console"

func main() {
	// 加载配置
	if err := config.Init(""); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志
	logger.Init(&cfg.Log)
	defer logger.Sync()

	// 初始化数据库与Redis
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatal("初始化Redis失败", zap.Error(err))
	}

	addr := cfg.Server.HTTP.Addr()

	// 创建Fiber应用
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Duration(cfg.Server.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.HTTP.WriteTimeout) * time.Second,
	})

	// 全局中间件
	app.Use(middleware.Recovery())
	app.Use(middleware.ErrorHandler())
	app.Use(middleware.Cors())
	app.Use(middleware.RequestID())

	// 健康检查
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(200).JSON(fiber.Map{
			"status":  "healthy",
			"service": serviceName,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	svc := lifecycle.NewBuilder(serviceName).
		WithAddress(addr).
		WithApp(app).
		Build()

	svc.OnStart(func(sc *lifecycle.ServiceContext) error {
		// 数据库迁移
		db := database.Get()
		if err := db.AutoMigrate(
			&model.User{}, &model.UserRole{},
			&model.Dept{},
			&model.Menu{},
			&model.Role{}, &model.RoleMenu{},
		); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
		logger.Info("数据库迁移完成")

		// 仓储
		userRepo := user.NewRepository()
		deptRepo := dept.NewRepository()
		menuRepo := menu.NewRepository()
		roleRepo := rbac.NewRepository()

		// 权限服务
		permCache := database.NewCache(rbac.CachePrefix)
		permSvc := rbac.NewPermissionService(
			roleRepo, menuRepo, permCache,
			time.Duration(cfg.Perm.CacheTTL)*time.Second,
		)

		// 其他节点的授权变更到达时丢弃本地目录快照
		sc.Invalidator().OnInvalidate(lifecycle.ModuleRBAC, func(msg *lifecycle.InvalidateMessage) {
			permSvc.ResetCatalog()
		})
		sc.Invalidator().OnInvalidate(lifecycle.ModuleMenu, func(msg *lifecycle.InvalidateMessage) {
			permSvc.ResetCatalog()
		})

		// JWT与权限装配中间件
		jwtManager := pkgAuth.NewJWTManager(&cfg.JWT)
		middlewares := map[string]fiber.Handler{
			"jwt": middleware.JWTAuth(jwtManager),
			"perms": middleware.LoadPermissions(func(c *fiber.Ctx, userID int64, superAdmin bool) (*perm.Set, error) {
				return permSvc.Load(c.UserContext(), userID, superAdmin)
			}),
		}

		// 控制器
		baseCtrl := router.NewBaseController(sc)
		router.Register(app, middlewares,
			&authCtrl.Controller{BaseController: baseCtrl, Users: userRepo, JWTManager: jwtManager, Perm: permSvc},
			&user.Controller{BaseController: baseCtrl, Repo: userRepo, Perm: permSvc},
			&dept.Controller{
				BaseController:  baseCtrl,
				Repo:            deptRepo,
				Separator:       cfg.Tree.Separator,
				AbbrevThreshold: cfg.Tree.AbbrevThreshold,
			},
			&menu.Controller{BaseController: baseCtrl, Repo: menuRepo, Granter: permSvc, Perm: permSvc},
			&rbac.Controller{BaseController: baseCtrl, Repo: roleRepo, Perm: permSvc},
		)
		return nil
	})

	svc.OnReady(func(sc *lifecycle.ServiceContext) error {
		logger.Info("控制台服务就绪", zap.String("addr", addr))
		return nil
	})

	svc.OnStop(func(sc *lifecycle.ServiceContext) error {
		if err := database.CloseRedis(); err != nil {
			logger.Error("关闭Redis失败", zap.Error(err))
		}
		return database.Close()
	})

	if err := svc.Run(); err != nil {
		logger.Fatal("服务运行失败", zap.Error(err))
	}
}
