package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"platform-service/internal/approval"
	"platform-service/internal/appregistry"
	"platform-service/internal/apps/kuaizhizao"
	"platform-service/internal/coderule"
	"platform-service/internal/docgraph"
	"platform-service/internal/handler"
	"platform-service/internal/masterdata"
	"platform-service/internal/menu"
	"platform-service/internal/middleware"
	"platform-service/internal/model"
	"platform-service/pkg/config"
	"platform-service/pkg/database"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

func main() {
	conf, err := config.Load("platform")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.Info("Starting platform service", conf.LogConfig()...)

	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(append(model.AllModels(), kuaizhizao.Models()...)...); err != nil {
		log.Fatal("Failed to migrate database models", zap.Error(err))
	}

	if err := bootstrapSuperadmin(conf); err != nil {
		log.Fatal("Failed to bootstrap superadmin", zap.Error(err))
	}

	jwtConfig := &jwtutil.JWTConfig{
		SigningKey:         conf.JWT.SigningKey,
		AccessTokenMinutes: conf.JWT.AccessTokenMinutes,
		RefreshTokenHours:  conf.JWT.RefreshTokenHours,
	}
	jwt := jwtutil.NewJWTUtil(jwtConfig)

	// Optional redis-backed menu cache. An empty address runs without one.
	var redisClient *redis.Client
	if conf.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, menu cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	menuCache := menu.NewCache(redisClient, conf.Redis.MenuTTL)
	menus := menu.NewSynthesizer(db, menuCache)
	routes := appregistry.NewRouteTable()
	apps := appregistry.NewRegistry(db, routes, menus, conf.Plugins.SearchPaths)
	codes := coderule.NewEngine(db, conf.Location())
	master := masterdata.NewRegistry(db, codes, conf.DefaultPageSize)
	bus := docgraph.NewEventBus()
	graph := docgraph.NewGraph(db)
	machine := docgraph.NewStateMachine(db, bus)
	approvals := approval.NewDispatcher(db, machine)

	// The bundled manufacturing application contributes its manifest,
	// state machine, approval flow, and routes.
	mes := kuaizhizao.New(db, codes, graph, machine, approvals)
	if err := mes.Register(apps); err != nil {
		log.Fatal("Failed to register bundled application", zap.Error(err))
	}

	prometheus.InitMetrics(conf.ServiceName)

	middleware.InitAuth(jwt, db)
	handler.InitHealthHandler(conf.ServiceName)
	handler.InitAuthHandler(jwt)
	handler.InitApplicationHandler(apps)
	handler.InitMenuHandler(menus)
	handler.InitCodeRuleHandler(codes)
	handler.InitMasterDataHandler(master)
	handler.InitDocumentHandler(graph, machine)
	handler.InitApprovalHandler(approvals)

	// Reconcile every tenant's applications against the plugin directories
	// before serving traffic.
	if err := apps.ReloadAll(context.Background()); err != nil {
		log.Error("Initial application reconciliation failed", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(prometheus.Handler()))

	api := e.Group(conf.Server.APIRoot)

	loginLimiter := middleware.NewLoginLimiter(30, 10)
	api.POST("/auth/login", handler.Login, loginLimiter.Middleware)
	api.POST("/auth/refresh", handler.Refresh)
	api.GET("/tenants/search", handler.SearchTenants)
	api.GET("/tenants/check-domain/:domain", handler.CheckDomain)

	admin := api.Group("/tenants", middleware.AuthMiddleware, middleware.RequireSuperadmin)
	admin.POST("", handler.CreateTenant)
	admin.GET("", handler.ListTenants)
	admin.PUT("/:id", handler.UpdateTenant)
	admin.POST("/:id/suspend", handler.SuspendTenant)

	tenant := api.Group("", middleware.AuthMiddleware, middleware.RequireTenant)

	tenant.GET("/applications", handler.ListApplications)
	tenant.POST("/applications/reload", handler.ReloadApplications, middleware.RequireTenantAdmin)
	tenant.POST("/applications/:code/enable", handler.EnableApplication, middleware.RequireTenantAdmin)
	tenant.POST("/applications/:code/disable", handler.DisableApplication, middleware.RequireTenantAdmin)

	tenant.GET("/menus", handler.GetMenus)

	tenant.GET("/code-rules", handler.ListCodeRules)
	tenant.POST("/code-rules", handler.CreateCodeRule)
	tenant.GET("/code-rules/:code", handler.GetCodeRule)
	tenant.PUT("/code-rules/:code", handler.UpdateCodeRule)
	tenant.POST("/code-rules/:code/preview", handler.PreviewCode)
	tenant.POST("/code-rules/:code/generate", handler.GenerateCode)

	md := tenant.Group("/master-data")
	md.GET("/materials", handler.ListMaterials)
	md.POST("/materials", handler.CreateMaterial)
	md.GET("/materials/:id", handler.GetMaterial)
	md.PUT("/materials/:id", handler.UpdateMaterial)
	md.DELETE("/materials/:id", handler.DeleteMaterial)
	md.GET("/customers", handler.ListCustomers)
	md.POST("/customers", handler.CreateCustomer)
	md.GET("/customers/:id", handler.GetCustomer)
	md.PUT("/customers/:id", handler.UpdateCustomer)
	md.DELETE("/customers/:id", handler.DeleteCustomer)
	md.GET("/suppliers", handler.ListSuppliers)
	md.POST("/suppliers", handler.CreateSupplier)
	md.GET("/suppliers/:id", handler.GetSupplier)
	md.PUT("/suppliers/:id", handler.UpdateSupplier)
	md.DELETE("/suppliers/:id", handler.DeleteSupplier)
	md.GET("/warehouses", handler.ListWarehouses)
	md.POST("/warehouses", handler.CreateWarehouse)
	md.GET("/warehouses/:id", handler.GetWarehouse)
	md.PUT("/warehouses/:id", handler.UpdateWarehouse)
	md.DELETE("/warehouses/:id", handler.DeleteWarehouse)
	md.POST("/boms", handler.CreateBOM)
	md.GET("/boms", handler.ListBOMs)
	md.GET("/boms/:id", handler.GetBOM)
	md.POST("/batches", handler.CreateBatch)
	md.GET("/batches", handler.ListBatches)
	md.POST("/batches/:id/transition", handler.TransitionBatch)
	md.POST("/serials", handler.CreateSerial)
	md.GET("/serials", handler.ListSerials)
	md.POST("/serials/:id/transition", handler.TransitionSerial)
	md.POST("/storage-locations", handler.CreateStorageLocation)
	md.GET("/storage-locations", handler.ListStorageLocations)
	md.POST("/operations", handler.CreateOperation)
	md.GET("/operations", handler.ListOperations)
	md.POST("/defect-types", handler.CreateDefectType)
	md.GET("/defect-types", handler.ListDefectTypes)
	md.POST("/plants", handler.CreatePlant)
	md.POST("/workshops", handler.CreateWorkshop)
	md.POST("/production-lines", handler.CreateProductionLine)
	md.POST("/workstations", handler.CreateWorkstation)
	md.GET("/factory-structure", handler.FactoryStructure)

	tenant.GET("/document-relations/:type/:id", handler.GetDocumentRelations)
	tenant.POST("/document-relations", handler.CreateDocumentRelation)
	tenant.POST("/documents/:type/:id/transition", handler.TransitionDocument)
	tenant.GET("/documents/:type/:id/history", handler.DocumentHistory)

	tenant.POST("/approvals", handler.SubmitApproval)
	tenant.GET("/approvals/:id", handler.GetApproval)
	tenant.POST("/approvals/:id/cancel", handler.CancelApproval)
	tenant.POST("/approval-tasks/:id/approve", handler.ApproveTask)
	tenant.POST("/approval-tasks/:id/reject", handler.RejectTask)
	tenant.GET("/approval-tasks", handler.MyApprovalTasks)

	tenant.GET("/users", handler.ListUsers)
	tenant.POST("/users", handler.CreateUser, middleware.RequireTenantAdmin)
	tenant.PUT("/users/:id/status", handler.UpdateUserStatus, middleware.RequireTenantAdmin)
	tenant.GET("/roles", handler.ListRoles)
	tenant.POST("/roles", handler.CreateRole, middleware.RequireTenantAdmin)
	tenant.PUT("/roles/:id/permissions", handler.SetRolePermissions, middleware.RequireTenantAdmin)
	tenant.POST("/user-roles", handler.AssignRole, middleware.RequireTenantAdmin)
	tenant.GET("/permissions", handler.ListPermissions)

	// Mount routers contributed by bundled applications. Each group sits
	// behind the per-tenant activation gate.
	for _, code := range routes.Codes() {
		mount, ok := routes.Lookup(code)
		if !ok {
			continue
		}
		group := api.Group("/apps/"+code,
			middleware.AuthMiddleware,
			middleware.RequireTenant,
			middleware.ApplicationGate(apps, code))
		mount(group)
	}

	log.Info("Listening", zap.String("port", conf.Server.Port))
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}

// bootstrapSuperadmin ensures the configured platform superadmin account
// exists. An empty password skips the bootstrap.
func bootstrapSuperadmin(conf *config.Config) error {
	if conf.Superadmin.Password == "" {
		return nil
	}

	var count int64
	err := database.GetDB().Model(&model.PlatformAdmin{}).
		Where("username = ?", conf.Superadmin.Username).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(conf.Superadmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return database.GetDB().Create(&model.PlatformAdmin{
		Username: conf.Superadmin.Username,
		Password: string(hash),
	}).Error
}
