package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/chartcredits/internal/config"
	"github.com/fsdevblog/chartcredits/internal/repository/pgrepo"
	"github.com/fsdevblog/chartcredits/internal/repository/rediscache"
	"github.com/fsdevblog/chartcredits/internal/repository/repoargs"
	"github.com/fsdevblog/chartcredits/internal/service"
	"github.com/fsdevblog/chartcredits/internal/service/signature"
	"github.com/fsdevblog/chartcredits/internal/transport/api"
	"github.com/fsdevblog/chartcredits/internal/transport/gemini"
	"github.com/fsdevblog/chartcredits/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 60 * time.Second
	// ответ генерации графика может идти до api.DefaultChartTimeout.
	writeTimeout = api.DefaultChartTimeout + 10*time.Second
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

// Run запускает приложение и блокируется до SIGINT/SIGTERM. При остановке по сигналу возвращает
// ошибку, для которой errors.Is(err, context.Canceled) истинно, в том числе во время ожидания базы.
func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.run(notifyCtx)
}

func (a *App) run(notifyCtx context.Context) error {
	a.Logger.WithField("address", a.Config.RunAddress).Info("starting app")

	verifier, verifierErr := signature.New([]byte(a.Config.PaystackWebhookSecret))
	if verifierErr != nil {
		return fmt.Errorf("app run: %w", verifierErr)
	}

	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %w", connErr)
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %w", uowErr)
	}

	cache, closeCache, cacheErr := a.initReferenceCache(notifyCtx)
	if cacheErr != nil {
		return fmt.Errorf("app run: %w", cacheErr)
	}
	defer closeCache()

	completer := gemini.New(a.Config.GeminiBaseURL, a.Config.GeminiModel, a.Config.GeminiAPIKey,
		gemini.DefaultAPITimeout)

	services, sErr := service.Factory(unitOfWork, cache, completer, a.Logger)
	if sErr != nil {
		return fmt.Errorf("app run: %w", sErr)
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:            a.Logger,
		SignatureVerifier: verifier,
		PurchaseService:   services.PurchaseService,
		CreditService:     services.CreditService,
		ChartService:      services.ChartService,
		JWTSecretKey:      []byte(a.Config.JWTUserSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %w", routerErr)
	}

	server := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		if runErr := server.ListenAndServe(); runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			errChan <- runErr
		}
	}()

	select {
	case <-notifyCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			a.Logger.WithError(shutdownErr).Error("http server shutdown")
		}
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

// initReferenceCache подключает redis, если задан адрес. Без адреса возвращается nil кеш и сервис работает
// только с проверкой по леджеру.
func (a *App) initReferenceCache(ctx context.Context) (service.ReferenceCache, func(), error) {
	if a.Config.RedisAddr == "" {
		a.Logger.Info("redis address is not set, reference cache disabled")
		return nil, func() {}, nil
	}

	client, err := rediscache.Connect(ctx, rediscache.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init reference cache: %w", err)
	}

	closeFn := func() {
		if closeErr := client.Close(); closeErr != nil {
			a.Logger.WithError(closeErr).Error("redis close")
		}
	}
	return rediscache.NewReferenceCache(client, rediscache.DefaultReferenceTTL), closeFn, nil
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	// гонку повторных доставок разрешает уникальный индекс purchases, а не уровень изоляции.
	unitOfWork := uow.NewUnitOfWork(conn).WithTxOptions(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})

	// user repo
	userRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.UserRepoName), userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %w", regErr)
	}

	// purchase repo
	purchaseRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewPurchaseRepository(dbtx)
	}
	if regErr := unitOfWork.Register(
		uow.RepositoryName(repoargs.PurchaseRepoName),
		purchaseRepoFactoryFn,
	); regErr != nil {
		return nil, fmt.Errorf("init UOW: %w", regErr)
	}

	return unitOfWork, nil
}
