package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/pinkpulse/internal/auth"
	"github.com/hitoshi/pinkpulse/internal/clinic"
	"github.com/hitoshi/pinkpulse/internal/config"
	"github.com/hitoshi/pinkpulse/internal/database"
	"github.com/hitoshi/pinkpulse/internal/handler"
	"github.com/hitoshi/pinkpulse/internal/logger"
	"github.com/hitoshi/pinkpulse/internal/metrics"
	"github.com/hitoshi/pinkpulse/internal/middleware"
	"github.com/hitoshi/pinkpulse/internal/repository"
)

const (
	// storeConnectTimeout は起動時のストア疎通確認のタイムアウト。
	storeConnectTimeout = 10 * time.Second
	// shutdownTimeout はグレースフルシャットダウンの待ち時間。
	shutdownTimeout = 30 * time.Second
	// defaultHealthcheckPort はPORT未設定時にhealthcheckが接続するポート。
	defaultHealthcheckPort = "5038"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込んでログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// loadDotEnv はカレントディレクトリの.envを読み込む。
// 既に設定されている環境変数は上書きしない。ファイルが無い場合は何もしない。
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultHealthcheckPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store", string(cfg.StoreDriver)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// stores はバックエンドごとに生成したリポジトリと後始末をまとめたもの。
type stores struct {
	users   repository.UserRepository
	clinics repository.ClinicRepository
	health  handler.HealthChecker
	close   func()
}

// openStores はDATABASE_URLのスキームに応じてPostgreSQLまたはMongoDBに接続する。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		return openMongoStores(ctx, cfg)
	default:
		return openPostgresStores(ctx, cfg)
	}
}

func openPostgresStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established", slog.String("store", "postgres"))

	return &stores{
		users:   repository.NewPostgresUserRepo(db),
		clinics: repository.NewPostgresClinicRepo(db),
		health:  db,
		close: func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close database", slog.String("error", err.Error()))
			}
		},
	}, nil
}

func openMongoStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	store, err := connectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 重複メールの最終防止はユニークインデックスが担うため、起動時に必ず作成する
	idxCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()
	if err := database.EnsureMongoIndexes(idxCtx, store.DB); err != nil {
		closeMongo(store)
		return nil, err
	}

	return &stores{
		users:   repository.NewMongoUserRepo(store.DB),
		clinics: repository.NewMongoClinicRepo(store.DB),
		health:  store,
		close:   func() { closeMongo(store) },
	}, nil
}

// connectMongo はMongoDBに接続し、プライマリへの疎通を確認する。
func connectMongo(ctx context.Context, cfg *config.Config) (*database.MongoStore, error) {
	store, err := database.OpenMongo(cfg.DatabaseURL, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()
	if err := store.PingContext(pingCtx); err != nil {
		closeMongo(store)
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	slog.Info("database connection established",
		slog.String("store", "mongo"),
		slog.String("database", cfg.MongoDatabase),
	)
	return store, nil
}

func closeMongo(store *database.MongoStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		slog.Error("failed to disconnect mongo", slog.String("error", err.Error()))
	}
}

// newRouterDeps は設定とストアから全依存関係をワイヤリングする。
// 返り値のstopはレートリミッターのバックグラウンド処理を停止する。
func newRouterDeps(cfg *config.Config, st *stores) (*handler.RouterDeps, func()) {
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxy:        cfg.TrustProxy,
		ClinicRequireAuth: cfg.ClinicRequireAuth,
		HealthChecker:     st.health,
	}

	// メトリクスが無効な場合はrecorderをnilインターフェースのままにする
	var authEvents auth.EventRecorder
	var rateLimited middleware.RateLimitRecorder
	if cfg.MetricsEnabled {
		reg := metrics.NewRegistry()
		collector := metrics.NewCollector(reg)
		deps.Metrics = collector
		deps.MetricsHandler = metrics.Handler(reg)
		authEvents = collector
		rateLimited = collector
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	deps.TokenVerifier = tokens
	deps.AuthService = auth.NewService(
		st.users,
		auth.NewPasswordHasher(cfg.BcryptCost),
		tokens,
		authEvents,
	)
	deps.ClinicService = clinic.NewService(st.clinics)

	rl := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitRequests, cfg.RateLimitWindow),
		rateLimited,
	)
	deps.RateLimiter = rl

	return deps, rl.Stop
}

// runServe はAPIサーバーモードで起動する。
// ストアに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. ストア接続
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// 2. ルーターの構築
	deps, stopLimiter := newRouterDeps(cfg, st)
	defer stopLimiter()

	router := handler.NewRouter(deps)

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Bool("clinic_require_auth", cfg.ClinicRequireAuth),
			slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はスキーマを最新化する。
// PostgreSQLでは未適用のマイグレーションを順番に適用し、MongoDBではユニークインデックスを作成する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("store", string(cfg.StoreDriver)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if cfg.StoreDriver == config.StoreDriverMongo {
		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()

		store, err := connectMongo(ctx, cfg)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		defer closeMongo(store)

		if err := database.EnsureMongoIndexes(ctx, store.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("mongo indexes ensured")
		return nil
	}

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
