package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/mvshop/marketplace-service/internal/app"
	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/config"
	"github.com/mvshop/marketplace-service/internal/events"
	"github.com/mvshop/marketplace-service/internal/handler"
	"github.com/mvshop/marketplace-service/internal/postgres"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/internal/service"
	"github.com/mvshop/marketplace-service/pkg/cache"
	"github.com/mvshop/marketplace-service/pkg/trm"
)

// @title           Marketplace API
// @version         1.0
// @description     HTTP API торговой площадки: товары, заказы, отзывы, вишлист
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	ordersRepo := repo.NewOrdersRepo(db)
	productsRepo := repo.NewProductsRepo(db)
	reviewsRepo := repo.NewReviewsRepo(db)
	usersRepo := repo.NewUsersRepo(db)
	wishlistRepo := repo.NewWishlistRepo(db)

	txManager := trm.NewManager(db)
	productCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	producer := events.NewProducer(logger, conf.Kafka)

	orderService := service.NewOrderService(logger, txManager, ordersRepo, productsRepo, producer)
	productService := service.NewProductService(logger, productsRepo, productCache)
	reviewService := service.NewReviewService(logger, txManager, reviewsRepo, ordersRepo, productsRepo, productCache)
	userService := service.NewUserService(logger, usersRepo)
	wishlistService := service.NewWishlistService(logger, wishlistRepo, productsRepo)

	orderHandler := handler.NewOrderHandler(logger, orderService)
	productHandler := handler.NewProductHandler(logger, productService, userService)
	reviewHandler := handler.NewReviewHandler(logger, reviewService)
	userHandler := handler.NewUserHandler(logger, userService)
	wishlistHandler := handler.NewWishlistHandler(logger, wishlistService)

	verifier := auth.NewTokenVerifier(conf.JWT.Secret)

	app := app.New(logger, conf, verifier)
	app.SetPublicHandlers(publicAdapter{productHandler}, publicAdapter{reviewHandler})
	app.SetProtectedHandlers(orderHandler, productHandler, reviewHandler, userHandler, wishlistHandler)
	app.SetClosers(producer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	productCache.StartJanitor(ctx)

	app.Start(ctx)
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type publicRouter interface {
	InitPublic(r chi.Router)
}

// publicAdapter подставляет публичные роуты хендлера вместо защищенных
type publicAdapter struct {
	h publicRouter
}

func (a publicAdapter) Init(r chi.Router) {
	a.h.InitPublic(r)
}
