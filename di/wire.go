//go:build wireinject
// +build wireinject

package di

import (
	"messbook/config"
	"messbook/infras/jwt"
	"messbook/infras/kafka"
	"messbook/infras/otel"
	"messbook/infras/payment"
	"messbook/infras/postgres"
	"messbook/infras/redis"
	"messbook/infras/s3"
	"messbook/permissions"
	"messbook/shared/cache"
	"messbook/transport/http"
	"messbook/transport/http/middleware"
	"messbook/transport/http/router"

	authService "messbook/internal/domains/auth/service"
	bookingRepository "messbook/internal/domains/booking/repository"
	bookingService "messbook/internal/domains/booking/service"
	listingRepository "messbook/internal/domains/listing/repository"
	listingService "messbook/internal/domains/listing/service"
	userRepository "messbook/internal/domains/user/repository"
	userService "messbook/internal/domains/user/service"
	authHandler "messbook/internal/handlers/auth"
	bookingHandler "messbook/internal/handlers/booking"
	listingHandler "messbook/internal/handlers/listing"
	userHandler "messbook/internal/handlers/user"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	payment.NewStripe,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var listingDomain = wire.NewSet(
	listingRepository.New,
	listingService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.NewOrder,
	bookingRepository.NewTransaction,
	bookingService.NewSeatLedger,
	bookingService.NewBooking,
	bookingService.NewReconciler,
)

var domains = wire.NewSet(
	userDomain,
	authDomain,
	listingDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	listingHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
