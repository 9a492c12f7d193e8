package app

import (
	"go.uber.org/fx"

	"github.com/bigp7952/siggil-sub002/internal/cache"
	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/logger"
	"github.com/bigp7952/siggil-sub002/internal/messaging"
	"github.com/bigp7952/siggil-sub002/internal/observability"
	repositorycategory "github.com/bigp7952/siggil-sub002/internal/repository/category"
	repositoryorder "github.com/bigp7952/siggil-sub002/internal/repository/order"
	repositorypremium "github.com/bigp7952/siggil-sub002/internal/repository/premium"
	repositoryproduct "github.com/bigp7952/siggil-sub002/internal/repository/product"
	grpcserver "github.com/bigp7952/siggil-sub002/internal/server/grpc"
	httpserver "github.com/bigp7952/siggil-sub002/internal/server/http"
	serviceanalytics "github.com/bigp7952/siggil-sub002/internal/service/analytics"
	serviceauth "github.com/bigp7952/siggil-sub002/internal/service/auth"
	servicecategory "github.com/bigp7952/siggil-sub002/internal/service/category"
	serviceorder "github.com/bigp7952/siggil-sub002/internal/service/order"
	servicepremium "github.com/bigp7952/siggil-sub002/internal/service/premium"
	serviceproduct "github.com/bigp7952/siggil-sub002/internal/service/product"
	"github.com/bigp7952/siggil-sub002/internal/storage"
	transporthttp "github.com/bigp7952/siggil-sub002/internal/transport/http"
	"github.com/bigp7952/siggil-sub002/internal/worker"
	workercatalog "github.com/bigp7952/siggil-sub002/internal/worker/catalog"
	workerorder "github.com/bigp7952/siggil-sub002/internal/worker/order"
	workerpremium "github.com/bigp7952/siggil-sub002/internal/worker/premium"
)

// Infra provides configuration, logging and storage connections.
var Infra = fx.Options(
	config.Module,
	logger.Module,
	cache.Module,
	database.Module,
	messaging.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	observability.Module,
	observability.MetricsModule,
	event.Module,
	storage.Module,
	imageupload.Module,
	repositorycategory.Module,
	repositoryproduct.Module,
	repositoryorder.Module,
	repositorypremium.Module,
	serviceanalytics.Module,
	serviceauth.Module,
	servicecategory.Module,
	serviceproduct.Module,
	serviceorder.Module,
	servicepremium.Module,
)

// HTTP wires the HTTP transport and the gRPC health endpoint on top of the
// core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
	workercatalog.Module,
	workerpremium.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
