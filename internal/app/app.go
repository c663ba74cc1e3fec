package app

import (
	"go.uber.org/fx"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/cache"
	"github.com/broce-labs/partsline/internal/config"
	"github.com/broce-labs/partsline/internal/database"
	"github.com/broce-labs/partsline/internal/logger"
	"github.com/broce-labs/partsline/internal/messaging"
	"github.com/broce-labs/partsline/internal/observability"
	repositoryaccount "github.com/broce-labs/partsline/internal/repository/account"
	repositorynotification "github.com/broce-labs/partsline/internal/repository/notification"
	repositoryorder "github.com/broce-labs/partsline/internal/repository/order"
	repositorypart "github.com/broce-labs/partsline/internal/repository/part"
	repositoryuser "github.com/broce-labs/partsline/internal/repository/user"
	httpserver "github.com/broce-labs/partsline/internal/server/http"
	serviceaccount "github.com/broce-labs/partsline/internal/service/account"
	servicenotification "github.com/broce-labs/partsline/internal/service/notification"
	serviceorder "github.com/broce-labs/partsline/internal/service/order"
	servicepart "github.com/broce-labs/partsline/internal/service/part"
	serviceuser "github.com/broce-labs/partsline/internal/service/user"
	transporthttp "github.com/broce-labs/partsline/internal/transport/http"
	"github.com/broce-labs/partsline/internal/worker"
	workerorder "github.com/broce-labs/partsline/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	auth.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryaccount.Module,
	repositorynotification.Module,
	repositoryorder.Module,
	repositorypart.Module,
	repositoryuser.Module,
	serviceaccount.Module,
	servicenotification.Module,
	serviceorder.Module,
	servicepart.Module,
	serviceuser.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
