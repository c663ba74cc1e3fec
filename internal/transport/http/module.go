package http

import (
	"go.uber.org/fx"

	accounttransport "github.com/broce-labs/partsline/internal/transport/http/account"
	notificationtransport "github.com/broce-labs/partsline/internal/transport/http/notification"
	ordertransport "github.com/broce-labs/partsline/internal/transport/http/order"
	parttransport "github.com/broce-labs/partsline/internal/transport/http/part"
	usertransport "github.com/broce-labs/partsline/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	accounttransport.Module,
	notificationtransport.Module,
	ordertransport.Module,
	parttransport.Module,
	usertransport.Module,
)
