package http

import (
	"go.uber.org/fx"

	analyticstransport "github.com/bigp7952/siggil-sub002/internal/transport/http/analytics"
	authtransport "github.com/bigp7952/siggil-sub002/internal/transport/http/auth"
	categorytransport "github.com/bigp7952/siggil-sub002/internal/transport/http/category"
	imagetransport "github.com/bigp7952/siggil-sub002/internal/transport/http/image"
	ordertransport "github.com/bigp7952/siggil-sub002/internal/transport/http/order"
	premiumtransport "github.com/bigp7952/siggil-sub002/internal/transport/http/premium"
	producttransport "github.com/bigp7952/siggil-sub002/internal/transport/http/product"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	authtransport.Module,
	ordertransport.Module,
	producttransport.Module,
	categorytransport.Module,
	premiumtransport.Module,
	analyticstransport.Module,
	imagetransport.Module,
)
