package eventbus

import (
	"github.com/google/wire"
)

// ProviderSet is the eventbus providers.
var ProviderSet = wire.NewSet(
	NewKratosLoggerAdapter,
	NewEventBus,
	NewRouter,
)
