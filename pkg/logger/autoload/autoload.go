// Package autoload configures the global logger from LOG_* on import.
package autoload

import (
	configx "github.com/tanpawarit/Chative-Bank-Agent/pkg/config"
	logx "github.com/tanpawarit/Chative-Bank-Agent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
