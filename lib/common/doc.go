// Package common holds the ambient setup shared by the shared library and the
// CLI: configuration and logging.
//
// Configuration is read from .env and .env.local (godotenv) and from KDB_*
// environment variables through viper. The CLI additionally binds its flags
// into the same viper instance, so a flag always wins over the environment.
//
// Logging uses the logger facade of dragonboat (logger.GetLogger per package)
// with a factory that writes through zap. Every package declares its logger
// once:
//
//	var log = logger.GetLogger("abi")
//
// and InitLoggers sets the level of all of them.
package common
