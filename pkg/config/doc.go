// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	CRM_HOST="0.0.0.0"
//	CRM_PORT="8080"
//	CRM_HEALTH_PORT="9090"
//	CRM_READ_TIMEOUT="15s"
//	CRM_WRITE_TIMEOUT="15s"
//	CRM_SHUTDOWN_TIMEOUT="30s"
//
// Cache settings:
//
//	CRM_REDIS_URL="redis://localhost:6379"
//	CRM_REDIS_PASSWORD=""
//	CRM_REDIS_DB="0"
//	CRM_REDIS_POOL_SIZE="10"
//	CRM_CACHE_OP_TIMEOUT="300ms"
//
// Identity settings:
//
//	CRM_PROVIDER_URL="http://identity-provider:8443"
//	CRM_PROVIDER_TIMEOUT="3s"
//	CRM_DIRECTORY_URL="http://user-directory:8444"
//	CRM_DIRECTORY_TIMEOUT="3s"
//	CRM_IDENTITY_CACHE_TTL="1h"
//
// Rate limit settings:
//
//	CRM_RATE_LIMIT_REQUESTS="100"
//	CRM_RATE_LIMIT_WINDOW="60s"
//	CRM_ROUTE_LIMITS="/api/v1/auth=10:60,/api/v1/analytics=30:60"
//
// CORS settings:
//
//	CRM_CORS_ORIGINS="http://localhost:3000,https://crm.example.com"
//
// Observability settings:
//
//	CRM_LOG_LEVEL="info"  # debug, info, warn, error
//	CRM_METRICS_ENABLED="true"
package config
