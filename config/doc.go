// Package config provides configuration loading and validation for signet.
//
// The package handles YAML configuration files, a .env file, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. .env file in the working directory (never overrides the real environment)
//  4. Environment variables (SIGNET_ prefix, then conventional names)
//  5. CLI flags
//
// # Environment Variables
//
// All config keys map to environment variables with SIGNET_ prefix:
//   - server.port → SIGNET_SERVER_PORT (or PORT)
//   - storage.region → SIGNET_STORAGE_REGION (or AWS_REGION)
//   - storage.access_key → SIGNET_STORAGE_ACCESS_KEY (or AWS_ACCESS_KEY_ID)
//   - storage.secret_key → SIGNET_STORAGE_SECRET_KEY (or AWS_SECRET_ACCESS_KEY)
//   - storage.bucket → SIGNET_STORAGE_BUCKET (or S3_BUCKET)
//   - storage.public_base_url → SIGNET_STORAGE_PUBLIC_BASE_URL (or PUBLIC_BASE_URL)
//   - cors.allowed_origins → SIGNET_CORS_ALLOWED_ORIGINS (or ALLOWED_ORIGINS), comma separated
//
// # Configuration Structure
//
//   - Server: port, public_url, strict_stream_errors, max_body_bytes
//   - Storage: backend (s3, minio, local), region, bucket, endpoint,
//     credentials, addressing and the public base URL for object links
//   - Uploads: allow_svg
//   - CORS: allowed_origins ("*" admits all), max_age
//   - Log: level (debug, info, warn, error)
package config
