/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import "net/http"

const (
	DomainConfig        Domain = "CONFIG"
	DomainServer        Domain = "SERVER"
	DomainCommand       Domain = "CMD"
	DomainHealth        Domain = "HEALTH"
	DomainLifecycle     Domain = "LIFECYCLE"
	DomainMisc          Domain = "MISC"
	DomainLRS           Domain = "LRS"
	DomainCatalog       Domain = "CATALOG"
	DomainDeviceManager Domain = "DEVMGR"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

type RodentError struct {
	Code    ErrorCode `json:"code"`
	Domain  Domain    `json:"domain"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	HTTPStatus int `json:"-"`

	// The Metadata field is designed for additional contextual information
	// that doesn't fit into the standard error fields but is valuable for
	// debugging and API responses. It's particularly useful for:
	// - API responses where JSON serialization includes the metadata
	// - Logging with structured details
	// - Debugging with command-specific information
	// - Error tracking/monitoring systems
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1300-1399: Command execution
// 1400-1499: Health check
// 1500-1599: Lifecycle management
// 1600-1699: Misc/program errors
// 2000-2099: Catalog client errors
// 2100-2199: Device manager adapter errors
// 2200-2299: LRS core errors
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound           = 1000 + iota // Config file not found
	ConfigInvalid                          // Invalid config format
	ConfigLoadFailed                       // Failed to load config
	ConfigWriteFailed                      // Failed to write config
	ConfigPermissionDenied                 // Permission denied accessing config
	ConfigDirectoryError                   // Config directory error
	ConfigValidationFailed                 // Config validation failed
	ConfigMarshalFailed                    // Config serialization failed
	ConfigUnmarshalFailed                  // Config deserialization failed
	ConfigHomeDirectoryError               // Error getting home directory
	ConfigReadError                        // Error reading config
	ConfigWriteError                       // Error writing config
	ConfigParseError                       // Error parsing config
)

const (
	// Server Errors (1100-1199)
	ServerStart             = 1100 + iota // Failed to start server
	ServerShutdown                        // Error during shutdown
	ServerBind                            // Failed to bind port
	ServerTimeout                         // Operation timeout
	ServerMiddleware                      // Middleware error
	ServerRouting                         // Routing error
	ServerRequestValidation               // Request validation failed
	ServerResponseError                   // Response generation error
	ServerContextCancelled                // Context cancelled
	ServerTLSError                        // TLS configuration error
	ServerInternalError
	ServerBadRequest // Bad request error
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	CommandPermission                 // Permission denied
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
	CommandSignal                     // Signal handling failed
	CommandContext                    // Context handling error
	CommandPipe                       // Command pipe error
	CommandWorkDir                    // Working directory error
)

const (
	// Health Check (1400-1499)
	HealthCheckFailed     = 1400 + iota // Health check failed
	HealthCheckTimeout                  // Health check timed out
	HealthCheckComponent                // Component check failed
	HealthCheckConfig                   // Health check config error
	HealthCheckEndpoint                 // Endpoint error
	HealthCheckClient                   // Client error
	HealthCheckValidation               // Validation error
	HealthCheckThreshold                // Threshold exceeded
	HealthCheckState                    // State transition error
	HealthCheckRecovery                 // Recovery failed
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID      = 1500 + iota // PID file operation failed
	LifecycleShutdown               // Shutdown process error
	LifecycleSignal                 // Signal handling error
	LifecycleReload                 // Config reload failed
	LifecycleHook                   // Lifecycle hook error
	LifecycleState                  // State transition error
	LifecycleLock                   // Lock acquisition failed
	LifecycleCleanup                // Cleanup operation failed
	LifecycleDaemon                 // Daemon operation failed
	LifecycleResource                // Resource management error
)

const (
	// Misc/program Errors (1600-1699)
	RodentMisc = 1600 + iota // Miscellaneous program error
	FSError
	NotFoundError // Not found error
	LoggerError   // Logger error
)

const (
	// Catalog client errors (2000-2099)
	CatalogQueryFailed = 2000 + iota // get/filter query against the catalog failed
	CatalogUpdateFailed              // partial update of a device/medium record failed
	CatalogLockFailed                // acquire/release of a named lock failed
	CatalogLockHeldElsewhere         // lock is held by an owner other than us
	CatalogUnreachable               // transport-level failure talking to the catalog
	CatalogMalformedFilter           // filter tree failed to build/serialize
)

const (
	// Device manager adapter errors (2100-2199)
	DeviceQueryFailed = 2100 + iota // device adapter couldn't read system state
	DeviceMismatch                 // catalog-recorded model/serial doesn't match system view
	LibraryQueryFailed             // library adapter couldn't read slot/bay state
	LibraryMoveRefused             // library refused to move a medium directly between two drives (busy-retry)
	LibraryMoveFailed              // library move failed for any other reason
	FilesystemMountFailed
	FilesystemUnmountFailed
	FilesystemFormatFailed
	FilesystemStatFailed
	FilesystemReadOnly // filesystem mounted read-only unexpectedly
	IOFlushFailed
)

const (
	// LRS core errors (2200-2299)
	LRSInvalidArgument = 2200 + iota
	LRSMediumNotFound
	LRSDriveNotFound
	LRSNoSpace
	LRSBusyRetry
	LRSNoDevice
	LRSDriveFailed
	LRSCatalogFailure
	LRSConfigInvalid // bad policy/compatibility configuration
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	ConfigNotFound:           {"Configuration file not found", DomainConfig, http.StatusNotFound},
	ConfigInvalid:            {"Invalid configuration format", DomainConfig, http.StatusBadRequest},
	ConfigLoadFailed:         {"Failed to load configuration", DomainConfig, http.StatusInternalServerError},
	ConfigWriteFailed:        {"Failed to write configuration", DomainConfig, http.StatusInternalServerError},
	ConfigPermissionDenied:   {"Permission denied accessing configuration", DomainConfig, http.StatusForbidden},
	ConfigDirectoryError:     {"Configuration directory error", DomainConfig, http.StatusInternalServerError},
	ConfigValidationFailed:   {"Configuration validation failed", DomainConfig, http.StatusBadRequest},
	ConfigMarshalFailed:      {"Failed to serialize configuration", DomainConfig, http.StatusInternalServerError},
	ConfigUnmarshalFailed:    {"Failed to deserialize configuration", DomainConfig, http.StatusBadRequest},
	ConfigHomeDirectoryError: {"Failed to determine home directory", DomainConfig, http.StatusInternalServerError},
	ConfigReadError:          {"Failed to read configuration", DomainConfig, http.StatusInternalServerError},
	ConfigWriteError:         {"Failed to write configuration", DomainConfig, http.StatusInternalServerError},
	ConfigParseError:         {"Failed to parse configuration", DomainConfig, http.StatusBadRequest},

	ServerStart:             {"Failed to start server", DomainServer, http.StatusInternalServerError},
	ServerShutdown:          {"Error during server shutdown", DomainServer, http.StatusInternalServerError},
	ServerBind:              {"Failed to bind port", DomainServer, http.StatusInternalServerError},
	ServerTimeout:           {"Operation timed out", DomainServer, http.StatusGatewayTimeout},
	ServerMiddleware:        {"Middleware error", DomainServer, http.StatusInternalServerError},
	ServerRouting:           {"Routing error", DomainServer, http.StatusNotFound},
	ServerRequestValidation: {"Request validation failed", DomainServer, http.StatusBadRequest},
	ServerResponseError:     {"Response generation error", DomainServer, http.StatusInternalServerError},
	ServerContextCancelled:  {"Context cancelled", DomainServer, http.StatusRequestTimeout},
	ServerTLSError:          {"TLS configuration error", DomainServer, http.StatusInternalServerError},
	ServerInternalError:     {"Internal server error", DomainServer, http.StatusInternalServerError},
	ServerBadRequest:        {"Bad request", DomainServer, http.StatusBadRequest},

	CommandNotFound:     {"Command not found", DomainCommand, http.StatusNotFound},
	CommandExecution:    {"Command execution failed", DomainCommand, http.StatusBadRequest},
	CommandTimeout:      {"Command execution timed out", DomainCommand, http.StatusGatewayTimeout},
	CommandPermission:   {"Permission denied executing command", DomainCommand, http.StatusForbidden},
	CommandInvalidInput: {"Invalid command input", DomainCommand, http.StatusBadRequest},
	CommandOutputParse:  {"Failed to parse command output", DomainCommand, http.StatusInternalServerError},
	CommandSignal:       {"Command terminated by signal", DomainCommand, http.StatusInternalServerError},
	CommandContext:      {"Command context error", DomainCommand, http.StatusInternalServerError},
	CommandPipe:         {"Command pipe error", DomainCommand, http.StatusInternalServerError},
	CommandWorkDir:      {"Invalid working directory", DomainCommand, http.StatusBadRequest},

	HealthCheckFailed:     {"Health check failed", DomainHealth, http.StatusServiceUnavailable},
	HealthCheckTimeout:    {"Health check timed out", DomainHealth, http.StatusGatewayTimeout},
	HealthCheckComponent:  {"Component health check failed", DomainHealth, http.StatusServiceUnavailable},
	HealthCheckConfig:     {"Health check configuration error", DomainHealth, http.StatusInternalServerError},
	HealthCheckEndpoint:   {"Health check endpoint error", DomainHealth, http.StatusInternalServerError},
	HealthCheckClient:     {"Health check client error", DomainHealth, http.StatusInternalServerError},
	HealthCheckValidation: {"Health check validation error", DomainHealth, http.StatusBadRequest},
	HealthCheckThreshold:  {"Health check threshold exceeded", DomainHealth, http.StatusServiceUnavailable},
	HealthCheckState:      {"Health check state transition error", DomainHealth, http.StatusInternalServerError},
	HealthCheckRecovery:   {"Health check recovery failed", DomainHealth, http.StatusInternalServerError},

	LifecyclePID:      {"PID file operation failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleShutdown: {"Shutdown process error", DomainLifecycle, http.StatusInternalServerError},
	LifecycleSignal:   {"Signal handling error", DomainLifecycle, http.StatusInternalServerError},
	LifecycleReload:   {"Configuration reload failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleHook:     {"Lifecycle hook error", DomainLifecycle, http.StatusInternalServerError},
	LifecycleState:    {"Lifecycle state transition error", DomainLifecycle, http.StatusInternalServerError},
	LifecycleLock:     {"Lock acquisition failed", DomainLifecycle, http.StatusConflict},
	LifecycleCleanup:  {"Cleanup operation failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleDaemon:   {"Daemon operation failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleResource: {"Resource management error", DomainLifecycle, http.StatusInternalServerError},

	RodentMisc:    {"Miscellaneous error", DomainMisc, http.StatusInternalServerError},
	FSError:       {"Filesystem error", DomainMisc, http.StatusInternalServerError},
	NotFoundError: {"Not found", DomainMisc, http.StatusNotFound},
	LoggerError:   {"Logger error", DomainMisc, http.StatusInternalServerError},

	CatalogQueryFailed:       {"Catalog query failed", DomainCatalog, http.StatusBadGateway},
	CatalogUpdateFailed:      {"Catalog update failed", DomainCatalog, http.StatusBadGateway},
	CatalogLockFailed:        {"Catalog lock operation failed", DomainCatalog, http.StatusBadGateway},
	CatalogLockHeldElsewhere: {"Lock is held by another owner", DomainCatalog, http.StatusConflict},
	CatalogUnreachable:       {"Catalog is unreachable", DomainCatalog, http.StatusServiceUnavailable},
	CatalogMalformedFilter:   {"Malformed catalog filter", DomainCatalog, http.StatusInternalServerError},

	DeviceQueryFailed:       {"Device adapter query failed", DomainDeviceManager, http.StatusInternalServerError},
	DeviceMismatch:          {"Device model/serial mismatch", DomainDeviceManager, http.StatusConflict},
	LibraryQueryFailed:      {"Library adapter query failed", DomainDeviceManager, http.StatusInternalServerError},
	LibraryMoveRefused:      {"Library refused a drive-to-drive move", DomainDeviceManager, http.StatusConflict},
	LibraryMoveFailed:       {"Library media move failed", DomainDeviceManager, http.StatusInternalServerError},
	FilesystemMountFailed:   {"Filesystem mount failed", DomainDeviceManager, http.StatusInternalServerError},
	FilesystemUnmountFailed: {"Filesystem unmount failed", DomainDeviceManager, http.StatusInternalServerError},
	FilesystemFormatFailed:  {"Filesystem format failed", DomainDeviceManager, http.StatusInternalServerError},
	FilesystemStatFailed:    {"Filesystem stat failed", DomainDeviceManager, http.StatusInternalServerError},
	FilesystemReadOnly:      {"Filesystem mounted read-only", DomainDeviceManager, http.StatusConflict},
	IOFlushFailed:           {"I/O flush failed", DomainDeviceManager, http.StatusInternalServerError},

	LRSInvalidArgument: {"Invalid argument", DomainLRS, http.StatusBadRequest},
	LRSMediumNotFound:  {"Medium not found", DomainLRS, http.StatusNotFound},
	LRSDriveNotFound:   {"Drive not found", DomainLRS, http.StatusNotFound},
	LRSNoSpace:         {"No medium with enough free space", DomainLRS, http.StatusInsufficientStorage},
	LRSBusyRetry:       {"All candidates are busy, retry later", DomainLRS, http.StatusConflict},
	LRSNoDevice:        {"No compatible, unfailed, unlocked drive available", DomainLRS, http.StatusServiceUnavailable},
	LRSDriveFailed:     {"Drive marked failed", DomainLRS, http.StatusInternalServerError},
	LRSCatalogFailure:  {"Underlying catalog call failed", DomainLRS, http.StatusBadGateway},
	LRSConfigInvalid:   {"Invalid LRS policy/compatibility configuration", DomainLRS, http.StatusInternalServerError},
}
