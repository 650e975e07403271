// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	configDir   string // Directory for configuration files
	servicesDir string // Directory for service configurations
	stateDir    string // Directory for LRS registry/lock state snapshots
)

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/rodent"
	} else {
		// Otherwise, use user config directory
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(fmt.Sprintf("failed to get home directory: %v", err))
		}

		configDir = filepath.Join(homeDir, ".rodent")
	}
	servicesDir = filepath.Join(configDir, "services")
	stateDir = filepath.Join(configDir, "state")

	// Ensure the directories exist
	if err := EnsureDirectories(); err != nil {
		panic(fmt.Sprintf("failed to ensure configuration directories: %v", err))
	}
}

// GetConfigDir returns the appropriate configuration directory
// If running as root, it returns the system config directory
// Otherwise, it returns the user config directory
func GetConfigDir() string {
	return configDir
}

// GetServicesDir returns the directory for service configurations
func GetServicesDir() string {
	return servicesDir
}

// GetStateDir returns the directory for LRS registry/lock state snapshots
func GetStateDir() string {
	return stateDir
}

// EnsureDirectories creates necessary directories if they do not exist
func EnsureDirectories() error {
	dirs := []string{
		configDir,
		servicesDir,
		stateDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
