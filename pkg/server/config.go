// Copyright (c) 2026, Datastack Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/datastackhq/stackctl/pkg/defaults"
)

// Config holds stackd server configuration.
type Config struct {
	// Server identity, stamped into responses and logs.
	Name    string
	Version string

	// Address and Port form the listen address.
	Address string
	Port    int

	// Rate limiting applied to /v1 endpoints.
	RateLimit      rate.Limit
	RateLimitBurst int

	// Timeouts.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig returns a Config with defaults, overridden by STACKD_*
// environment variables where set.
func NewConfig() *Config {
	cfg := &Config{
		Name:            "stackd",
		Version:         "dev",
		Address:         "",
		Port:            8080,
		RateLimit:       100,
		RateLimitBurst:  200,
		ReadTimeout:     defaults.ServerReadTimeout,
		WriteTimeout:    defaults.ServerWriteTimeout,
		IdleTimeout:     defaults.ServerIdleTimeout,
		ShutdownTimeout: defaults.ServerShutdownTimeout,
	}

	if portStr := os.Getenv("STACKD_PORT"); portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err == nil && port > 0 {
			cfg.Port = port
		}
	}

	if addr := os.Getenv("STACKD_ADDRESS"); addr != "" {
		cfg.Address = addr
	}

	if limitStr := os.Getenv("STACKD_RATE_LIMIT"); limitStr != "" {
		var limit float64
		if _, err := fmt.Sscanf(limitStr, "%f", &limit); err == nil && limit > 0 {
			cfg.RateLimit = rate.Limit(limit)
		}
	}

	// Matches the pod's termination grace period when running in-cluster.
	if shutdownStr := os.Getenv("STACKD_SHUTDOWN_TIMEOUT_SECONDS"); shutdownStr != "" {
		var seconds int
		if _, err := fmt.Sscanf(shutdownStr, "%d", &seconds); err == nil && seconds > 0 {
			cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}
