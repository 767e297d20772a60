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
	"encoding/json"
	"net/http"
	"strings"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/errors"
	"github.com/datastackhq/stackctl/pkg/manifest"
	"github.com/datastackhq/stackctl/pkg/serializer"
)

// maxRenderBodyBytes bounds the accepted render request body.
const maxRenderBodyBytes = 1 << 20

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// handleVersion handles GET /version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, VersionResponse{
		Name:    s.config.Name,
		Version: s.config.Version,
	})
}

// handleRender handles POST /v1/render: a cluster configuration in, a
// multi-document YAML manifest stream out.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidConfig,
			"method not allowed, use POST", false, nil)
		return
	}

	var cfg cluster.Config
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidConfig,
			"invalid request body", false, map[string]any{"error": err.Error()})
		return
	}

	files, err := s.renderer.Render(&cfg)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidConfig,
			"failed to render manifests", false, map[string]any{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(manifest.Stream(files))
}

// handleStatus handles GET /v1/status?namespace=<ns>[&components=a,b].
// Cluster names default to the component names.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidConfig,
			"method not allowed, use GET", false, nil)
		return
	}

	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidConfig,
			"namespace query parameter is required", false, nil)
		return
	}

	cfg, err := statusConfig(namespace, r.URL.Query().Get("components"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidConfig,
			err.Error(), false, nil)
		return
	}

	report, err := s.deployer.Status(r.Context(), cfg)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errors.ErrCodeInternal,
			"failed to get cluster status", true, map[string]any{"error": err.Error()})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, report)
}

func statusConfig(namespace, componentsCSV string) (*cluster.Config, error) {
	cfg := &cluster.Config{Namespace: namespace}

	names := cluster.SupportedComponents()
	if componentsCSV != "" {
		names = names[:0]
		for _, raw := range strings.Split(componentsCSV, ",") {
			name, err := cluster.ParseComponent(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}

	for _, name := range names {
		switch name {
		case cluster.ComponentElasticsearch:
			cfg.Elasticsearch = cluster.DefaultElasticsearchSpec()
		case cluster.ComponentKafka:
			cfg.Kafka = cluster.DefaultKafkaSpec()
		}
	}
	return cfg, nil
}
