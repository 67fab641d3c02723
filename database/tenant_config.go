// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package database

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const DefaultTenantConfigFile = "tenants.json"

//go:embed schema/tenant_config.schema.json
var tenantConfigSchemaJSON []byte

var (
	tenantSchemaOnce sync.Once
	tenantSchema     *jsonschema.Schema
	tenantSchemaErr  error
)

func compileTenantSchema() (*jsonschema.Schema, error) {
	tenantSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(tenantConfigSchemaJSON))
		if err != nil {
			tenantSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("tenant_config.schema.json", doc); err != nil {
			tenantSchemaErr = err
			return
		}
		tenantSchema, tenantSchemaErr = compiler.Compile("tenant_config.schema.json")
	})
	return tenantSchema, tenantSchemaErr
}

// ParseTenantConfigs decodes a tenant configuration document. JSON and YAML are both accepted.
func ParseTenantConfigs(content []byte) (map[string]shared.TenantConfig, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("could not parse tenant configuration: %w", err)
	}
	if raw == nil {
		return map[string]shared.TenantConfig{}, nil
	}

	// normalize the yaml values into their json representation before validating
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("tenant configuration is not representable as json: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
	if err != nil {
		return nil, err
	}
	schema, err := compileTenantSchema()
	if err != nil {
		return nil, fmt.Errorf("could not compile tenant configuration schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, shared.NewConfigurationError("invalid tenant configuration: %v", err)
	}

	configs := map[string]shared.TenantConfig{}
	if err := json.Unmarshal(normalized, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// tenantConfigSource reads the tenant configuration from a file and the environment.
type tenantConfigSource struct {
	path     string
	readFile func(name string) ([]byte, error)
	environ  func() []string
}

func newTenantConfigSource(path string) tenantConfigSource {
	if path == "" {
		path = DefaultTenantConfigFile
	}
	return tenantConfigSource{path: path, readFile: os.ReadFile, environ: os.Environ}
}

// Load merges the configuration file, the TENANT_CONFIGS variable and the
// per tenant TENANT_<ID>_* variables. Later sources win per tenant and key.
// Tenant ids are case insensitive.
func (s tenantConfigSource) Load() (map[string]shared.TenantConfig, error) {
	configs := map[string]shared.TenantConfig{}

	content, err := s.readFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("could not read tenant configuration file %s: %w", s.path, err)
	default:
		fromFile, err := ParseTenantConfigs(content)
		if err != nil {
			return nil, err
		}
		mergeTenantConfigs(configs, fromFile)
	}

	env := map[string]string{}
	for _, kv := range s.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}

	if blob := env["TENANT_CONFIGS"]; blob != "" {
		fromEnv, err := ParseTenantConfigs([]byte(blob))
		if err != nil {
			return nil, fmt.Errorf("TENANT_CONFIGS: %w", err)
		}
		mergeTenantConfigs(configs, fromEnv)
	}

	mergeTenantConfigs(configs, tenantConfigsFromVariables(env))
	return configs, nil
}

var tenantVariableSuffixes = []string{"_DATABASE_URL", "_ELASTICSEARCH_NODE", "_ELASTICSEARCH_INDEX"}

func tenantConfigsFromVariables(env map[string]string) map[string]shared.TenantConfig {
	configs := map[string]shared.TenantConfig{}
	for key, value := range env {
		if !strings.HasPrefix(key, "TENANT_") || value == "" {
			continue
		}
		for _, suffix := range tenantVariableSuffixes {
			if !strings.HasSuffix(key, suffix) {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(key, "TENANT_"), suffix)
			if id == "" {
				break
			}
			id = strings.ToLower(id)
			cfg := configs[id]
			switch suffix {
			case "_DATABASE_URL":
				cfg.DatabaseURL = value
			case "_ELASTICSEARCH_NODE":
				cfg.ElasticsearchNode = value
			case "_ELASTICSEARCH_INDEX":
				cfg.ElasticsearchIndex = value
			}
			configs[id] = cfg
			break
		}
	}
	return configs
}

func mergeTenantConfigs(dst, src map[string]shared.TenantConfig) {
	for id, cfg := range src {
		id = strings.ToLower(id)
		current := dst[id]
		current.DatabaseURL = shared.FirstNonEmpty(cfg.DatabaseURL, current.DatabaseURL)
		current.ElasticsearchNode = shared.FirstNonEmpty(cfg.ElasticsearchNode, current.ElasticsearchNode)
		current.ElasticsearchIndex = shared.FirstNonEmpty(cfg.ElasticsearchIndex, current.ElasticsearchIndex)
		dst[id] = current
	}
}
