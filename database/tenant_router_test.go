// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package database

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTenantClient struct {
	url    string
	db     shared.DB
	closed chan struct{}
	once   sync.Once
}

func (c *fakeTenantClient) Database() shared.DB   { return c.db }
func (c *fakeTenantClient) ConnectionURL() string { return c.url }
func (c *fakeTenantClient) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	created []*fakeTenantClient
}

func (f *fakeFactory) create(_ context.Context, url string) (TenantClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeTenantClient{url: url, closed: make(chan struct{})}
	f.created = append(f.created, c)
	return c, nil
}

type fakeEnv struct {
	mu   sync.Mutex
	file []byte
	vars []string
}

func (e *fakeEnv) set(file string, vars ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if file == "" {
		e.file = nil
	} else {
		e.file = []byte(file)
	}
	e.vars = vars
}

func (e *fakeEnv) source() tenantConfigSource {
	return tenantConfigSource{
		path: "tenants.json",
		readFile: func(string) ([]byte, error) {
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.file == nil {
				return nil, fs.ErrNotExist
			}
			return e.file, nil
		},
		environ: func() []string {
			e.mu.Lock()
			defer e.mu.Unlock()
			return e.vars
		},
	}
}

func newTestRouter(env *fakeEnv, factory *fakeFactory) *TenantRouter {
	return &TenantRouter{
		multiTenant: true,
		source:      env.source(),
		factory:     factory.create,
		clients:     make(map[string]TenantClient),
	}
}

func TestTenantConfigSource(t *testing.T) {
	t.Run("it should read json and yaml files", func(t *testing.T) {
		env := &fakeEnv{}
		env.set(`{"acme": {"databaseUrl": "postgres://acme"}}`)
		configs, err := env.source().Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres://acme", configs["acme"].DatabaseURL)

		env.set("acme:\n  databaseUrl: postgres://yaml\n  elasticsearchIndex: issues-acme\n")
		configs, err = env.source().Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres://yaml", configs["acme"].DatabaseURL)
		assert.Equal(t, "issues-acme", configs["acme"].ElasticsearchIndex)
	})

	t.Run("it should reject a configuration which does not match the schema", func(t *testing.T) {
		env := &fakeEnv{}
		env.set(`{"acme": {"elasticsearchNode": "http://es"}}`)
		_, err := env.source().Load()
		require.Error(t, err)
		assert.True(t, shared.IsConfigurationError(err))

		env.set(`{"acme": {"databaseUrl": "postgres://acme", "password": "x"}}`)
		_, err = env.source().Load()
		assert.Error(t, err)
	})

	t.Run("it should let environment variables override the file per key", func(t *testing.T) {
		env := &fakeEnv{}
		env.set(
			`{"acme": {"databaseUrl": "postgres://file", "elasticsearchIndex": "from-file"}}`,
			`TENANT_CONFIGS={"acme": {"databaseUrl": "postgres://blob"}, "globex": {"databaseUrl": "postgres://globex"}}`,
			"TENANT_ACME_ELASTICSEARCH_NODE=http://es:9200",
			"TENANT_INITECH_DATABASE_URL=postgres://initech",
			"UNRELATED=1",
		)
		configs, err := env.source().Load()
		require.NoError(t, err)

		assert.Equal(t, shared.TenantConfig{
			DatabaseURL:        "postgres://blob",
			ElasticsearchNode:  "http://es:9200",
			ElasticsearchIndex: "from-file",
		}, configs["acme"])
		assert.Equal(t, "postgres://globex", configs["globex"].DatabaseURL)
		assert.Equal(t, "postgres://initech", configs["initech"].DatabaseURL)
		assert.Len(t, configs, 3)
	})

	t.Run("it should work without a configuration file", func(t *testing.T) {
		env := &fakeEnv{}
		configs, err := env.source().Load()
		require.NoError(t, err)
		assert.Empty(t, configs)
	})
}

func TestTenantRouter(t *testing.T) {
	t.Run("it should return the default database in single tenant mode", func(t *testing.T) {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)

		factory := &fakeFactory{}
		router := NewTenantRouter(db, factory.create)
		router.multiTenant = false

		resolved, err := router.DB(context.Background(), "whatever")
		require.NoError(t, err)
		assert.Same(t, db, resolved)
		assert.Empty(t, factory.created)
	})

	t.Run("it should cache the client of a tenant", func(t *testing.T) {
		env := &fakeEnv{}
		env.set(`{"acme": {"databaseUrl": "postgres://acme"}}`)
		factory := &fakeFactory{}
		router := newTestRouter(env, factory)

		first, err := router.Client(context.Background(), "acme")
		require.NoError(t, err)
		second, err := router.Client(context.Background(), "ACME")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Len(t, factory.created, 1)
	})

	t.Run("it should replace the client and disconnect the old one when the url changes", func(t *testing.T) {
		env := &fakeEnv{}
		env.set(`{"acme": {"databaseUrl": "postgres://old"}}`)
		factory := &fakeFactory{}
		router := newTestRouter(env, factory)

		old, err := router.Client(context.Background(), "acme")
		require.NoError(t, err)

		env.set(`{"acme": {"databaseUrl": "postgres://rotated"}}`)
		fresh, err := router.Client(context.Background(), "acme")
		require.NoError(t, err)

		assert.NotSame(t, old, fresh)
		assert.Equal(t, "postgres://rotated", fresh.ConnectionURL())

		select {
		case <-old.(*fakeTenantClient).closed:
		case <-time.After(time.Second):
			t.Fatal("old tenant client was not disconnected")
		}
	})

	t.Run("it should fail for an unknown tenant", func(t *testing.T) {
		env := &fakeEnv{}
		router := newTestRouter(env, &fakeFactory{})

		_, err := router.DB(context.Background(), "nobody")
		assert.True(t, errors.Is(err, shared.ErrTenantNotConfigured))
	})

	t.Run("it should require a tenant id in multi tenant mode", func(t *testing.T) {
		router := newTestRouter(&fakeEnv{}, &fakeFactory{})

		_, err := router.DB(context.Background(), "")
		assert.True(t, shared.IsConfigurationError(err))
	})

	t.Run("it should disconnect every client", func(t *testing.T) {
		env := &fakeEnv{}
		env.set(`{"acme": {"databaseUrl": "postgres://acme"}, "globex": {"databaseUrl": "postgres://globex"}}`)
		factory := &fakeFactory{}
		router := newTestRouter(env, factory)

		_, err := router.Client(context.Background(), "acme")
		require.NoError(t, err)
		_, err = router.Client(context.Background(), "globex")
		require.NoError(t, err)

		router.DisconnectAll()
		for _, c := range factory.created {
			select {
			case <-c.closed:
			default:
				t.Fatalf("client %s was not closed", c.url)
			}
		}
	})
}
