// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package accesscontrol

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/l3montree-dev/issuesync/shared"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
)

const (
	adminRole = "role::admin"
	wildcard  = "*"
)

// subjects are prefixed with user:: and role::, objects with integration:: and project::.
// keyMatch allows policies like project::* to cover every project.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

type RBAC struct {
	enforcer *casbin.SyncedEnforcer
}

func loadModel() (model.Model, error) {
	if path := os.Getenv("RBAC_CONFIG_PATH"); path != "" {
		return model.NewModelFromFile(path)
	}
	return model.NewModelFromString(rbacModel)
}

// NewRBAC stores its policies in the casbin_rule table of the given database.
// When a broker is passed, policy changes are propagated to every other process.
func NewRBAC(db shared.DB, broker shared.PubSubBroker) (*RBAC, error) {
	a, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("could not create casbin adapter: %w", err)
	}

	m, err := loadModel()
	if err != nil {
		return nil, fmt.Errorf("could not load rbac model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m, a)
	if err != nil {
		return nil, fmt.Errorf("could not create enforcer: %w", err)
	}
	e.EnableLog(false)

	if broker != nil {
		w, err := newCasbinPubSubWatcher(broker)
		if err != nil {
			return nil, err
		}
		if err := e.SetWatcher(w); err != nil {
			return nil, fmt.Errorf("could not set watcher: %w", err)
		}
		err = w.SetUpdateCallback(func(string) {
			slog.Debug("reloading casbin policies")
			if err := e.LoadPolicy(); err != nil {
				slog.Error("could not reload policies", "err", err)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("could not load policies: %w", err)
	}

	if _, err := e.AddPolicy(adminRole, wildcard, wildcard); err != nil {
		return nil, fmt.Errorf("could not add admin policy: %w", err)
	}

	return &RBAC{enforcer: e}, nil
}

func userSubject(userID string) string {
	return "user::" + userID
}

func integrationObject(integrationID uint) string {
	return "integration::" + strconv.FormatUint(uint64(integrationID), 10)
}

func projectObject(projectID string) string {
	return "project::" + projectID
}

func (r *RBAC) GrantAdmin(userID string) error {
	_, err := r.enforcer.AddRoleForUser(userSubject(userID), adminRole)
	return err
}

func (r *RBAC) RevokeAdmin(userID string) error {
	_, err := r.enforcer.DeleteRoleForUser(userSubject(userID), adminRole)
	return err
}

func (r *RBAC) IsAdmin(userID string) (bool, error) {
	return r.enforcer.HasRoleForUser(userSubject(userID), adminRole)
}

func (r *RBAC) AllowIntegration(userID string, integrationID uint, actions ...Action) error {
	return r.allow(userSubject(userID), integrationObject(integrationID), actions)
}

// AllowProject grants actions on a project. Pass "*" as project id to cover every project.
func (r *RBAC) AllowProject(userID string, projectID string, actions ...Action) error {
	return r.allow(userSubject(userID), projectObject(projectID), actions)
}

func (r *RBAC) allow(sub, obj string, actions []Action) error {
	rules := make([][]string, 0, len(actions))
	for _, act := range actions {
		rules = append(rules, []string{sub, obj, string(act)})
	}
	_, err := r.enforcer.AddPolicies(rules)
	return err
}

func (r *RBAC) RevokeIntegration(userID string, integrationID uint) error {
	_, err := r.enforcer.RemoveFilteredPolicy(0, userSubject(userID), integrationObject(integrationID))
	return err
}

func (r *RBAC) CanAccessIntegration(userID string, integrationID uint, action Action) (bool, error) {
	return r.enforcer.Enforce(userSubject(userID), integrationObject(integrationID), string(action))
}

func (r *RBAC) CanAccessProject(userID string, projectID string, action Action) (bool, error) {
	return r.enforcer.Enforce(userSubject(userID), projectObject(projectID), string(action))
}

// ProjectsForUser lists the project ids the user may perform the action on.
// all is true if a wildcard policy covers every project.
func (r *RBAC) ProjectsForUser(userID string, action Action) (projectIDs []string, all bool, err error) {
	permissions, err := r.enforcer.GetImplicitPermissionsForUser(userSubject(userID))
	if err != nil {
		return nil, false, err
	}

	seen := make(map[string]struct{})
	for _, p := range permissions {
		if len(p) < 3 || (p[2] != string(action) && p[2] != wildcard) {
			continue
		}
		obj := p[1]
		if obj == wildcard || obj == projectObject(wildcard) {
			return nil, true, nil
		}
		if !strings.HasPrefix(obj, "project::") {
			continue
		}
		id := strings.TrimPrefix(obj, "project::")
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		projectIDs = append(projectIDs, id)
	}
	return projectIDs, false, nil
}
