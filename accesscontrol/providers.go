// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package accesscontrol

import (
	"github.com/l3montree-dev/issuesync/shared"
	"go.uber.org/fx"
)

type rbacParams struct {
	fx.In
	DB shared.DB
	// nil when valkey is disabled. Policies are then only reloaded on restart.
	Broker shared.PubSubBroker `optional:"true"`
}

func provideRBAC(p rbacParams) (*RBAC, error) {
	return NewRBAC(p.DB, p.Broker)
}

var Module = fx.Options(
	fx.Provide(provideRBAC),
	fx.Provide(fx.Annotate(NewIssueStoreFactory, fx.As(new(shared.IssueStoreFactory)))),
)
