package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/store"
	"github.com/hrygo/lexagent/store/db/file"
	"github.com/hrygo/lexagent/store/db/postgres"
	"github.com/hrygo/lexagent/store/db/sqlite"
)

// ============================================================================
// STORAGE SUPPORT POLICY
// ============================================================================
// file:     default, one JSON document per session, no vector search.
// sqlite:   single node, session records only.
// postgres: session records plus pgvector passage search.
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "", "file":
		driver, err = file.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'file', 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
