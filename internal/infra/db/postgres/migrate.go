package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending schema migrations from the given
// directory. A database already at the latest version is not an error.
func RunMigrations(databaseURL, migrationsPath string) error {
	// golang-migrate's pgx/v4 driver registers under the pgx:// scheme.
	url := databaseURL
	if strings.HasPrefix(url, "postgres://") {
		url = "pgx://" + strings.TrimPrefix(url, "postgres://")
	}
	m, err := migrate.New("file://"+migrationsPath, url)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
