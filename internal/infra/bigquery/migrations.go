package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/logger"
	"google.golang.org/api/iterator"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationPattern matches migration files such as 0001_create_categories.sql.
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration represents a single migration file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration recorded in schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// Migrator applies the embedded schema migrations to a dataset.
type Migrator struct {
	client    *bigquery.Client
	projectID string
	dataset   string
	appliedBy string
	files     fs.FS
}

// NewMigrator returns a Migrator for the embedded migrations.
func NewMigrator(client *bigquery.Client, projectID, dataset, appliedBy string) *Migrator {
	sub, _ := fs.Sub(migrationFiles, "migrations")
	return &Migrator{
		client:    client,
		projectID: projectID,
		dataset:   dataset,
		appliedBy: appliedBy,
		files:     sub,
	}
}

// Up applies every pending migration in version order and returns how many
// were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("Up: ensuring schema_migrations: %w", err)
	}

	migrations, err := ReadMigrations(m.files, m.projectID, m.dataset)
	if err != nil {
		return 0, fmt.Errorf("Up: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("Up: %w", err)
	}

	appliedVersions := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		appliedVersions[am.Version] = am
	}

	count := 0
	for _, mig := range migrations {
		if am, ok := appliedVersions[mig.Version]; ok {
			if am.Checksum != "" && am.Checksum != mig.Checksum {
				log.Warn().
					Int("version", mig.Version).
					Str("name", mig.Name).
					Msg("applied migration changed since it ran")
			}
			log.Debug().Int("version", mig.Version).Str("name", mig.Name).Msg("migration already applied")
			continue
		}

		log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applying migration")

		if err := runQuery(ctx, m.client.Query(mig.SQL)); err != nil {
			return count, fmt.Errorf("Up: executing %s: %w", mig.Filename, err)
		}
		if err := m.record(ctx, mig); err != nil {
			return count, fmt.Errorf("Up: recording %s: %w", mig.Filename, err)
		}
		count++
	}

	return count, nil
}

// ReadMigrations reads the migration files in fsys, substitutes the
// {{PROJECT_ID}} and {{DATASET_ID}} placeholders and sorts them by version.
// The checksum covers the file content before substitution so the same
// migration has the same checksum in every dataset.
func ReadMigrations(fsys fs.FS, projectID, dataset string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := migrationPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}

		sql := string(content)
		sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", dataset)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func (m *Migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	q := m.client.Query(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.schema_migrations`"+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, m.projectID, m.dataset))

	return runQuery(ctx, q)
}

func (m *Migrator) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM `+"`%s.%s.schema_migrations`"+`
		ORDER BY version ASC
	`, m.projectID, m.dataset))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

func (m *Migrator) record(ctx context.Context, mig Migration) error {
	q := m.client.Query(fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, m.projectID, m.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: mig.Version},
		{Name: "name", Value: mig.Name},
		{Name: "checksum", Value: mig.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	}

	return runQuery(ctx, q)
}
