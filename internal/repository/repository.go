package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"roadside/internal/config"
	"roadside/internal/models"

	postgres "roadside/internal/repository/db"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type Repository struct {
	db      *sql.DB
	cfg     *config.PostgresConfig
	builder squirrel.StatementBuilderType
}

func NewRepository(db *sql.DB, cfg *config.PostgresConfig) (*Repository, error) {
	var err error

	repo := &Repository{
		db:      db,
		cfg:     cfg,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(repo.cfg)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}

	if repo.cfg.AutoMigrateUp == "true" {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateUp: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateDown: %w", err)
	}
	return nil
}

func (repo *Repository) SchemaVersion() (uint, error) {
	version, dirty, err := postgres.Version(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return 0, fmt.Errorf("repository.Repository.SchemaVersion: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("repository.Repository.SchemaVersion: schema version %d is dirty", version)
	}
	return version, nil
}

func (repo *Repository) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown == "true" {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

//// Customers

func (repo *Repository) CustomerById(ctx context.Context, id string) (models.Customer, bool, error) {
	var customer models.Customer
	if _, err := uuid.Parse(id); err != nil {
		return customer, false, nil
	}

	query, args, err := repo.builder.
		Select("id", "email", "full_name", "created_at").
		From("customers").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return customer, false, fmt.Errorf("repository.Repository.CustomerById: %w", err)
	}

	var fullName sql.NullString
	row := repo.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&customer.Id, &customer.Email, &fullName, &customer.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return customer, false, nil
	} else if err != nil {
		return customer, false, fmt.Errorf("repository.Repository.CustomerById: %w", err)
	}
	customer.FullName = fullName.String

	return customer, true, nil
}

func (repo *Repository) AddCustomer(ctx context.Context, customer models.Customer) (models.Customer, error) {
	query, args, err := repo.builder.
		Insert("customers").
		Columns("email", "full_name").
		Values(customer.Email, customer.FullName).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return customer, fmt.Errorf("repository.Repository.AddCustomer: %w", err)
	}

	err = repo.db.QueryRowContext(ctx, query, args...).Scan(&customer.Id, &customer.CreatedAt)
	if err != nil {
		return customer, fmt.Errorf("repository.Repository.AddCustomer: %w", err)
	}
	return customer, nil
}

//// Tables

func requestTable(source models.Source) (string, error) {
	switch source {
	case models.SourceRepair:
		return "repair_requests", nil
	case models.SourceTowing:
		return "towing_requests", nil
	}
	return "", fmt.Errorf("%w: %s", models.ErrInvalidSource, source)
}

func bidTable(source models.Source) (string, error) {
	switch source {
	case models.SourceRepair:
		return "repair_bids", nil
	case models.SourceTowing:
		return "towing_bids", nil
	}
	return "", fmt.Errorf("%w: %s", models.ErrInvalidSource, source)
}

//// Test utils

func (repo *Repository) TestGetDB() *sql.DB {
	return repo.db
}
