package analyses

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/terrasense/regolith/pkg/pagination"
	"github.com/terrasense/regolith/pkg/query"
	"github.com/terrasense/regolith/pkg/repository"
	"github.com/terrasense/regolith/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an analysis repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "analyses"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Ingest(ctx context.Context, cmd IngestCommand) (*Analysis, error) {
	imageURL := NotProvided

	if len(cmd.Image) > 0 {
		url, err := captureEvidence(ctx, r.storage, cmd.Owner, cmd.Image)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	q := `
		INSERT INTO soil_analyses(id, engineer_id, location, total_weight, gravel_weight, sand_weight, gravel_percent, sand_percent, fines_percent, soil_type, predicted_soil_type, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, engineer_id, location, total_weight, gravel_weight, sand_weight, gravel_percent, sand_percent, fines_percent, soil_type, predicted_soil_type, image_url, status, created_at, updated_at`

	insertArgs := []any{
		uuid.New(),
		cmd.Owner,
		orNotProvided(cmd.Location),
		cmd.Results.TotalWeight,
		cmd.Results.GravelWeight,
		cmd.Results.SandWeight,
		cmd.Results.GravelPercent,
		cmd.Results.SandPercent,
		cmd.Results.FinesPercent,
		cmd.Results.SoilType,
		orNotProvided(cmd.PredictedSoilType),
		imageURL,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Analysis, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanAnalysis)
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	r.logger.Info(
		"analysis ingested",
		"id", a.ID,
		"engineer", a.EngineerID,
		"soil_type", a.SoilType,
		"evidence", a.ImageURL != NotProvided,
	)

	return &a, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Analysis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Location", "SoilType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAnalysis)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnalysis)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrPersistence)
	}
	return &a, nil
}
