package availability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// DBExecutor интерфейс выполнения запросов (*sql.DB, *dbmetrics.DB или транзакция)
type DBExecutor = dbmetrics.DBExecutor

var blockColumns = []string{"b.id", "b.valid_from", "b.valid_to", "b.active", "b.created_at", "b.updated_at"}

// Repository репозиторий блоков доступности и их дочерних строк
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория блоков доступности
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет блок вместе с правилами и мастерами
// Вызывать внутри транзакции
func (r *Repository) Create(ctx context.Context, block *domain.AvailabilityBlock) (*domain.AvailabilityBlock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("availability_blocks").
		Columns("valid_from", "valid_to", "active").
		Values(domain.DateOnly(block.ValidFrom), domain.DateOnly(block.ValidTo), block.Active).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&block.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	block.CreatedAt = createdAt.Time
	block.UpdatedAt = updatedAt.Time

	if err := r.ReplaceDayRules(ctx, block.ID, block.DayRules); err != nil {
		return nil, err
	}

	providers, err := r.SyncProviders(ctx, block.ID, block.ProviderIDs())
	if err != nil {
		return nil, err
	}
	block.Providers = providers

	return block, nil
}

// GetByID получает блок по ID вместе с правилами и мастерами
// Внутри транзакции строка блока блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.AvailabilityBlock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(blockColumns...).
		From("availability_blocks b").
		Where(squirrel.Eq{"b.id": id})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	block, err := scanBlock(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan block: %v", ErrScanRow, err)
	}

	if err := r.loadChildren(ctx, []*domain.AvailabilityBlock{block}); err != nil {
		return nil, err
	}
	return block, nil
}

// List получает блоки по фильтру, упорядоченные по ID
func (r *Repository) List(ctx context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(blockColumns...).
		From("availability_blocks b").
		OrderBy("b.id ASC")

	if filter.ProviderID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM availability_block_providers bp WHERE bp.block_id = b.id AND bp.provider_id = ?)",
			*filter.ProviderID,
		))
	}
	if filter.ActiveOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"b.active": true})
	}
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"b.valid_to": domain.DateOnly(*filter.From)})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"b.valid_from": domain.DateOnly(*filter.To)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	blocks := make([]*domain.AvailabilityBlock, 0)
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}
	rows.Close()

	if err := r.loadChildren(ctx, blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// UpdateBlock сохраняет период действия и флаг активности
func (r *Repository) UpdateBlock(ctx context.Context, block *domain.AvailabilityBlock) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_blocks").
		Set("valid_from", domain.DateOnly(block.ValidFrom)).
		Set("valid_to", domain.DateOnly(block.ValidTo)).
		Set("active", block.Active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": block.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateBlock - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return ErrBlockNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: UpdateBlock - execute update: %v", ErrExecQuery, err)
	}
	block.UpdatedAt = updatedAt.Time
	return nil
}

// SetActive переключает флаг активности блока
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_blocks").
		Set("active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetActive - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetActive - execute update: %v", ErrExecQuery, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetActive - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBlockNotFound
	}
	return nil
}

// ReplaceDayRules заменяет правила блока целиком
func (r *Repository) ReplaceDayRules(ctx context.Context, blockID int64, rules []domain.DayRule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("availability_day_rules").
		Where(squirrel.Eq{"block_id": blockID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceDayRules - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceDayRules - execute delete: %v", ErrExecQuery, err)
	}

	if len(rules) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("availability_day_rules").
		Columns("block_id", "weekday", "start_time", "end_time")
	for _, rule := range rules {
		insertBuilder = insertBuilder.Values(blockID, int(rule.Weekday), rule.StartTime, rule.EndTime)
	}

	query, args, err = insertBuilder.Suffix("RETURNING id").ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceDayRules - build insert query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: ReplaceDayRules - execute insert: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&rules[i].ID); err != nil {
			return fmt.Errorf("%w: ReplaceDayRules - scan id: %v", ErrScanRow, err)
		}
		rules[i].BlockID = blockID
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: ReplaceDayRules - rows error: %v", ErrScanRow, err)
	}
	return nil
}

// SyncProviders приводит набор мастеров блока к providerIDs
// Строки оставшихся мастеров сохраняются, удалённые удаляются, новые добавляются
func (r *Repository) SyncProviders(ctx context.Context, blockID int64, providerIDs []int64) ([]domain.BlockProvider, error) {
	current, err := r.listProviders(ctx, []int64{blockID})
	if err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = struct{}{}
	}

	existing := make(map[int64]struct{}, len(current))
	toDelete := make([]int64, 0)
	for _, p := range current {
		existing[p.ProviderID] = struct{}{}
		if _, ok := wanted[p.ProviderID]; !ok {
			toDelete = append(toDelete, p.ID)
		}
	}

	toInsert := make([]int64, 0)
	for _, id := range providerIDs {
		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}
		toInsert = append(toInsert, id)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	if len(toDelete) > 0 {
		query, args, err := psqlbuilder.Delete("availability_block_providers").
			Where(squirrel.Eq{"id": toDelete}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: SyncProviders - build delete query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("%w: SyncProviders - execute delete: %v", ErrExecQuery, err)
		}
	}

	if len(toInsert) > 0 {
		insertBuilder := psqlbuilder.Insert("availability_block_providers").Columns("block_id", "provider_id")
		for _, id := range toInsert {
			insertBuilder = insertBuilder.Values(blockID, id)
		}
		query, args, err := insertBuilder.ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: SyncProviders - build insert query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("%w: SyncProviders - execute insert: %v", ErrExecQuery, err)
		}
	}

	return r.listProviders(ctx, []int64{blockID})
}

func (r *Repository) loadChildren(ctx context.Context, blocks []*domain.AvailabilityBlock) error {
	if len(blocks) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(blocks))
	byID := make(map[int64]*domain.AvailabilityBlock, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
		byID[b.ID] = b
		b.DayRules = make([]domain.DayRule, 0)
		b.Providers = make([]domain.BlockProvider, 0)
	}

	rules, err := r.listRules(ctx, ids)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if b, ok := byID[rule.BlockID]; ok {
			b.DayRules = append(b.DayRules, rule)
		}
	}

	providers, err := r.listProviders(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range providers {
		if b, ok := byID[p.BlockID]; ok {
			b.Providers = append(b.Providers, p)
		}
	}

	return nil
}

func (r *Repository) listRules(ctx context.Context, blockIDs []int64) ([]domain.DayRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "block_id", "weekday", "start_time", "end_time").
		From("availability_day_rules").
		Where(squirrel.Eq{"block_id": blockIDs}).
		OrderBy("block_id ASC", "weekday ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listRules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listRules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]domain.DayRule, 0)
	for rows.Next() {
		var (
			rule    domain.DayRule
			weekday int
		)
		if err := rows.Scan(&rule.ID, &rule.BlockID, &weekday, &rule.StartTime, &rule.EndTime); err != nil {
			return nil, fmt.Errorf("%w: listRules - scan row: %v", ErrScanRow, err)
		}
		rule.Weekday = time.Weekday(weekday)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listRules - rows error: %v", ErrScanRow, err)
	}
	return rules, nil
}

func (r *Repository) listProviders(ctx context.Context, blockIDs []int64) ([]domain.BlockProvider, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "block_id", "provider_id", "created_at").
		From("availability_block_providers").
		Where(squirrel.Eq{"block_id": blockIDs}).
		OrderBy("block_id ASC", "provider_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listProviders - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listProviders - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	providers := make([]domain.BlockProvider, 0)
	for rows.Next() {
		var (
			p         domain.BlockProvider
			createdAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.BlockID, &p.ProviderID, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: listProviders - scan row: %v", ErrScanRow, err)
		}
		p.CreatedAt = createdAt.Time
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listProviders - rows error: %v", ErrScanRow, err)
	}
	return providers, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*domain.AvailabilityBlock, error) {
	var (
		b                    domain.AvailabilityBlock
		createdAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.ValidFrom, &b.ValidTo, &b.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.ValidFrom = domain.DateOnly(b.ValidFrom)
	b.ValidTo = domain.DateOnly(b.ValidTo)
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time
	return &b, nil
}
