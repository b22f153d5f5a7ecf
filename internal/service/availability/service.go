package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

// Service сервис управления блоками доступности
type Service struct {
	blockRepo BlockRepository
	directory ProviderDirectory
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса блоков доступности
func NewService(
	blockRepo BlockRepository,
	directory ProviderDirectory,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		blockRepo: blockRepo,
		directory: directory,
		txManager: txManager,
		logger:    logger,
	}
}

// Create создает блок доступности с правилами и мастерами
func (s *Service) Create(ctx context.Context, req *models.CreateBlockRequest) (*domain.AvailabilityBlock, error) {
	s.logger.Info("Create: availability block %s..%s, rules=%d, providers=%v",
		req.ValidFrom.Format(domain.DateFormat), req.ValidTo.Format(domain.DateFormat), len(req.DayRules), req.ProviderIDs)

	providerIDs, err := s.checkProviders(ctx, req.ProviderIDs)
	if err != nil {
		return nil, err
	}

	block := &domain.AvailabilityBlock{
		ValidFrom: domain.DateOnly(req.ValidFrom),
		ValidTo:   domain.DateOnly(req.ValidTo),
		Active:    req.Active == nil || *req.Active,
		DayRules:  models.ToDomainRules(req.DayRules),
		Providers: models.ToDomainProviders(providerIDs),
	}

	if err := scheduling.ValidateBlock(block); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	var created *domain.AvailabilityBlock
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		created, err = s.blockRepo.Create(txCtx, block)
		return err
	})
	if err != nil {
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", domain.ErrInternal, err)
	}

	s.logger.Info("Create: availability block id=%d created", created.ID)
	return created, nil
}

// Update частично обновляет блок. Правила и мастера, если переданы, заменяются целиком
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateBlockRequest) (*domain.AvailabilityBlock, error) {
	s.logger.Info("Update: availability block id=%d", id)

	var providerIDs []int64
	if req.ProviderIDs != nil {
		checked, err := s.checkProviders(ctx, *req.ProviderIDs)
		if err != nil {
			return nil, err
		}
		providerIDs = checked
	}

	var updated *domain.AvailabilityBlock
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		block, err := s.getBlock(txCtx, "Update", id)
		if err != nil {
			return err
		}

		if req.ValidFrom != nil {
			block.ValidFrom = domain.DateOnly(*req.ValidFrom)
		}
		if req.ValidTo != nil {
			block.ValidTo = domain.DateOnly(*req.ValidTo)
		}
		if req.Active != nil {
			block.Active = *req.Active
		}
		if req.DayRules != nil {
			block.DayRules = models.ToDomainRules(*req.DayRules)
		}
		if req.ProviderIDs != nil {
			block.Providers = models.ToDomainProviders(providerIDs)
		} else if block.Active {
			// Оставшиеся в блоке мастера могли быть отключены в справочнике после создания
			if _, err := s.checkProviders(txCtx, block.ProviderIDs()); err != nil {
				return err
			}
		}

		if err := scheduling.ValidateBlock(block); err != nil {
			s.logger.Warn("Update: validation failed for block id=%d: %v", id, err)
			return err
		}

		if err := s.blockRepo.UpdateBlock(txCtx, block); err != nil {
			return s.repoError("Update", id, err)
		}
		if req.DayRules != nil {
			if err := s.blockRepo.ReplaceDayRules(txCtx, id, block.DayRules); err != nil {
				return s.repoError("Update", id, err)
			}
		}
		if req.ProviderIDs != nil {
			if _, err := s.blockRepo.SyncProviders(txCtx, id, providerIDs); err != nil {
				return s.repoError("Update", id, err)
			}
		}

		updated, err = s.getBlock(txCtx, "Update", id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Update: availability block id=%d updated", id)
	return updated, nil
}

// Deactivate мягко удаляет блок. Повторный вызов ничего не меняет, записи не затрагиваются
func (s *Service) Deactivate(ctx context.Context, id int64) (*domain.AvailabilityBlock, error) {
	s.logger.Info("Deactivate: availability block id=%d", id)

	var result *domain.AvailabilityBlock
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		block, err := s.getBlock(txCtx, "Deactivate", id)
		if err != nil {
			return err
		}
		if !block.Active {
			result = block
			return nil
		}

		if err := s.blockRepo.SetActive(txCtx, id, false); err != nil {
			return s.repoError("Deactivate", id, err)
		}

		result, err = s.getBlock(txCtx, "Deactivate", id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetByID получает блок по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.AvailabilityBlock, error) {
	return s.getBlock(ctx, "GetByID", id)
}

// ListForProvider возвращает блоки, в которые входит мастер
func (s *Service) ListForProvider(ctx context.Context, providerID int64, activeOnly bool) ([]*domain.AvailabilityBlock, error) {
	if providerID <= 0 {
		return nil, fmt.Errorf("%w: providerId must be positive", domain.ErrInvalidInput)
	}

	blocks, err := s.blockRepo.List(ctx, domain.BlockFilter{ProviderID: &providerID, ActiveOnly: activeOnly})
	if err != nil {
		s.logger.Error("ListForProvider: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ListForProvider - repository error: %v", domain.ErrInternal, err)
	}

	s.logger.Info("ListForProvider: %d blocks for provider=%d (activeOnly=%t)", len(blocks), providerID, activeOnly)
	return blocks, nil
}

// checkProviders убирает дубликаты и проверяет, что все мастера активны в справочнике
func (s *Service) checkProviders(ctx context.Context, ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))

	for _, id := range ids {
		if id <= 0 {
			return nil, domain.NewInvalidAvailability(fmt.Sprintf("provider id must be positive, got %d", id))
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		active, err := s.directory.IsActiveProvider(ctx, id)
		if err != nil {
			s.logger.Error("checkProviders: directory error for provider=%d: %v", id, err)
			return nil, fmt.Errorf("%w: checkProviders - directory error: %v", domain.ErrInternal, err)
		}
		if !active {
			s.logger.Warn("checkProviders: provider=%d is not an active provider", id)
			return nil, domain.NewInvalidAvailability(fmt.Sprintf("provider %d is not an active provider", id))
		}
		result = append(result, id)
	}

	return result, nil
}

func (s *Service) getBlock(ctx context.Context, op string, id int64) (*domain.AvailabilityBlock, error) {
	block, err := s.blockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError(op, id, err)
	}
	return block, nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	if errors.Is(err, availabilityRepo.ErrBlockNotFound) {
		s.logger.Warn("%s: availability block id=%d not found", op, id)
		return domain.ErrBlockNotFound
	}
	s.logger.Error("%s: repository error for block id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", domain.ErrInternal, op, err)
}
