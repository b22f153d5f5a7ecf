package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модели

// DayRuleInput правило дня недели во входящем запросе
type DayRuleInput struct {
	Weekday   int              `json:"weekday"` // 0 = воскресенье
	StartTime types.TimeString `json:"startTime"`
	EndTime   types.TimeString `json:"endTime"`
}

// CreateBlockRequest запрос на создание блока доступности
type CreateBlockRequest struct {
	ValidFrom   time.Time
	ValidTo     time.Time
	Active      *bool // по умолчанию true
	DayRules    []DayRuleInput
	ProviderIDs []int64
}

// UpdateBlockRequest частичное обновление блока
// nil означает "не менять"; переданные правила и мастера заменяют текущие целиком
type UpdateBlockRequest struct {
	ValidFrom   *time.Time
	ValidTo     *time.Time
	Active      *bool
	DayRules    *[]DayRuleInput
	ProviderIDs *[]int64
}

// ToDomainRules конвертирует правила запроса в domain модели
func ToDomainRules(inputs []DayRuleInput) []domain.DayRule {
	rules := make([]domain.DayRule, 0, len(inputs))
	for _, in := range inputs {
		rules = append(rules, domain.DayRule{
			Weekday:   time.Weekday(in.Weekday),
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
		})
	}
	return rules
}

// ToDomainProviders строит строки связи блока с мастерами (без ID)
func ToDomainProviders(ids []int64) []domain.BlockProvider {
	providers := make([]domain.BlockProvider, 0, len(ids))
	for _, id := range ids {
		providers = append(providers, domain.BlockProvider{ProviderID: id})
	}
	return providers
}

// Response модели

// DayRuleResponse правило дня недели
type DayRuleResponse struct {
	ID        int64  `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// BlockProviderResponse привязка мастера к блоку
type BlockProviderResponse struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"providerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BlockResponse ответ с данными блока доступности
type BlockResponse struct {
	ID        int64                   `json:"id"`
	ValidFrom string                  `json:"validFrom"` // "2025-03-10"
	ValidTo   string                  `json:"validTo"`
	Active    bool                    `json:"active"`
	DayRules  []DayRuleResponse       `json:"dayRules"`
	Providers []BlockProviderResponse `json:"providers"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// BlockListResponse ответ со списком блоков
type BlockListResponse struct {
	Blocks []BlockResponse `json:"blocks"`
}

// FromDomainBlock конвертирует domain модель в DTO
func FromDomainBlock(b *domain.AvailabilityBlock) *BlockResponse {
	if b == nil {
		return nil
	}

	resp := &BlockResponse{
		ID:        b.ID,
		ValidFrom: b.ValidFrom.Format(domain.DateFormat),
		ValidTo:   b.ValidTo.Format(domain.DateFormat),
		Active:    b.Active,
		DayRules:  make([]DayRuleResponse, 0, len(b.DayRules)),
		Providers: make([]BlockProviderResponse, 0, len(b.Providers)),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}

	for _, r := range b.DayRules {
		resp.DayRules = append(resp.DayRules, DayRuleResponse{
			ID:        r.ID,
			Weekday:   int(r.Weekday),
			StartTime: r.StartTime.String(),
			EndTime:   r.EndTime.String(),
		})
	}
	for _, p := range b.Providers {
		resp.Providers = append(resp.Providers, BlockProviderResponse{
			ID:         p.ID,
			ProviderID: p.ProviderID,
			CreatedAt:  p.CreatedAt,
		})
	}

	return resp
}

// FromDomainBlockList конвертирует список блоков в DTO
func FromDomainBlockList(blocks []*domain.AvailabilityBlock) *BlockListResponse {
	resp := &BlockListResponse{Blocks: make([]BlockResponse, 0, len(blocks))}
	for _, b := range blocks {
		if r := FromDomainBlock(b); r != nil {
			resp.Blocks = append(resp.Blocks, *r)
		}
	}
	return resp
}
