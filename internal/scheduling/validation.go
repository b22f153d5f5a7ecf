package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ValidateBlock проверяет блок доступности перед сохранением
// Возвращает *domain.InvalidAvailabilityError
func ValidateBlock(block *domain.AvailabilityBlock) error {
	if block.ValidFrom.IsZero() || block.ValidTo.IsZero() {
		return domain.NewInvalidAvailability("validFrom and validTo are required")
	}
	if domain.DateOnly(block.ValidFrom).After(domain.DateOnly(block.ValidTo)) {
		return domain.NewInvalidAvailability("validFrom must not be after validTo")
	}

	if err := ValidateDayRules(block.DayRules); err != nil {
		return err
	}

	for _, p := range block.Providers {
		if p.ProviderID <= 0 {
			return domain.NewInvalidAvailability(fmt.Sprintf("provider id must be positive, got %d", p.ProviderID))
		}
	}

	return nil
}

// ValidateDayRules проверяет формат правил и отсутствие пересечений в пределах одного дня недели
func ValidateDayRules(rules []domain.DayRule) error {
	byWeekday := make(map[time.Weekday][]domain.DayRule)

	for i := range rules {
		rule := rules[i]
		if rule.Weekday < time.Sunday || rule.Weekday > time.Saturday {
			return &domain.InvalidAvailabilityError{Rule: &rule, Reason: "weekday must be in 0..6"}
		}
		if err := rule.StartTime.Validate(); err != nil || rule.StartTime.String() == "24:00" {
			return &domain.InvalidAvailabilityError{Rule: &rule, Reason: "malformed start time"}
		}
		if err := rule.EndTime.Validate(); err != nil {
			return &domain.InvalidAvailabilityError{Rule: &rule, Reason: "malformed end time"}
		}
		if !rule.StartTime.IsBefore(rule.EndTime) {
			return &domain.InvalidAvailabilityError{Rule: &rule, Reason: "start time must be before end time"}
		}
		byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], rule)
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		dayRules := byWeekday[wd]
		sort.SliceStable(dayRules, func(i, j int) bool {
			return dayRules[i].StartTime.IsBefore(dayRules[j].StartTime)
		})
		for i := 1; i < len(dayRules); i++ {
			if dayRules[i].StartTime.IsBefore(dayRules[i-1].EndTime) {
				rule := dayRules[i]
				return &domain.InvalidAvailabilityError{Rule: &rule, Reason: "overlaps another rule on the same weekday"}
			}
		}
	}

	return nil
}
