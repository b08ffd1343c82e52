package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"
)

const (
	minYear = 1970
	maxYear = 9999
)

// validatePayload checks the record invariants against the owning user's limits.
// The role title is trimmed in place.
func validatePayload(p *entities.ExperiencePayload, limits entities.Limits) error {
	p.RoleTitle = strings.TrimSpace(p.RoleTitle)
	if p.RoleTitle == "" {
		return common.InvalidInput(constants.ErrCodeRoleTitleRequired, "Role title is required.")
	}
	if utf8.RuneCountInString(p.RoleTitle) > constants.RoleTitleMax {
		return common.InvalidInput(
			constants.ErrCodeRoleTitleTooLong,
			fmt.Sprintf("Role title exceeds limit of %d characters.", constants.RoleTitleMax),
		)
	}
	if err := validateMonthYear(p.StartMonth, p.StartYear); err != nil {
		return err
	}
	if err := validateEndDate(p.StartMonth, p.StartYear, p.EndMonth, p.EndYear); err != nil {
		return err
	}
	if limits.MaxDescriptionChars != constants.Unlimited && utf8.RuneCountInString(p.Description) > limits.MaxDescriptionChars {
		return common.InvalidInput(
			constants.ErrCodeDescriptionTooLong,
			fmt.Sprintf("Description exceeds limit of %d characters.", limits.MaxDescriptionChars),
		)
	}
	return nil
}

// validateEndDate accepts no end date (ongoing) or a complete one not before the start.
func validateEndDate(startMonth, startYear int, endMonth, endYear *int) error {
	if endMonth == nil && endYear == nil {
		return nil
	}
	if endMonth == nil || endYear == nil {
		return common.InvalidInput(constants.ErrCodeEndDateIncomplete, "End month and end year must be given together.")
	}
	if err := validateMonthYear(*endMonth, *endYear); err != nil {
		return err
	}
	if *endYear < startYear || (*endYear == startYear && *endMonth < startMonth) {
		return common.InvalidInput(constants.ErrCodeEndBeforeStart, constants.MsgEndBeforeStart)
	}
	return nil
}

func validateMonthYear(month, year int) error {
	if month < 1 || month > 12 {
		return common.InvalidInput(constants.ErrCodeInvalidMonth, fmt.Sprintf("Month must be between 1 and 12, got %d.", month))
	}
	if year < minYear || year > maxYear {
		return common.InvalidInput(constants.ErrCodeInvalidYear, fmt.Sprintf("Year must be between %d and %d, got %d.", minYear, maxYear, year))
	}
	return nil
}
