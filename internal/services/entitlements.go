package services

import (
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
)

var (
	freeLimits = entities.Limits{
		MaxExperiences:      constants.ExperienceLimitFree,
		MaxDescriptionChars: constants.DescriptionLimitFree,
		MaxSocialLinks:      constants.SocialLimitFree,
		VanityAllowed:       false,
	}
	premiumLimits = entities.Limits{
		MaxExperiences:      constants.Unlimited,
		MaxDescriptionChars: constants.DescriptionLimitPremium,
		MaxSocialLinks:      constants.SocialLimitPremium,
		VanityAllowed:       true,
	}
)

// LimitsFor returns the entitlement limits of the user's tier.
func LimitsFor(user *gormModels.User) entities.Limits {
	if user != nil && user.IsPremium {
		return premiumLimits
	}
	return freeLimits
}
