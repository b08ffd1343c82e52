package constants

// Machine readable error codes returned alongside the error kind.
const (
	// Input validation
	ErrCodeInvalidMonth        = "INVALID_MONTH"
	ErrCodeInvalidYear         = "INVALID_YEAR"
	ErrCodeEndDateIncomplete   = "END_DATE_INCOMPLETE"
	ErrCodeEndBeforeStart      = "END_BEFORE_START"
	ErrCodeRoleTitleRequired   = "ROLE_TITLE_REQUIRED"
	ErrCodeRoleTitleTooLong    = "ROLE_TITLE_TOO_LONG"
	ErrCodeDescriptionTooLong  = "DESCRIPTION_TOO_LONG"
	ErrCodeInvalidVanity       = "INVALID_VANITY"
	ErrCodeVanityTaken         = "VANITY_TAKEN"
	ErrCodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
	ErrCodeInvalidPaymentToken = "INVALID_PAYMENT_TOKEN"

	// Authorization
	ErrCodeNotAuthorized   = "NOT_AUTHORIZED"
	ErrCodeNotRecordOwner  = "NOT_RECORD_OWNER"
	ErrCodePremiumRequired = "PREMIUM_REQUIRED"
	ErrCodeNotGuildMember  = "NOT_GUILD_MEMBER"
	ErrCodeSessionRequired = "SESSION_REQUIRED"

	// State
	ErrCodeRecordNotFound   = "RECORD_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeServerNotFound   = "SERVER_NOT_FOUND"
	ErrCodeNotPending       = "NOT_PENDING"
	ErrCodeNotApproved      = "NOT_APPROVED"
	ErrCodeConcurrentUpdate = "CONCURRENT_UPDATE"

	// Entitlements and throttling
	ErrCodeExperienceLimit = "EXPERIENCE_LIMIT"
	ErrCodeSocialLimit     = "SOCIAL_LINK_LIMIT"
	ErrCodeVanityPremium   = "VANITY_REQUIRES_PREMIUM"
	ErrCodeRateLimited     = "RATE_LIMITED"

	// Dependencies
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeDiscordUnavailable = "DISCORD_UNAVAILABLE"
	ErrCodeCacheUnavailable   = "CACHE_UNAVAILABLE"
)

const (
	MsgNotAuthorized     = "Not authorized"
	MsgCannotApprove     = "Cannot approve this request"
	MsgCannotEdit        = "Cannot edit this experience"
	MsgExperienceLimit   = "Free accounts can hold up to 5 experiences. Upgrade to Premium for unlimited experiences."
	MsgEndBeforeStart    = "End date cannot be before start date."
	MsgVanityFormat      = "Only alphanumeric characters and underscores allowed."
	MsgVanityTaken       = "Vanity URL already taken."
	MsgVanityPremium     = "Vanity URLs are a Premium feature."
	MsgPremiumRequired   = "Premium required"
	MsgRateLimited       = "Rate limit exceeded. Please wait 5 seconds and reload the page."
	MsgSessionRequired   = "Not authenticated"
	MsgPaymentTokenUsed  = "Payment confirmation already used"
	MsgPaymentTokenWrong = "Payment confirmation does not belong to this user"
)
