package constants

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
)

const (
	RequestSourceSession RequestSource = "SESSION"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixGuildCooldown CachePrefix = "guild_list_cooldown:"
	CachePrefixUserSlug      CachePrefix = "user_slug:"
	CachePrefixServerSlug    CachePrefix = "server_slug:"
	CachePrefixSession       CachePrefix = "session:"
	CachePrefixUsedPayment   CachePrefix = "used_payment:"
)

// Feature limits per entitlement tier.
const (
	ExperienceLimitFree = 5

	DescriptionLimitFree    = 200
	DescriptionLimitPremium = 3000

	SocialLimitFree    = 3
	SocialLimitPremium = 10

	// Unlimited marks a limit that does not apply.
	Unlimited = -1
)

const (
	SessionCookieName = "servercv_session"

	// Discord embeds reject field values above this size.
	NotificationDescriptionMax = 1024

	RoleTitleMax = 100

	UpgradePath = "/premium"
)
