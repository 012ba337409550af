package config

const (
	EnvPrefix = "PACKFINDERZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "PACKFINDERZ_APP_ENV"
	EnvPort   = "PACKFINDERZ_APP_PORT"

	EnvDBDSN  = "PACKFINDERZ_DB_DSN"
	EnvDBHost = "PACKFINDERZ_DB_HOST"
	EnvDBUser = "PACKFINDERZ_DB_USER"
	EnvDBName = "PACKFINDERZ_DB_NAME"

	EnvRedisURL  = "PACKFINDERZ_REDIS_URL"
	EnvUseSQLite = "PACKFINDERZ_USE_SQLITE"

	EnvIntroDiscountCap = "PACKFINDERZ_INTRO_DISCOUNT_CAP_CENTS"
	EnvMilestoneSize    = "PACKFINDERZ_LOYALTY_MILESTONE_SIZE"
	EnvRewardKind       = "PACKFINDERZ_LOYALTY_REWARD_KIND"
	EnvRewardCents      = "PACKFINDERZ_LOYALTY_REWARD_CENTS"
	EnvGiftProductID    = "PACKFINDERZ_LOYALTY_GIFT_PRODUCT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
