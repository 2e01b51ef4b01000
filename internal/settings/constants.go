package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the portal site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback portal site name.
	DefaultSiteName = "Payroll Billing"
	// RulePollIntervalSecondsKey controls the rule refresh interval in seconds.
	RulePollIntervalSecondsKey = "RULE_POLL_INTERVAL_SECONDS"
	// DefaultRulePollIntervalSeconds is the fallback rule refresh interval (seconds).
	DefaultRulePollIntervalSeconds = 60
	// QuoteCacheTTLSecondsKey controls how long cached quotes stay valid.
	QuoteCacheTTLSecondsKey = "QUOTE_CACHE_TTL_SECONDS"
	// DefaultQuoteCacheTTLSeconds is the fallback quote cache TTL (seconds).
	DefaultQuoteCacheTTLSeconds = 300
	// NewClientPromoFromKey is the RFC 3339 start of the new-client promo window.
	NewClientPromoFromKey = "NEW_CLIENT_PROMO_FROM"
	// NewClientPromoUntilKey is the RFC 3339 end of the new-client promo window.
	NewClientPromoUntilKey = "NEW_CLIENT_PROMO_UNTIL"
	// DefaultBundleDiscountPercentKey sets the bundle discount used when a
	// quote request does not supply one.
	DefaultBundleDiscountPercentKey = "DEFAULT_BUNDLE_DISCOUNT_PERCENT"
	// DefaultBundleDiscountPercent is the fallback bundle discount.
	DefaultBundleDiscountPercent = 0
)
