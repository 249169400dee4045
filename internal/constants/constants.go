package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Platform endpoints.
const (
	// LiveBaseURL is the production API host.
	LiveBaseURL = "https://api-m.paypal.com"

	// SandboxBaseURL is the sandbox API host.
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"

	// EnvironmentLive selects LiveBaseURL.
	EnvironmentLive = "live"

	// EnvironmentSandbox selects SandboxBaseURL.
	EnvironmentSandbox = "sandbox"
)

// API paths.
const (
	// APIPathToken is the OAuth2 token endpoint.
	APIPathToken = "/v1/oauth2/token"

	// APIPathPlans is the billing plans collection.
	APIPathPlans = "/v1/billing/plans"

	// APIPathProducts is the catalog products collection.
	APIPathProducts = "/v1/catalogs/products"
)

// HTTP headers and values.
const (
	HeaderAuthorization  = "Authorization"
	HeaderContentType    = "Content-Type"
	HeaderAccept         = "Accept"
	HeaderAcceptLanguage = "Accept-Language"
	HeaderPrefer         = "Prefer"
	HeaderRequestID      = "PayPal-Request-Id"

	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	PreferRepresentation = "return=representation"
	DefaultLanguage      = "en_US"

	// GrantTypeClientCredentials is the only grant this client performs.
	GrantTypeClientCredentials = "client_credentials"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Credential exchange.
const (
	// ExchangeCooldown is the wait before each token exchange attempt.
	ExchangeCooldown = 500 * time.Millisecond

	// RenewalMargin is subtracted from expires_in when scheduling renewal.
	RenewalMargin = 3 * time.Second

	// DefaultExchangeMaxAttempts bounds the credential exchange loop.
	DefaultExchangeMaxAttempts = 10

	// DefaultExchangeMaxElapsed bounds the total time spent exchanging.
	DefaultExchangeMaxElapsed = 2 * time.Minute

	// DefaultExchangeMaxInterval caps the backoff between exchange attempts.
	DefaultExchangeMaxInterval = 30 * time.Second

	// DefaultExchangeMultiplier grows the wait between exchange attempts.
	DefaultExchangeMultiplier = 2.0
)

// Retry limits for the transport.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Pagination.
const (
	// PageSize is the fixed page size used by bulk fetches.
	PageSize = 20

	// MaxPlanIDs is the maximum number of plan ids in a list filter.
	MaxPlanIDs = 10

	// MaxPlanIDsLength is the maximum length of the joined plan_ids filter.
	MaxPlanIDsLength = 270

	// MaxProductIDLength bounds product_id filters and lookups.
	MaxProductIDLength = 50
)

// Plan statuses.
const (
	PlanStatusCreated  = "CREATED"
	PlanStatusActive   = "ACTIVE"
	PlanStatusInactive = "INACTIVE"
)

// Billing cycle vocabulary.
const (
	TenureTrial   = "TRIAL"
	TenureRegular = "REGULAR"

	PricingModelVolume = "VOLUME"
	PricingModelTiered = "TIERED"

	IntervalDay   = "DAY"
	IntervalWeek  = "WEEK"
	IntervalMonth = "MONTH"
	IntervalYear  = "YEAR"

	SetupFeeFailureCancel   = "CANCEL"
	SetupFeeFailureContinue = "CONTINUE"

	// MaxTrialCycles is the number of TRIAL cycles a plan may carry.
	MaxTrialCycles = 2
)

// Product types.
const (
	ProductTypePhysical = "PHYSICAL"
	ProductTypeDigital  = "DIGITAL"
	ProductTypeService  = "SERVICE"
)

// Cache sizing.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// DefaultNATSBucket is the JetStream KV bucket used by the NATS cache.
	DefaultNATSBucket = "paybill_cache"
)

// Display.
const (
	// JSONIndentSize is the number of spaces for JSON and YAML indentation.
	JSONIndentSize = 2

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// CLI configuration.
const (
	// ConfigDirName is the directory under the user's home holding the CLI config.
	ConfigDirName = ".paybill"

	// ConfigFileName is the CLI config file inside ConfigDirName.
	ConfigFileName = "config.yml"

	// EnvPrefix prefixes environment variables read by the CLI.
	EnvPrefix = "PAYBILL"
)
