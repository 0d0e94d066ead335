package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

const (
	// DefaultRegistryURLConstant is the public npm registry.
	DefaultRegistryURLConstant = "https://registry.npmjs.org"
	// DefaultCacheSizeConstant bounds the number of cached latest versions.
	DefaultCacheSizeConstant = 1024
	// DefaultCacheTTLConstant bounds how long a latest version stays cached.
	DefaultCacheTTLConstant = 10 * time.Minute

	distTagsPathConstant             = "/-/package/{package}/dist-tags"
	packagePathParameterConstant     = "package"
	latestTagConstant                = "latest"
	packageNameRequiredMessage       = "package name required"
	registryRequestErrorTemplate     = "registry request for %s failed: %w"
	registryStatusErrorTemplate      = "registry returned %s for %s"
	latestTagMissingTemplateConstant = "registry has no latest tag for %s"
	cacheHitMessageConstant          = "registry cache hit"
	logFieldPackageConstant          = "package"
)

// ErrPackageNameRequired indicates an empty package name.
var ErrPackageNameRequired = errors.New(packageNameRequiredMessage)

// RegistryOptions configures a RegistryClient.
type RegistryOptions struct {
	BaseURL   string
	Token     string
	CacheSize int
	CacheTTL  time.Duration
}

// RegistryClient resolves the latest published version of packages, caching answers.
type RegistryClient struct {
	httpClient *req.Client
	cache      *expirable.LRU[string, string]
	logger     *zap.Logger
}

// NewRegistryClient constructs a RegistryClient.
func NewRegistryClient(options RegistryOptions, logger *zap.Logger) *RegistryClient {
	baseURL := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if len(baseURL) == 0 {
		baseURL = DefaultRegistryURLConstant
	}
	cacheSize := options.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSizeConstant
	}
	cacheTTL := options.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTLConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := req.C().SetBaseURL(baseURL).SetJsonUnmarshal(json.Unmarshal)
	if trimmedToken := strings.TrimSpace(options.Token); len(trimmedToken) > 0 {
		httpClient.SetCommonBearerAuthToken(trimmedToken)
	}

	return &RegistryClient{
		httpClient: httpClient,
		cache:      expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
		logger:     logger,
	}
}

// LatestVersion returns the version carrying the latest dist-tag.
func (client *RegistryClient) LatestVersion(executionContext context.Context, packageName string) (string, error) {
	trimmedName := strings.TrimSpace(packageName)
	if len(trimmedName) == 0 {
		return "", ErrPackageNameRequired
	}
	if cachedVersion, cached := client.cache.Get(trimmedName); cached {
		client.logger.Debug(cacheHitMessageConstant, zap.String(logFieldPackageConstant, trimmedName))
		return cachedVersion, nil
	}

	distTags := make(map[string]string)
	response, requestError := client.httpClient.R().
		SetContext(executionContext).
		SetPathParam(packagePathParameterConstant, trimmedName).
		SetSuccessResult(&distTags).
		Get(distTagsPathConstant)
	if requestError != nil {
		return "", fmt.Errorf(registryRequestErrorTemplate, trimmedName, requestError)
	}
	if response.IsErrorState() {
		return "", fmt.Errorf(registryStatusErrorTemplate, response.Status, trimmedName)
	}

	latestVersion, hasLatest := distTags[latestTagConstant]
	if !hasLatest || len(strings.TrimSpace(latestVersion)) == 0 {
		return "", fmt.Errorf(latestTagMissingTemplateConstant, trimmedName)
	}
	client.cache.Add(trimmedName, latestVersion)
	return latestVersion, nil
}
