package info

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/gitrepo"
)

const (
	detailsReaderNotConfiguredMessage = "repository details reader not configured"
	organizationRequiredMessage       = "organization is required to describe %s"
	repositoryNameMissingMessage      = "unable to derive a repository name from %s"
	detailsFailedTemplateConstant     = "unable to describe %s/%s: %w"
	originUnavailableMessageConstant  = "origin remote unavailable, using directory name"
	describingMessageConstant         = "describing repository"
	logFieldPathConstant              = "path"
	logFieldRepositoryConstant        = "repository"
)

// ErrDetailsReaderNotConfigured indicates the service lacks a details reader.
var ErrDetailsReaderNotConfigured = errors.New(detailsReaderNotConfiguredMessage)

// DetailsReader fetches the GitHub document of a repository.
type DetailsReader interface {
	RepositoryDetails(executionContext context.Context, organization string, repositoryName string) (map[string]any, error)
}

// OriginReader reads the origin remote URL of a checkout.
type OriginReader interface {
	OriginRemoteURL(repositoryPath string) (string, error)
}

// Options configures a lookup.
type Options struct {
	Organization     string
	WorkingDirectory string
	// Fields restricts the document to the named top-level fields; unknown fields are ignored.
	Fields []string
}

// Target identifies the repository being described.
type Target struct {
	Organization string
	Repository   string
}

// Service describes repositories.
type Service struct {
	details DetailsReader
	origin  OriginReader
	logger  *zap.Logger
}

// NewService constructs a Service. The origin reader is optional.
func NewService(details DetailsReader, origin OriginReader, logger *zap.Logger) (*Service, error) {
	if details == nil {
		return nil, ErrDetailsReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{details: details, origin: origin, logger: logger}, nil
}

// ResolveTarget names the repository of the working directory. The origin remote wins when it parses as a
// GitHub remote; otherwise the directory name is used with the configured organization.
func (service *Service) ResolveTarget(workingDirectory string, organization string) (Target, error) {
	target := Target{Organization: strings.TrimSpace(organization), Repository: filepath.Base(filepath.Clean(workingDirectory))}

	if service.origin != nil {
		remote, remoteError := service.origin.OriginRemoteURL(workingDirectory)
		if remoteError == nil {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(remote)
			remoteError = parseError
			if parseError == nil {
				target.Repository = parsedRemote.Repository
				if len(target.Organization) == 0 {
					target.Organization = parsedRemote.Owner
				}
			}
		}
		if remoteError != nil {
			service.logger.Debug(originUnavailableMessageConstant, zap.String(logFieldPathConstant, workingDirectory), zap.Error(remoteError))
		}
	}

	if len(target.Repository) == 0 || target.Repository == "." || target.Repository == string(filepath.Separator) {
		return Target{}, fmt.Errorf(repositoryNameMissingMessage, workingDirectory)
	}
	if len(target.Organization) == 0 {
		return Target{}, fmt.Errorf(organizationRequiredMessage, target.Repository)
	}
	return target, nil
}

// Describe returns the GitHub document of the working directory repository.
func (service *Service) Describe(executionContext context.Context, options Options) (map[string]any, error) {
	target, targetError := service.ResolveTarget(options.WorkingDirectory, options.Organization)
	if targetError != nil {
		return nil, targetError
	}
	service.logger.Debug(describingMessageConstant, zap.String(logFieldRepositoryConstant, target.Organization+"/"+target.Repository))

	document, detailsError := service.details.RepositoryDetails(executionContext, target.Organization, target.Repository)
	if detailsError != nil {
		return nil, fmt.Errorf(detailsFailedTemplateConstant, target.Organization, target.Repository, detailsError)
	}
	return SelectFields(document, options.Fields), nil
}

// SelectFields keeps the requested top-level fields. Without requested fields the document is returned as is.
func SelectFields(document map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return document
	}
	selected := make(map[string]any, len(fields))
	for _, field := range fields {
		trimmedField := strings.TrimSpace(field)
		if value, exists := document[trimmedField]; exists {
			selected[trimmedField] = value
		}
	}
	return selected
}
