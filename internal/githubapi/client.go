package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/go-github/v32/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	pageSizeConstant                        = 100
	noCommitsMessageConstant                = "branch has no commits"
	pullRequestStateOpenConstant            = "open"
	organizationFieldNameConstant           = "organization"
	repositoryFieldNameConstant             = "repository"
	branchFieldNameConstant                 = "branch"
	requiredValueMessageConstant            = "value required"
	invalidBaseURLTemplateConstant          = "invalid base url %q: %w"
	noCommitsTemplateConstant               = "%w: %s@%s"
	operationErrorMessageTemplateConstant   = "%s operation failed for %s"
	operationErrorWithCauseTemplateConstant = "%s operation failed for %s: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	repositoryIdentifierTemplateConstant    = "%s/%s"
	listRepositoriesOperationNameConstant   = OperationName("ListOrganizationRepositories")
	latestCommitOperationNameConstant       = OperationName("LatestCommit")
	fetchManifestOperationNameConstant      = OperationName("FetchManifest")
	repositoryDetailsOperationNameConstant  = OperationName("RepositoryDetails")
	countPullRequestsOperationNameConstant  = OperationName("CountOpenPullRequests")
	pageFetchedMessageConstant              = "fetched repository page"
	logFieldOrganizationConstant            = "organization"
	logFieldPageConstant                    = "page"
	logFieldCountConstant                   = "count"
)

// ErrNoCommits indicates a branch without commits.
var ErrNoCommits = errors.New(noCommitsMessageConstant)

// OperationName describes a named GitHub REST workflow supported by the client.
type OperationName string

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps failures returned by the GitHub REST API.
type OperationError struct {
	Operation  OperationName
	Repository string
	Cause      error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation, operationError.Repository)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Repository, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates response payloads that could not be decoded.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// Options configures the GitHub client.
type Options struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// RepositoryStatistics counts open issues and pull requests of a repository.
type RepositoryStatistics struct {
	Name             string
	FullName         string
	OpenIssues       int
	OpenPullRequests int
}

// Client talks to the GitHub REST API.
type Client struct {
	api    *github.Client
	logger *zap.Logger
}

// NewClient constructs a Client. A token, when present, authenticates every request.
func NewClient(executionContext context.Context, options Options, logger *zap.Logger) (*Client, error) {
	httpClient := options.HTTPClient
	trimmedToken := strings.TrimSpace(options.Token)
	if len(trimmedToken) > 0 {
		if httpClient != nil {
			executionContext = context.WithValue(executionContext, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(executionContext, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken}))
	}

	apiClient := github.NewClient(httpClient)
	trimmedBaseURL := strings.TrimSpace(options.BaseURL)
	if len(trimmedBaseURL) > 0 {
		if !strings.HasSuffix(trimmedBaseURL, "/") {
			trimmedBaseURL += "/"
		}
		parsedURL, parseError := url.Parse(trimmedBaseURL)
		if parseError != nil {
			return nil, fmt.Errorf(invalidBaseURLTemplateConstant, options.BaseURL, parseError)
		}
		apiClient.BaseURL = parsedURL
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: apiClient, logger: logger}, nil
}

// ListOrganizationRepositories enumerates every repository of the organization across all pages.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string) ([]shared.RemoteRepository, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	listOptions := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: pageSizeConstant}}
	var repositories []shared.RemoteRepository
	for {
		page, response, listError := client.api.Repositories.ListByOrg(executionContext, trimmedOrganization, listOptions)
		if listError != nil {
			return nil, OperationError{Operation: listRepositoriesOperationNameConstant, Repository: trimmedOrganization, Cause: listError}
		}
		for _, repository := range page {
			repositories = append(repositories, shared.RemoteRepository{
				Name:          repository.GetName(),
				Archived:      repository.GetArchived(),
				CloneURL:      repository.GetCloneURL(),
				DefaultBranch: repository.GetDefaultBranch(),
				OpenIssues:    repository.GetOpenIssuesCount(),
			})
		}
		client.logger.Debug(
			pageFetchedMessageConstant,
			zap.String(logFieldOrganizationConstant, trimmedOrganization),
			zap.Int(logFieldPageConstant, listOptions.Page),
			zap.Int(logFieldCountConstant, len(page)),
		)
		if response == nil || response.NextPage == 0 {
			break
		}
		listOptions.Page = response.NextPage
	}
	return repositories, nil
}

// LatestCommit returns the newest commit of a remote branch.
func (client *Client) LatestCommit(executionContext context.Context, organization string, repositoryName string, branch string) (shared.CommitMetadata, error) {
	if validationError := validateRepository(organization, repositoryName); validationError != nil {
		return shared.CommitMetadata{}, validationError
	}
	if len(strings.TrimSpace(branch)) == 0 {
		return shared.CommitMetadata{}, InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	repositoryIdentifier := fmt.Sprintf(repositoryIdentifierTemplateConstant, organization, repositoryName)
	commits, _, listError := client.api.Repositories.ListCommits(executionContext, organization, repositoryName, &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if listError != nil {
		return shared.CommitMetadata{}, OperationError{Operation: latestCommitOperationNameConstant, Repository: repositoryIdentifier, Cause: listError}
	}
	if len(commits) == 0 {
		return shared.CommitMetadata{}, fmt.Errorf(noCommitsTemplateConstant, ErrNoCommits, repositoryIdentifier, branch)
	}

	latestCommit := commits[0]
	return shared.CommitMetadata{
		Identifier:    latestCommit.GetSHA(),
		CommitterTime: latestCommit.GetCommit().GetCommitter().GetDate(),
	}, nil
}

// FetchManifest downloads and parses a manifest from the remote branch. A missing file yields an
// absent lookup; any other failure yields a failed lookup.
func (client *Client) FetchManifest(executionContext context.Context, organization string, repositoryName string, branch string, fileName string) manifest.Lookup {
	if validationError := validateRepository(organization, repositoryName); validationError != nil {
		return manifest.Failed(validationError)
	}

	repositoryIdentifier := fmt.Sprintf(repositoryIdentifierTemplateConstant, organization, repositoryName)
	fileContent, _, response, contentError := client.api.Repositories.GetContents(executionContext, organization, repositoryName, fileName, &github.RepositoryContentGetOptions{Ref: branch})
	if contentError != nil {
		if isNotFound(response, contentError) {
			return manifest.Absent()
		}
		return manifest.Failed(OperationError{Operation: fetchManifestOperationNameConstant, Repository: repositoryIdentifier, Cause: contentError})
	}
	if fileContent == nil {
		return manifest.Absent()
	}

	decodedContent, decodeError := fileContent.GetContent()
	if decodeError != nil {
		return manifest.Failed(ResponseDecodingError{Operation: fetchManifestOperationNameConstant, Cause: decodeError})
	}
	return manifest.ParseLookup(repositoryIdentifier+"/"+fileName, []byte(decodedContent))
}

// RepositoryDetails returns the repository document as GitHub reports it, keyed by API field name.
func (client *Client) RepositoryDetails(executionContext context.Context, organization string, repositoryName string) (map[string]any, error) {
	if validationError := validateRepository(organization, repositoryName); validationError != nil {
		return nil, validationError
	}

	repositoryIdentifier := fmt.Sprintf(repositoryIdentifierTemplateConstant, organization, repositoryName)
	repository, _, getError := client.api.Repositories.Get(executionContext, organization, repositoryName)
	if getError != nil {
		return nil, OperationError{Operation: repositoryDetailsOperationNameConstant, Repository: repositoryIdentifier, Cause: getError}
	}

	encodedRepository, encodeError := json.Marshal(repository)
	if encodeError != nil {
		return nil, ResponseDecodingError{Operation: repositoryDetailsOperationNameConstant, Cause: encodeError}
	}
	details := make(map[string]any)
	if decodeError := json.Unmarshal(encodedRepository, &details); decodeError != nil {
		return nil, ResponseDecodingError{Operation: repositoryDetailsOperationNameConstant, Cause: decodeError}
	}
	return details, nil
}

// CountOpenPullRequests counts open pull requests across all pages.
func (client *Client) CountOpenPullRequests(executionContext context.Context, organization string, repositoryName string) (int, error) {
	if validationError := validateRepository(organization, repositoryName); validationError != nil {
		return 0, validationError
	}

	repositoryIdentifier := fmt.Sprintf(repositoryIdentifierTemplateConstant, organization, repositoryName)
	listOptions := &github.PullRequestListOptions{State: pullRequestStateOpenConstant, ListOptions: github.ListOptions{PerPage: pageSizeConstant}}
	openPullRequests := 0
	for {
		pullRequests, response, listError := client.api.PullRequests.List(executionContext, organization, repositoryName, listOptions)
		if listError != nil {
			return 0, OperationError{Operation: countPullRequestsOperationNameConstant, Repository: repositoryIdentifier, Cause: listError}
		}
		openPullRequests += len(pullRequests)
		if response == nil || response.NextPage == 0 {
			break
		}
		listOptions.Page = response.NextPage
	}
	return openPullRequests, nil
}

// RepositoryStatistics combines the open issue counter of a listed repository with its open pull
// requests. GitHub counts pull requests as issues, so they are subtracted.
func (client *Client) RepositoryStatistics(executionContext context.Context, organization string, repository shared.RemoteRepository) (RepositoryStatistics, error) {
	openPullRequests, countError := client.CountOpenPullRequests(executionContext, organization, repository.Name)
	if countError != nil {
		return RepositoryStatistics{}, countError
	}
	openIssues := repository.OpenIssues - openPullRequests
	if openIssues < 0 {
		openIssues = 0
	}
	return RepositoryStatistics{
		Name:             repository.Name,
		FullName:         fmt.Sprintf(repositoryIdentifierTemplateConstant, organization, repository.Name),
		OpenIssues:       openIssues,
		OpenPullRequests: openPullRequests,
	}, nil
}

func validateRepository(organization string, repositoryName string) error {
	if len(strings.TrimSpace(organization)) == 0 {
		return InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(repositoryName)) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func isNotFound(response *github.Response, responseError error) bool {
	if response != nil && response.Response != nil && response.StatusCode == http.StatusNotFound {
		return true
	}
	var errorResponse *github.ErrorResponse
	if errors.As(responseError, &errorResponse) && errorResponse.Response != nil {
		return errorResponse.Response.StatusCode == http.StatusNotFound
	}
	return false
}
