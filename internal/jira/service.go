package jira

import (
	"context"
	"net/url"
	"time"
)

// Service is the client surface shared by the HTTP client and the in-memory
// mock. Every operation returns JSON shaped values and *jiraerr.Error
// failures so callers do not need to know which backend they hold.
type Service interface {
	Get(ctx context.Context, path string, query url.Values) (map[string]any, error)
	Post(ctx context.Context, path string, body any) (map[string]any, error)
	Put(ctx context.Context, path string, body any) (map[string]any, error)
	Delete(ctx context.Context, path string, query url.Values) (map[string]any, error)

	// issues
	GetIssue(ctx context.Context, key string, opts GetIssueOptions) (map[string]any, error)
	CreateIssue(ctx context.Context, fields map[string]any) (map[string]any, error)
	CreateIssuesBulk(ctx context.Context, issues []map[string]any) (map[string]any, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]any) error
	DeleteIssue(ctx context.Context, key string, deleteSubtasks bool) error
	GetTransitions(ctx context.Context, key string) ([]map[string]any, error)
	TransitionIssue(ctx context.Context, key, transitionID string, opts TransitionOptions) error
	AssignIssue(ctx context.Context, key, accountID string) error
	GetCreateIssueMetaIssueTypes(ctx context.Context, projectKey string, startAt, maxResults int) (map[string]any, error)
	GetCreateIssueMetaFields(ctx context.Context, projectKey, issueTypeID string, startAt, maxResults int) (map[string]any, error)

	// search
	SearchIssues(ctx context.Context, jql string, opts SearchOptions) (map[string]any, error)
	AdvancedSearch(ctx context.Context, jql string, opts SearchOptions) (map[string]any, error)
	CountIssues(ctx context.Context, jql string) (int, error)
	SearchIssuesByKeys(ctx context.Context, keys []string) ([]map[string]any, error)
	ValidateJQL(ctx context.Context, jql string) (map[string]any, error)
	ExportSearchResults(ctx context.Context, jql string, opts ExportOptions) (map[string]any, error)

	// filters
	CreateFilter(ctx context.Context, name, jql string, opts FilterOptions) (map[string]any, error)
	GetFilter(ctx context.Context, id string) (map[string]any, error)
	UpdateFilter(ctx context.Context, id string, upd FilterUpdate) (map[string]any, error)
	DeleteFilter(ctx context.Context, id string) error
	SearchFilters(ctx context.Context, name string, startAt, maxResults int) (map[string]any, error)
	SetFilterFavourite(ctx context.Context, id string, favourite bool) (map[string]any, error)
	GetMyFilters(ctx context.Context) ([]map[string]any, error)
	GetFavouriteFilters(ctx context.Context) ([]map[string]any, error)

	// comments and watchers
	GetComments(ctx context.Context, key string, startAt, maxResults int) (map[string]any, error)
	GetComment(ctx context.Context, key, commentID string) (map[string]any, error)
	AddComment(ctx context.Context, key string, body any) (map[string]any, error)
	UpdateComment(ctx context.Context, key, commentID string, body any) (map[string]any, error)
	DeleteComment(ctx context.Context, key, commentID string) error
	GetWatchers(ctx context.Context, key string) (map[string]any, error)
	AddWatcher(ctx context.Context, key, accountID string) error
	RemoveWatcher(ctx context.Context, key, accountID string) error

	// worklogs and time tracking
	AddWorklog(ctx context.Context, key string, opts WorklogOptions) (map[string]any, error)
	GetWorklogs(ctx context.Context, key string, startAt, maxResults int) (map[string]any, error)
	GetWorklog(ctx context.Context, key, worklogID string) (map[string]any, error)
	UpdateWorklog(ctx context.Context, key, worklogID string, opts WorklogOptions) (map[string]any, error)
	DeleteWorklog(ctx context.Context, key, worklogID string) error
	GetTimeTracking(ctx context.Context, key string) (map[string]any, error)
	SetTimeTracking(ctx context.Context, key, originalEstimate, remainingEstimate string) error
	GetTimeTrackingConfiguration(ctx context.Context) (map[string]any, error)
	SetTimeTrackingConfiguration(ctx context.Context, cfg TimeTrackingConfig) (map[string]any, error)
	SetEstimate(ctx context.Context, key, estimate string) error
	AdjustRemainingEstimate(ctx context.Context, key, remaining string) error
	GetWorklogIDsModifiedSince(ctx context.Context, since time.Time) (map[string]any, error)
	GetUserWorklogs(ctx context.Context, accountID string, r WorklogRange) (map[string]any, error)
	GetProjectWorklogs(ctx context.Context, projectKey string, r WorklogRange) (map[string]any, error)
	GetTimeReport(ctx context.Context, key string) (map[string]any, error)

	// users
	GetCurrentUser(ctx context.Context) (map[string]any, error)
	GetCurrentUserID(ctx context.Context) (string, error)
	GetUser(ctx context.Context, accountID string) (map[string]any, error)
	SearchUsers(ctx context.Context, query string, startAt, maxResults int) ([]map[string]any, error)
	FindAssignableUsers(ctx context.Context, query, projectKey string, startAt, maxResults int) ([]map[string]any, error)
	GetUserByName(ctx context.Context, name string) (map[string]any, error)
	GetAllUsers(ctx context.Context, startAt, maxResults int) ([]map[string]any, error)
	GetUsersBulk(ctx context.Context, accountIDs []string) (map[string]any, error)
	GetUserGroups(ctx context.Context, accountID string) ([]map[string]any, error)

	// links
	GetLinkTypes(ctx context.Context) ([]map[string]any, error)
	CreateLink(ctx context.Context, linkType, inwardKey, outwardKey string) error
	DeleteLink(ctx context.Context, linkID string) error
	GetRemoteLinks(ctx context.Context, key string) ([]map[string]any, error)
	CreateRemoteLink(ctx context.Context, key, linkURL, title string) (map[string]any, error)

	// projects and reference data
	GetProject(ctx context.Context, key string) (map[string]any, error)
	GetAllProjects(ctx context.Context) ([]map[string]any, error)
	CreateProject(ctx context.Context, in ProjectInput) (map[string]any, error)
	DeleteProject(ctx context.Context, key string, enableUndo bool) error
	GetProjectComponents(ctx context.Context, key string) ([]map[string]any, error)
	GetProjectVersions(ctx context.Context, key string) ([]map[string]any, error)
	GetProjectStatuses(ctx context.Context, key string) ([]map[string]any, error)
	GetIssueTypes(ctx context.Context) ([]map[string]any, error)
	GetPriorities(ctx context.Context) ([]map[string]any, error)
	GetFields(ctx context.Context) ([]map[string]any, error)
	GetField(ctx context.Context, id string) (map[string]any, error)

	// attachments
	UploadFile(ctx context.Context, key, path string) ([]map[string]any, error)
	DownloadFile(ctx context.Context, contentURL, dest string) error

	// agile
	GetBoards(ctx context.Context, opts BoardOptions) (map[string]any, error)
	GetBoard(ctx context.Context, id int) (map[string]any, error)
	GetSprints(ctx context.Context, boardID int, state string) (map[string]any, error)
	GetSprint(ctx context.Context, id int) (map[string]any, error)
	CreateSprint(ctx context.Context, in SprintInput) (map[string]any, error)
	UpdateSprint(ctx context.Context, id int, fields map[string]any) (map[string]any, error)
	MoveIssuesToSprint(ctx context.Context, sprintID int, keys []string) error
	GetBoardBacklog(ctx context.Context, boardID, startAt, maxResults int) (map[string]any, error)

	// service management
	GetServiceDesks(ctx context.Context, start, limit int) (map[string]any, error)
	GetServiceDesk(ctx context.Context, id string) (map[string]any, error)
	LookupServiceDeskByProjectKey(ctx context.Context, projectKey string) (map[string]any, error)
	CreateServiceDesk(ctx context.Context, name, key, templateKey string) (map[string]any, error)
	GetQueues(ctx context.Context, serviceDeskID string, includeCount bool, start, limit int) (map[string]any, error)
	GetQueue(ctx context.Context, serviceDeskID, queueID string) (map[string]any, error)
	GetQueueIssues(ctx context.Context, serviceDeskID, queueID string, start, limit int) (map[string]any, error)
	GetRequestTypes(ctx context.Context, serviceDeskID string, start, limit int) (map[string]any, error)
	GetRequestType(ctx context.Context, serviceDeskID, requestTypeID string) (map[string]any, error)
	GetRequestTypeFields(ctx context.Context, serviceDeskID, requestTypeID string) (map[string]any, error)
	GetRequest(ctx context.Context, key string) (map[string]any, error)
	GetRequestStatus(ctx context.Context, key string) (map[string]any, error)
	CreateRequest(ctx context.Context, in RequestInput) (map[string]any, error)
	GetRequestSLAs(ctx context.Context, key string) (map[string]any, error)
	GetRequestSLA(ctx context.Context, key, metricID string) (map[string]any, error)
	AddRequestComment(ctx context.Context, key, body string, public bool) (map[string]any, error)
	GetRequestComments(ctx context.Context, key string, vis CommentVisibility, start, limit int) (map[string]any, error)
	GetRequestTransitions(ctx context.Context, key string) ([]map[string]any, error)
	TransitionRequest(ctx context.Context, key, transitionID, comment string, public bool) error
	GetCustomers(ctx context.Context, serviceDeskID, query string, start, limit int) (map[string]any, error)
	CreateCustomer(ctx context.Context, email, displayName string) (map[string]any, error)
	AddCustomers(ctx context.Context, serviceDeskID string, accountIDs []string) error
	RemoveCustomers(ctx context.Context, serviceDeskID string, accountIDs []string) error
	GetOrganizations(ctx context.Context, start, limit int) (map[string]any, error)
	CreateOrganization(ctx context.Context, name string) (map[string]any, error)
	GetOrganization(ctx context.Context, id string) (map[string]any, error)
	DeleteOrganization(ctx context.Context, id string) error
	AddUsersToOrganization(ctx context.Context, id string, accountIDs []string) error
	RemoveUsersFromOrganization(ctx context.Context, id string, accountIDs []string) error
	GetOrganizationUsers(ctx context.Context, id string, start, limit int) (map[string]any, error)
	GetRequestParticipants(ctx context.Context, key string, start, limit int) ([]map[string]any, error)
	AddRequestParticipants(ctx context.Context, key string, accountIDs []string) ([]map[string]any, error)
	RemoveRequestParticipants(ctx context.Context, key string, accountIDs []string) ([]map[string]any, error)

	// development information
	GetDevelopmentStatus(ctx context.Context, key string) (map[string]any, error)

	Close() error
}
