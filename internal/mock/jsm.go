package mock

import (
	"context"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

const (
	deskStatusWaiting = "10100"
	deskIssueIDBase   = 20000
)

// GetServiceDesks lists service desks.
func (c *Client) GetServiceDesks(ctx context.Context, start, limit int) (map[string]any, error) {
	return deskPage(c.st.serviceDesks, start, limit), nil
}

// GetServiceDesk returns a service desk by id.
func (c *Client) GetServiceDesk(ctx context.Context, id string) (map[string]any, error) {
	d, err := c.serviceDesk(id)
	if err != nil {
		return nil, err
	}
	return deepCopy(d), nil
}

// LookupServiceDeskByProjectKey finds the service desk of a project.
func (c *Client) LookupServiceDeskByProjectKey(ctx context.Context, projectKey string) (map[string]any, error) {
	for _, d := range c.st.serviceDesks {
		if d["projectKey"] == projectKey {
			return deepCopy(d), nil
		}
	}
	return nil, jiraerr.ServiceManagement(jiraerr.KindUnknown, "no service desk found for project key: %s", projectKey)
}

// CreateServiceDesk validates its input and returns a synthetic service desk.
// The seeded desk list is fixed, so nothing is stored.
func (c *Client) CreateServiceDesk(ctx context.Context, name, key, templateKey string) (map[string]any, error) {
	key, err := validators.ProjectKey(key)
	if err != nil {
		return nil, err
	}
	if name, err = validators.ProjectName(name); err != nil {
		return nil, err
	}
	n := len(c.st.serviceDesks) + 1
	d := map[string]any{
		"id":          strconv.Itoa(n),
		"projectId":   strconv.Itoa(10000 + n),
		"projectName": name,
		"projectKey":  key,
	}
	return d, nil
}

// GetQueues lists the queues of a service desk. Counts are computed from the
// queue JQL when includeCount is set.
func (c *Client) GetQueues(ctx context.Context, serviceDeskID string, includeCount bool, start, limit int) (map[string]any, error) {
	if _, err := c.serviceDesk(serviceDeskID); err != nil {
		return nil, err
	}
	queues := copyList(c.st.queues[serviceDeskID])
	if includeCount {
		for _, q := range queues {
			jql, _ := q["jql"].(string)
			q["issueCount"] = len(c.find(jql))
		}
	}
	return deskPage(queues, start, limit), nil
}

// GetQueue returns one queue.
func (c *Client) GetQueue(ctx context.Context, serviceDeskID, queueID string) (map[string]any, error) {
	q, err := c.queue(serviceDeskID, queueID)
	if err != nil {
		return nil, err
	}
	return deepCopy(q), nil
}

// GetQueueIssues lists the issues matching a queue's JQL.
func (c *Client) GetQueueIssues(ctx context.Context, serviceDeskID, queueID string, start, limit int) (map[string]any, error) {
	q, err := c.queue(serviceDeskID, queueID)
	if err != nil {
		return nil, err
	}
	jql, _ := q["jql"].(string)
	return deskPage(c.find(jql), start, limit), nil
}

// GetRequestTypes lists the request types of a service desk.
func (c *Client) GetRequestTypes(ctx context.Context, serviceDeskID string, start, limit int) (map[string]any, error) {
	if _, err := c.serviceDesk(serviceDeskID); err != nil {
		return nil, err
	}
	return deskPage(c.st.requestTypes[serviceDeskID], start, limit), nil
}

// GetRequestType returns one request type.
func (c *Client) GetRequestType(ctx context.Context, serviceDeskID, requestTypeID string) (map[string]any, error) {
	rt, err := c.requestType(serviceDeskID, requestTypeID)
	if err != nil {
		return nil, err
	}
	return deepCopy(rt), nil
}

// GetRequestTypeFields lists the fields a request type asks for.
func (c *Client) GetRequestTypeFields(ctx context.Context, serviceDeskID, requestTypeID string) (map[string]any, error) {
	if _, err := c.requestType(serviceDeskID, requestTypeID); err != nil {
		return nil, err
	}
	field := func(id, name string, required bool) map[string]any {
		return map[string]any{
			"fieldId":       id,
			"name":          name,
			"required":      required,
			"validValues":   []any{},
			"jiraSchema":    map[string]any{"type": "string", "system": id},
			"visible":       true,
			"defaultValues": []any{},
		}
	}
	return map[string]any{
		"requestTypeFields": []any{
			field("summary", "Summary", true),
			field("description", "Description", false),
		},
		"canRaiseOnBehalfOf":        true,
		"canAddRequestParticipants": true,
	}, nil
}

// GetRequest returns an issue in customer request form.
func (c *Client) GetRequest(ctx context.Context, key string) (map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	f := fieldsOf(is)
	rtID, _ := is["requestTypeId"].(string)
	if rtID == "" {
		rtID = "1"
	}
	deskID, _ := is["serviceDeskId"].(string)
	if deskID == "" {
		deskID = "1"
	}
	status, _ := is["currentStatus"].(map[string]any)
	if status == nil {
		status = map[string]any{"status": "Open"}
	}
	values := []any{
		map[string]any{"fieldId": "summary", "label": "Summary", "value": f["summary"]},
	}
	if d := adf.ToText(f["description"]); d != "" {
		values = append(values, map[string]any{"fieldId": "description", "label": "Description", "value": d})
	}
	return map[string]any{
		"issueId":            is["id"],
		"issueKey":           key,
		"requestTypeId":      rtID,
		"serviceDeskId":      deskID,
		"currentStatus":      deepCopy(status),
		"reporter":           copyValue(f["reporter"]),
		"requestFieldValues": values,
		"createdDate":        map[string]any{"iso8601": f["created"]},
	}, nil
}

// GetRequestStatus returns the current status of a request.
func (c *Client) GetRequestStatus(ctx context.Context, key string) (map[string]any, error) {
	req, err := c.GetRequest(ctx, key)
	if err != nil {
		return nil, err
	}
	return req["currentStatus"].(map[string]any), nil
}

// CreateRequest raises a request in the service desk project.
func (c *Client) CreateRequest(ctx context.Context, in jira.RequestInput) (map[string]any, error) {
	desk, err := c.serviceDesk(in.ServiceDeskID)
	if err != nil {
		return nil, err
	}
	summary := in.Summary
	if summary == "" {
		summary, _ = in.Fields["summary"].(string)
	}
	if summary == "" {
		return nil, jiraerr.ServiceManagement(jiraerr.KindValidation, "request summary is required")
	}
	typeName := "IT help"
	if rt, err := c.requestType(in.ServiceDeskID, in.RequestTypeID); err == nil {
		typeName, _ = rt["name"].(string)
	}
	reporterID := in.OnBehalfOf
	if reporterID == "" {
		reporterID = currentUserID
	}
	projectKey, _ := desk["projectKey"].(string)

	c.st.counter++
	n := c.st.counter
	key := projectKey + "-" + strconv.Itoa(n)
	id := strconv.Itoa(deskIssueIDBase + n)
	now := c.now()
	fields := map[string]any{
		"summary":    summary,
		"issuetype":  map[string]any{"name": typeName},
		"status":     map[string]any{"id": deskStatusWaiting, "name": "Waiting for support"},
		"priority":   map[string]any{"id": "3", "name": "Medium"},
		"project":    map[string]any{"key": projectKey, "id": desk["projectId"], "name": desk["projectName"]},
		"reporter":   c.user(reporterID),
		"assignee":   nil,
		"labels":     []any{},
		"created":    now,
		"updated":    now,
		"issuelinks": []any{},
	}
	if in.Description != "" {
		fields["description"] = adf.FromText(in.Description).Map()
	}
	status := map[string]any{"status": "Waiting for support", "statusCategory": "new"}
	c.st.put(map[string]any{
		"id":            id,
		"key":           key,
		"self":          c.BaseURL + "/rest/api/3/issue/" + id,
		"fields":        fields,
		"requestTypeId": in.RequestTypeID,
		"serviceDeskId": in.ServiceDeskID,
		"currentStatus": status,
		"participants":  copyValue(in.Participants),
	})
	return map[string]any{
		"issueId":       id,
		"issueKey":      key,
		"requestTypeId": in.RequestTypeID,
		"serviceDeskId": in.ServiceDeskID,
		"currentStatus": map[string]any{"status": "Waiting for support"},
	}, nil
}

// GetRequestSLAs lists the SLA metrics of a request.
func (c *Client) GetRequestSLAs(ctx context.Context, key string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	return deskPage(c.st.slas, 0, defaultPageSize), nil
}

// GetRequestSLA returns one SLA metric.
func (c *Client) GetRequestSLA(ctx context.Context, key, metricID string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	for _, s := range c.st.slas {
		if s["id"] == metricID {
			return deepCopy(s), nil
		}
	}
	return nil, jiraerr.ServiceManagement(jiraerr.KindNotFound, "SLA %s not found on %s", metricID, key)
}

// AddRequestComment stores a comment with a public flag next to the issue
// comments.
func (c *Client) AddRequestComment(ctx context.Context, key, body string, public bool) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	cm := map[string]any{
		"id":      strconv.Itoa(len(c.st.comments[key]) + 1),
		"body":    body,
		"public":  public,
		"author":  c.user(currentUserID),
		"created": map[string]any{"iso8601": c.now()},
	}
	c.st.comments[key] = append(c.st.comments[key], cm)
	return deepCopy(cm), nil
}

// GetRequestComments lists request comments filtered by visibility.
// Comments added without a public flag only show up unfiltered.
func (c *Client) GetRequestComments(ctx context.Context, key string, vis jira.CommentVisibility, start, limit int) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, cm := range c.st.comments[key] {
		public, flagged := cm["public"].(bool)
		if vis != jira.CommentsAll && (!flagged || !vis.Match(public)) {
			continue
		}
		out = append(out, cm)
	}
	return deskPage(out, start, limit), nil
}

// GetRequestTransitions lists the customer transitions of a request.
func (c *Client) GetRequestTransitions(ctx context.Context, key string) ([]map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	return copyList(c.st.deskTransitions), nil
}

// TransitionRequest performs a customer transition with an optional comment.
// An unknown transition id leaves the status unchanged; the comment is still
// added.
func (c *Client) TransitionRequest(ctx context.Context, key, transitionID, comment string, public bool) error {
	is, err := c.issue(key)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(c.st.deskTransitions, func(t map[string]any) bool { return t["id"] == transitionID })
	if idx >= 0 {
		t := c.st.deskTransitions[idx]
		fieldsOf(is)["status"] = map[string]any{"id": t["id"], "name": t["name"]}
		if isDeskKey(key) {
			is["currentStatus"] = map[string]any{"status": t["name"], "statusCategory": deskCategory(t["name"])}
		}
	}
	if comment != "" {
		if _, err := c.AddRequestComment(ctx, key, comment, public); err != nil {
			return err
		}
	}
	return nil
}

// GetCustomers lists users matching query as service desk customers.
func (c *Client) GetCustomers(ctx context.Context, serviceDeskID, query string, start, limit int) (map[string]any, error) {
	if _, err := c.serviceDesk(serviceDeskID); err != nil {
		return nil, err
	}
	return deskPage(c.matchUsers(query), start, limit), nil
}

// CreateCustomer returns a customer account derived from the email. The
// same email always yields the same account id.
func (c *Client) CreateCustomer(ctx context.Context, email, displayName string) (map[string]any, error) {
	email, err := validators.Email(email)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = email
	}
	id := "customer-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(email)).String()[:8]
	return map[string]any{
		"accountId":    id,
		"emailAddress": email,
		"displayName":  displayName,
		"active":       true,
		"accountType":  "customer",
	}, nil
}

// AddCustomers accepts the account ids without recording them.
func (c *Client) AddCustomers(ctx context.Context, serviceDeskID string, accountIDs []string) error {
	_, err := c.serviceDesk(serviceDeskID)
	return err
}

// RemoveCustomers accepts the account ids without recording them.
func (c *Client) RemoveCustomers(ctx context.Context, serviceDeskID string, accountIDs []string) error {
	_, err := c.serviceDesk(serviceDeskID)
	return err
}

// GetOrganizations lists organizations.
func (c *Client) GetOrganizations(ctx context.Context, start, limit int) (map[string]any, error) {
	return deskPage(c.st.organizations, start, limit), nil
}

// CreateOrganization returns a new organization without storing it.
func (c *Client) CreateOrganization(ctx context.Context, name string) (map[string]any, error) {
	if name == "" {
		return nil, jiraerr.ServiceManagement(jiraerr.KindValidation, "organization name is required")
	}
	id := strconv.Itoa(len(c.st.organizations) + 1)
	return map[string]any{
		"id":    id,
		"name":  name,
		"links": map[string]any{"self": c.BaseURL + "/rest/servicedeskapi/organization/" + id},
	}, nil
}

// GetOrganization returns an organization. Unknown ids get a generated name.
func (c *Client) GetOrganization(ctx context.Context, id string) (map[string]any, error) {
	for _, o := range c.st.organizations {
		if o["id"] == id {
			return deepCopy(o), nil
		}
	}
	return map[string]any{
		"id":    id,
		"name":  "Organization " + id,
		"links": map[string]any{"self": c.BaseURL + "/rest/servicedeskapi/organization/" + id},
	}, nil
}

// DeleteOrganization is accepted and ignored.
func (c *Client) DeleteOrganization(ctx context.Context, id string) error { return nil }

// AddUsersToOrganization is accepted and ignored.
func (c *Client) AddUsersToOrganization(ctx context.Context, id string, accountIDs []string) error {
	return nil
}

// RemoveUsersFromOrganization is accepted and ignored.
func (c *Client) RemoveUsersFromOrganization(ctx context.Context, id string, accountIDs []string) error {
	return nil
}

// GetOrganizationUsers lists every known user as a member.
func (c *Client) GetOrganizationUsers(ctx context.Context, id string, start, limit int) (map[string]any, error) {
	return deskPage(c.matchUsers(""), start, limit), nil
}

// GetRequestParticipants lists the reporter and the seeded manager.
func (c *Client) GetRequestParticipants(ctx context.Context, key string, start, limit int) ([]map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	return copyList(window(c.participants(is), start, limit)), nil
}

// AddRequestParticipants returns the participant list unchanged.
func (c *Client) AddRequestParticipants(ctx context.Context, key string, accountIDs []string) ([]map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	return copyList(c.participants(is)), nil
}

// RemoveRequestParticipants returns the participant list unchanged.
func (c *Client) RemoveRequestParticipants(ctx context.Context, key string, accountIDs []string) ([]map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	return copyList(c.participants(is)), nil
}

func (c *Client) participants(is map[string]any) []map[string]any {
	reporter := validators.NestedString(fieldsOf(is), "reporter.accountId", currentUserID)
	out := []map[string]any{c.user(reporter)}
	if reporter != "def456" {
		out = append(out, c.user("def456"))
	}
	return out
}

func (c *Client) serviceDesk(id string) (map[string]any, error) {
	for _, d := range c.st.serviceDesks {
		if d["id"] == id {
			return d, nil
		}
	}
	return nil, jiraerr.ServiceManagement(jiraerr.KindNotFound, "service desk %s not found", id)
}

func (c *Client) queue(deskID, queueID string) (map[string]any, error) {
	for _, q := range c.st.queues[deskID] {
		if q["id"] == queueID {
			return q, nil
		}
	}
	return nil, jiraerr.ServiceManagement(jiraerr.KindNotFound, "queue %s not found in service desk %s", queueID, deskID)
}

func (c *Client) requestType(deskID, typeID string) (map[string]any, error) {
	for _, rt := range c.st.requestTypes[deskID] {
		if rt["id"] == typeID {
			return rt, nil
		}
	}
	return nil, jiraerr.ServiceManagement(jiraerr.KindNotFound, "request type %s not found in service desk %s", typeID, deskID)
}

func deskCategory(name any) string {
	switch name {
	case "Resolved":
		return "done"
	case "Waiting for support":
		return "new"
	default:
		return "indeterminate"
	}
}
