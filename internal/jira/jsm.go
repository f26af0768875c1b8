package jira

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// experimental endpoints need an opt-in header
var experimental = http.Header{"X-ExperimentalApi": {"opt-in"}}

// jsm performs a servicedeskapi call.
func (c *Client) jsm(ctx context.Context, method, path string, query url.Values, body any, op string, out any) error {
	return c.call(ctx, method, deskPath+path, query, body, op, out)
}

// GetServiceDesks lists service desks.
func (c *Client) GetServiceDesks(ctx context.Context, start, limit int) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/servicedesk", jsmPage(start, limit), nil, "get service desks", &out)
	return out, err
}

// GetServiceDesk returns a service desk by id.
func (c *Client) GetServiceDesk(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/servicedesk/"+escape(id), nil, nil, label("get service desk %s", id), &out)
	return out, err
}

// LookupServiceDeskByProjectKey finds the service desk of a project.
func (c *Client) LookupServiceDeskByProjectKey(ctx context.Context, projectKey string) (map[string]any, error) {
	desks, err := c.CollectPages(ctx, deskPath+"/servicedesk", nil, ServiceDeskPages)
	if err != nil {
		return nil, err
	}
	for _, d := range desks {
		if k, _ := d["projectKey"].(string); k == projectKey {
			return d, nil
		}
	}
	return nil, jiraerr.ServiceManagement(jiraerr.KindUnknown, "no service desk found for project key: %s", projectKey)
}

// CreateServiceDesk creates a service management project.
func (c *Client) CreateServiceDesk(ctx context.Context, name, key, templateKey string) (map[string]any, error) {
	if templateKey == "" {
		templateKey = "com.atlassian.servicedesk:simplified-it-service-desk"
	}
	return c.CreateProject(ctx, ProjectInput{
		Key:            key,
		Name:           name,
		ProjectTypeKey: "service_desk",
		TemplateKey:    templateKey,
	})
}

// GetQueues lists the queues of a service desk.
func (c *Client) GetQueues(ctx context.Context, serviceDeskID string, includeCount bool, start, limit int) (map[string]any, error) {
	q := jsmPage(start, limit)
	if includeCount {
		q.Set("includeCount", "true")
	}
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/servicedesk/"+escape(serviceDeskID)+"/queue", q, nil, label("get queues %s", serviceDeskID), &out)
	return out, err
}

// GetQueue returns one queue.
func (c *Client) GetQueue(ctx context.Context, serviceDeskID, queueID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/servicedesk/"+escape(serviceDeskID)+"/queue/"+escape(queueID), nil, nil, label("get queue %s/%s", serviceDeskID, queueID), &out)
	return out, err
}

// GetQueueIssues lists the issues in a queue.
func (c *Client) GetQueueIssues(ctx context.Context, serviceDeskID, queueID string, start, limit int) (map[string]any, error) {
	var out map[string]any
	path := "/servicedesk/" + escape(serviceDeskID) + "/queue/" + escape(queueID) + "/issue"
	err := c.jsm(ctx, http.MethodGet, path, jsmPage(start, limit), nil, label("get queue issues %s/%s", serviceDeskID, queueID), &out)
	return out, err
}

// GetRequestTypes lists the request types of a service desk.
func (c *Client) GetRequestTypes(ctx context.Context, serviceDeskID string, start, limit int) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/servicedesk/"+escape(serviceDeskID)+"/requesttype", jsmPage(start, limit), nil, label("get request types %s", serviceDeskID), &out)
	return out, err
}

// GetRequestType returns one request type.
func (c *Client) GetRequestType(ctx context.Context, serviceDeskID, requestTypeID string) (map[string]any, error) {
	var out map[string]any
	path := "/servicedesk/" + escape(serviceDeskID) + "/requesttype/" + escape(requestTypeID)
	err := c.jsm(ctx, http.MethodGet, path, nil, nil, label("get request type %s/%s", serviceDeskID, requestTypeID), &out)
	return out, err
}

// GetRequestTypeFields lists the fields a request type asks for.
func (c *Client) GetRequestTypeFields(ctx context.Context, serviceDeskID, requestTypeID string) (map[string]any, error) {
	var out map[string]any
	path := "/servicedesk/" + escape(serviceDeskID) + "/requesttype/" + escape(requestTypeID) + "/field"
	err := c.jsm(ctx, http.MethodGet, path, nil, nil, label("get request type fields %s/%s", serviceDeskID, requestTypeID), &out)
	return out, err
}

// GetRequest returns a customer request.
func (c *Client) GetRequest(ctx context.Context, key string) (map[string]any, error) {
	var out map[string]any
	q := url.Values{"expand": {"status,participant,sla,requestType"}}
	err := c.jsm(ctx, http.MethodGet, "/request/"+escape(key), q, nil, label("get request %s", key), &out)
	return out, err
}

// GetRequestStatus returns the current status of a request.
func (c *Client) GetRequestStatus(ctx context.Context, key string) (map[string]any, error) {
	req, err := c.GetRequest(ctx, key)
	if err != nil {
		return nil, err
	}
	st, _ := req["currentStatus"].(map[string]any)
	if st == nil {
		st = map[string]any{}
	}
	return st, nil
}

// CreateRequest raises a customer request.
func (c *Client) CreateRequest(ctx context.Context, in RequestInput) (map[string]any, error) {
	values := map[string]any{}
	for k, v := range in.Fields {
		values[k] = v
	}
	if in.Summary != "" {
		values["summary"] = in.Summary
	}
	if in.Description != "" {
		values["description"] = in.Description
	}
	body := map[string]any{
		"serviceDeskId":      in.ServiceDeskID,
		"requestTypeId":      in.RequestTypeID,
		"requestFieldValues": values,
	}
	if len(in.Participants) > 0 {
		body["requestParticipants"] = in.Participants
	}
	if in.OnBehalfOf != "" {
		body["raiseOnBehalfOf"] = in.OnBehalfOf
	}
	var out map[string]any
	err := c.jsm(ctx, http.MethodPost, "/request", nil, body, "create request", &out)
	return out, err
}

// GetRequestSLAs lists the SLA metrics of a request.
func (c *Client) GetRequestSLAs(ctx context.Context, key string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/request/"+escape(key)+"/sla", nil, nil, label("get SLAs %s", key), &out)
	return out, err
}

// GetRequestSLA returns one SLA metric.
func (c *Client) GetRequestSLA(ctx context.Context, key, metricID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/request/"+escape(key)+"/sla/"+escape(metricID), nil, nil, label("get SLA %s/%s", key, metricID), &out)
	return out, err
}

// AddRequestComment comments on a request. Internal comments are hidden
// from customers.
func (c *Client) AddRequestComment(ctx context.Context, key, body string, public bool) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodPost, "/request/"+escape(key)+"/comment", nil, map[string]any{"body": body, "public": public}, label("add request comment %s", key), &out)
	return out, err
}

// GetRequestComments lists request comments filtered by visibility.
func (c *Client) GetRequestComments(ctx context.Context, key string, vis CommentVisibility, start, limit int) (map[string]any, error) {
	q := vis.Query()
	for k, v := range jsmPage(start, limit) {
		q[k] = v
	}
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/request/"+escape(key)+"/comment", q, nil, label("get request comments %s", key), &out)
	return out, err
}

// GetRequestTransitions lists the customer transitions of a request.
func (c *Client) GetRequestTransitions(ctx context.Context, key string) ([]map[string]any, error) {
	return c.CollectPages(ctx, deskPath+"/request/"+escape(key)+"/transition", nil, ServiceDeskPages)
}

// TransitionRequest performs a customer transition with an optional comment.
func (c *Client) TransitionRequest(ctx context.Context, key, transitionID, comment string, public bool) error {
	body := map[string]any{"id": transitionID}
	if comment != "" {
		body["additionalComment"] = map[string]any{"body": comment, "public": public}
	}
	return c.jsm(ctx, http.MethodPost, "/request/"+escape(key)+"/transition", nil, body, label("transition request %s", key), nil)
}

// GetCustomers lists the customers of a service desk.
func (c *Client) GetCustomers(ctx context.Context, serviceDeskID, query string, start, limit int) (map[string]any, error) {
	q := jsmPage(start, limit)
	if query != "" {
		q.Set("query", query)
	}
	var out map[string]any
	spec := "/servicedesk/" + escape(serviceDeskID) + "/customer"
	err := c.jsmExperimental(ctx, http.MethodGet, spec, q, nil, label("get customers %s", serviceDeskID), &out)
	return out, err
}

// CreateCustomer creates a customer account.
func (c *Client) CreateCustomer(ctx context.Context, email, displayName string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodPost, "/customer", nil, map[string]any{"email": email, "displayName": displayName}, label("create customer %s", email), &out)
	return out, err
}

// AddCustomers grants customers access to a service desk.
func (c *Client) AddCustomers(ctx context.Context, serviceDeskID string, accountIDs []string) error {
	return c.jsmExperimental(ctx, http.MethodPost, "/servicedesk/"+escape(serviceDeskID)+"/customer", nil, map[string]any{"accountIds": accountIDs}, label("add customers %s", serviceDeskID), nil)
}

// RemoveCustomers revokes service desk access.
func (c *Client) RemoveCustomers(ctx context.Context, serviceDeskID string, accountIDs []string) error {
	return c.jsmExperimental(ctx, http.MethodDelete, "/servicedesk/"+escape(serviceDeskID)+"/customer", nil, map[string]any{"accountIds": accountIDs}, label("remove customers %s", serviceDeskID), nil)
}

// GetOrganizations lists organizations.
func (c *Client) GetOrganizations(ctx context.Context, start, limit int) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/organization", jsmPage(start, limit), nil, "get organizations", &out)
	return out, err
}

// CreateOrganization creates an organization.
func (c *Client) CreateOrganization(ctx context.Context, name string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodPost, "/organization", nil, map[string]any{"name": name}, label("create organization %q", name), &out)
	return out, err
}

// GetOrganization returns one organization.
func (c *Client) GetOrganization(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/organization/"+escape(id), nil, nil, label("get organization %s", id), &out)
	return out, err
}

// DeleteOrganization deletes an organization.
func (c *Client) DeleteOrganization(ctx context.Context, id string) error {
	return c.jsm(ctx, http.MethodDelete, "/organization/"+escape(id), nil, nil, label("delete organization %s", id), nil)
}

// AddUsersToOrganization adds users to an organization.
func (c *Client) AddUsersToOrganization(ctx context.Context, id string, accountIDs []string) error {
	return c.jsm(ctx, http.MethodPost, "/organization/"+escape(id)+"/user", nil, map[string]any{"accountIds": accountIDs}, label("add users to organization %s", id), nil)
}

// RemoveUsersFromOrganization removes users from an organization.
func (c *Client) RemoveUsersFromOrganization(ctx context.Context, id string, accountIDs []string) error {
	return c.jsm(ctx, http.MethodDelete, "/organization/"+escape(id)+"/user", nil, map[string]any{"accountIds": accountIDs}, label("remove users from organization %s", id), nil)
}

// GetOrganizationUsers lists the members of an organization.
func (c *Client) GetOrganizationUsers(ctx context.Context, id string, start, limit int) (map[string]any, error) {
	var out map[string]any
	err := c.jsm(ctx, http.MethodGet, "/organization/"+escape(id)+"/user", jsmPage(start, limit), nil, label("get organization users %s", id), &out)
	return out, err
}

// GetRequestParticipants lists the participants of a request.
func (c *Client) GetRequestParticipants(ctx context.Context, key string, start, limit int) ([]map[string]any, error) {
	var out map[string]any
	if err := c.jsm(ctx, http.MethodGet, "/request/"+escape(key)+"/participant", jsmPage(start, limit), nil, label("get participants %s", key), &out); err != nil {
		return nil, err
	}
	return toMaps(out["values"]), nil
}

// AddRequestParticipants adds participants and returns the new list.
func (c *Client) AddRequestParticipants(ctx context.Context, key string, accountIDs []string) ([]map[string]any, error) {
	var out map[string]any
	if err := c.jsm(ctx, http.MethodPost, "/request/"+escape(key)+"/participant", nil, map[string]any{"accountIds": accountIDs}, label("add participants %s", key), &out); err != nil {
		return nil, err
	}
	return toMaps(out["values"]), nil
}

// RemoveRequestParticipants removes participants and returns the new list.
func (c *Client) RemoveRequestParticipants(ctx context.Context, key string, accountIDs []string) ([]map[string]any, error) {
	var out map[string]any
	if err := c.jsm(ctx, http.MethodDelete, "/request/"+escape(key)+"/participant", nil, map[string]any{"accountIds": accountIDs}, label("remove participants %s", key), &out); err != nil {
		return nil, err
	}
	return toMaps(out["values"]), nil
}

// jsmExperimental is jsm with the experimental API opt-in header.
func (c *Client) jsmExperimental(ctx context.Context, method, path string, query url.Values, body any, op string, out any) error {
	spec, err := jsonSpec(method, deskPath+path, query, body)
	if err != nil {
		return err
	}
	spec.Header = experimental
	return c.do(ctx, spec, op, out)
}
