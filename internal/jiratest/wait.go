package jiratest

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/validators"
)

// PollInterval is the pause between two checks of a wait helper.
const PollInterval = 500 * time.Millisecond

var errNotYet = errors.New("condition not met")

// poll runs check until it reports true or timeout passes. Errors from
// check are retried like an unmet condition.
func poll(ctx context.Context, timeout time.Duration, check func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op := func() error {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errNotYet
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(PollInterval), ctx))
}

// WaitForTransition waits until the issue's status name equals status.
func WaitForTransition(ctx context.Context, svc jira.Service, key, status string, timeout time.Duration) bool {
	err := poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		is, err := svc.GetIssue(ctx, key, jira.GetIssueOptions{Fields: []string{"status"}})
		if err != nil {
			return false, err
		}
		return validators.NestedString(is, "fields.status.name", "") == status, nil
	})
	return err == nil
}

// WaitForAssignment waits until the issue is assigned to accountID. An
// empty accountID waits for the issue to be unassigned.
func WaitForAssignment(ctx context.Context, svc jira.Service, key, accountID string, timeout time.Duration) bool {
	err := poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		is, err := svc.GetIssue(ctx, key, jira.GetIssueOptions{Fields: []string{"assignee"}})
		if err != nil {
			return false, err
		}
		return validators.NestedString(is, "fields.assignee.accountId", "") == accountID, nil
	})
	return err == nil
}
