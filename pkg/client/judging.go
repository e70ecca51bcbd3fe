package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/naveenspark/hackforge/pkg/domain"
)

// ListJudges returns the judges assigned to a hackathon.
func (c *Client) ListJudges(ctx context.Context, hackathonID string) ([]domain.Judge, error) {
	var judges []domain.Judge
	if err := c.get(ctx, "/judges/hackathons/"+url.PathEscape(hackathonID)+"/judges", &judges); err != nil {
		return nil, fmt.Errorf("client.ListJudges: %w", err)
	}
	return judges, nil
}

// ListEvaluations returns all submitted evaluations for a hackathon.
func (c *Client) ListEvaluations(ctx context.Context, hackathonID string) ([]domain.Evaluation, error) {
	var evals []domain.Evaluation
	if err := c.get(ctx, "/judges/hackathons/"+url.PathEscape(hackathonID)+"/evaluations", &evals); err != nil {
		return nil, fmt.Errorf("client.ListEvaluations: %w", err)
	}
	return evals, nil
}
