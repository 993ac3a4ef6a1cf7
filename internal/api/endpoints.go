package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/client-platform/internal/model"
)

// Login authenticates with email and password. When the account has
// two-factor enabled the response carries RequiresTwoFactor instead of
// tokens; complete the login with VerifyTwoFactor.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	status, raw, err := c.roundTrip(ctx, http.MethodPost, "/auth", nil,
		&model.LoginRequest{Email: email, Password: password}, "", c.timeout)
	if err != nil {
		return nil, err
	}
	var resp model.LoginResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken != "" {
		if err := c.tokens.Save(&model.Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
		}); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// VerifyTwoFactor completes a two-factor login with the emailed code.
func (c *Client) VerifyTwoFactor(ctx context.Context, email, code string) (*model.LoginResponse, error) {
	status, raw, err := c.roundTrip(ctx, http.MethodPost, "/auth/verify", nil,
		&model.VerifyTwoFactorRequest{Email: email, Code: code}, "", c.timeout)
	if err != nil {
		return nil, err
	}
	var resp model.LoginResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken != "" {
		if err := c.tokens.Save(&model.Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
		}); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// Logout invalidates the session server-side and clears stored tokens.
// The stored session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	token := c.tokens.AccessToken()
	if token != "" {
		_, _, err := c.roundTrip(ctx, http.MethodDelete, "/auth", nil, nil, token, c.authTimeout)
		if err != nil {
			c.logger.Warn("logout request failed, clearing local session anyway", zap.Error(err))
		}
	}
	return c.tokens.Clear()
}

// Dashboard fetches the admin overview.
func (c *Client) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp model.DashboardResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Dashboard, nil
}

// Accounts lists client accounts.
func (c *Client) Accounts(ctx context.Context) ([]model.Account, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/accounts", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListAccountsResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// Transactions lists billing transactions, optionally for one account.
func (c *Client) Transactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	query := url.Values{}
	if accountID != "" {
		query.Set("accountId", accountID)
	}
	status, raw, err := c.do(ctx, http.MethodGet, "/transactions", query, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListTransactionsResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// Projects lists projects with their milestones, optionally for one account.
func (c *Client) Projects(ctx context.Context, accountID string) ([]model.Project, error) {
	query := url.Values{}
	if accountID != "" {
		query.Set("accountId", accountID)
	}
	status, raw, err := c.do(ctx, http.MethodGet, "/projects", query, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListProjectsResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// Proposals lists proposals, optionally for one account.
func (c *Client) Proposals(ctx context.Context, accountID string) ([]model.Proposal, error) {
	query := url.Values{}
	if accountID != "" {
		query.Set("accountId", accountID)
	}
	status, raw, err := c.do(ctx, http.MethodGet, "/proposals", query, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListProposalsResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Proposals, nil
}

// CreateProposal creates a proposal draft.
func (c *Client) CreateProposal(ctx context.Context, req *model.CreateProposalRequest) (*model.Proposal, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/proposals", nil, req)
	if err != nil {
		return nil, err
	}
	var resp model.ProposalResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Proposal, nil
}

// Tasks lists planner tasks.
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/tasks", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListTasksResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask creates a planner task.
func (c *Client) CreateTask(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/tasks", nil, req)
	if err != nil {
		return nil, err
	}
	var resp model.TaskResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// UpdateTask updates a planner task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req *model.UpdateTaskRequest) (*model.Task, error) {
	status, raw, err := c.do(ctx, http.MethodPut, "/tasks/"+taskID, nil, req)
	if err != nil {
		return nil, err
	}
	var resp model.TaskResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// DeleteTask removes a planner task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	status, raw, err := c.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil, nil)
	if err != nil {
		return err
	}
	var resp model.APIResponse
	return decode(status, raw, &resp)
}

// Messages fetches messages for an account. A zero after time means
// full history; otherwise only messages created strictly after the
// cursor are returned.
func (c *Client) Messages(ctx context.Context, accountID string, after time.Time) ([]model.Message, error) {
	query := url.Values{}
	query.Set("accountId", accountID)
	if !after.IsZero() {
		query.Set("after", after.UTC().Format(time.RFC3339Nano))
	}
	status, raw, err := c.do(ctx, http.MethodGet, "/messages", query, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListMessagesResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a message and returns the server-confirmed record.
func (c *Client) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.Message, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/messages", nil, req)
	if err != nil {
		return nil, err
	}
	var resp model.SendMessageResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// TypingStatus reads the other party's typing indicator.
func (c *Client) TypingStatus(ctx context.Context, accountID string) (bool, error) {
	query := url.Values{}
	query.Set("accountId", accountID)
	status, raw, err := c.do(ctx, http.MethodGet, "/messages/typing", query, nil)
	if err != nil {
		return false, err
	}
	var resp model.TypingResponse
	if err := decode(status, raw, &resp); err != nil {
		return false, err
	}
	return resp.Typing, nil
}

// BroadcastTyping reports that the local user is typing.
func (c *Client) BroadcastTyping(ctx context.Context, accountID string) error {
	query := url.Values{}
	query.Set("accountId", accountID)
	status, raw, err := c.do(ctx, http.MethodPost, "/messages/typing", query, nil)
	if err != nil {
		return err
	}
	var resp model.APIResponse
	return decode(status, raw, &resp)
}

// BrandTemplates lists brand-guideline page presets.
func (c *Client) BrandTemplates(ctx context.Context) ([]model.BrandTemplate, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/templates", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp model.ListTemplatesResponse
	if err := decode(status, raw, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}
