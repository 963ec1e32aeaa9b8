package openfga

import (
	"context"
	"fmt"
	"log/slog"

	"norwegianopen/internal/config"

	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"
)

// Client wraps the OpenFGA SDK client for relation checks and writes.
type Client struct {
	fga    *client.OpenFgaClient
	config config.OpenFGAConfig
	logger *slog.Logger
}

// NewClient connects to the store and verifies it exists.
func NewClient(ctx context.Context, cfg config.OpenFGAConfig, logger *slog.Logger) (*Client, error) {
	clientCfg := &client.ClientConfiguration{
		ApiUrl:               cfg.APIURL,
		StoreId:              cfg.StoreID,
		AuthorizationModelId: cfg.ModelID,
	}
	if cfg.APIToken != "" {
		clientCfg.Credentials = &credentials.Credentials{
			Method: credentials.CredentialsMethodApiToken,
			Config: &credentials.Config{
				ApiToken: cfg.APIToken,
			},
		}
	}

	fgaClient, err := client.NewSdkClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("openfga: failed to create client: %w", err)
	}

	c := &Client{
		fga:    fgaClient,
		config: cfg,
		logger: logger,
	}

	if err := c.verifyConnection(ctx); err != nil {
		return nil, fmt.Errorf("openfga: failed to verify connection: %w", err)
	}

	logger.Info("OpenFGA client initialized successfully",
		"store_id", cfg.StoreID, "model_id", cfg.ModelID)

	return c, nil
}

func (c *Client) verifyConnection(ctx context.Context) error {
	response, err := c.fga.GetStore(ctx).Execute()
	if err != nil {
		return fmt.Errorf("failed to get store: %w", err)
	}

	if response.Id != c.config.StoreID {
		return fmt.Errorf("store ID mismatch: expected %s, got %s",
			c.config.StoreID, response.Id)
	}
	return nil
}

// Check reports whether user holds relation on object.
func (c *Client) Check(ctx context.Context, user, relation, object string) (bool, error) {
	body := client.ClientCheckRequest{
		User:     user,
		Relation: relation,
		Object:   object,
	}

	data, err := c.fga.Check(ctx).Body(body).Execute()
	if err != nil {
		c.logger.ErrorContext(ctx, "OpenFGA check failed",
			"user", user, "relation", relation, "object", object, "error", err)
		return false, fmt.Errorf("openfga: check failed: %w", err)
	}

	allowed := data.GetAllowed()
	c.logger.DebugContext(ctx, "OpenFGA check completed",
		"user", user, "relation", relation, "object", object, "allowed", allowed)

	return allowed, nil
}

// Write creates a relationship tuple.
func (c *Client) Write(ctx context.Context, user, relation, object string) error {
	body := client.ClientWriteRequest{
		Writes: []client.ClientTupleKey{
			{User: user, Relation: relation, Object: object},
		},
	}

	if _, err := c.fga.Write(ctx).Body(body).Execute(); err != nil {
		c.logger.ErrorContext(ctx, "OpenFGA write failed",
			"user", user, "relation", relation, "object", object, "error", err)
		return fmt.Errorf("openfga: write failed: %w", err)
	}
	return nil
}
